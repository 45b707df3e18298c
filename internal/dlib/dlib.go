// Package dlib implements face detection and encoding with dlib through go-face.
// The models directory must contain shape_predictor_5_face_landmarks.dat,
// dlib_face_recognition_resnet_model_v1.dat and mmod_human_face_detector.dat.
package dlib

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Kagami/go-face"

	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/imageutil"
)

// ErrModelsMissing is returned when a required model file is not in the models directory.
var ErrModelsMissing = errors.New("face models missing")

// ErrClosed is returned by Detect and Encode after Close.
var ErrClosed = errors.New("face engine closed")

// ModelFiles lists the files go-face loads from the models directory.
var ModelFiles = []string{
	"shape_predictor_5_face_landmarks.dat",
	"dlib_face_recognition_resnet_model_v1.dat",
	"mmod_human_face_detector.dat",
}

// encodeQuality is the JPEG quality of the in-memory copy handed to dlib.
const encodeQuality = 95

// Engine is a dlib backed facematch.Detector and facematch.Encoder.
//
// go-face detects and encodes in a single call, so Engine remembers the faces of
// the last image passed to Detect and answers Encode for the same image from
// that cache. Not safe for concurrent use.
type Engine struct {
	rec *face.Recognizer

	lastImage image.Image
	lastFaces []face.Face
}

// New loads the models from modelsDir.
func New(modelsDir string) (*Engine, error) {
	for _, name := range ModelFiles {
		if _, err := os.Stat(filepath.Join(modelsDir, name)); err != nil {
			return nil, fmt.Errorf("%w: %s in %s", ErrModelsMissing, name, modelsDir)
		}
	}

	slog.Debug("loading face models", "dir", modelsDir)
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load face models: %w", err)
	}
	return &Engine{rec: rec}, nil
}

// Detect returns the regions of all faces in img.
func (e *Engine) Detect(img image.Image) ([]facematch.Region, error) {
	faces, err := e.recognize(img)
	if err != nil {
		return nil, err
	}

	regions := make([]facematch.Region, len(faces))
	for i, f := range faces {
		regions[i] = facematch.RegionFromRect(f.Rectangle)
	}
	return regions, nil
}

// Encode returns one descriptor per region. Each region is paired with the
// dlib face it overlaps most.
func (e *Engine) Encode(img image.Image, regions []facematch.Region) ([]facematch.Descriptor, error) {
	faces := e.lastFaces
	if img != e.lastImage {
		var err error
		if faces, err = e.recognize(img); err != nil {
			return nil, err
		}
	}

	found := make([]facematch.Region, len(faces))
	for i, f := range faces {
		found[i] = facematch.RegionFromRect(f.Rectangle)
	}

	descriptors := make([]facematch.Descriptor, len(regions))
	for i, r := range regions {
		idx := facematch.BestOverlap(r, found)
		if idx < 0 {
			return nil, fmt.Errorf("no face found in region %+v", r)
		}
		d := faces[idx].Descriptor
		descriptors[i] = facematch.Descriptor(d[:])
	}
	return descriptors, nil
}

func (e *Engine) recognize(img image.Image) ([]face.Face, error) {
	if e.rec == nil {
		return nil, ErrClosed
	}

	data, err := imageutil.EncodeJPEG(img, encodeQuality)
	if err != nil {
		return nil, err
	}
	faces, err := e.rec.Recognize(data)
	if err != nil {
		return nil, fmt.Errorf("face recognition failed: %w", err)
	}

	e.lastImage = img
	e.lastFaces = faces
	return faces, nil
}

// Close releases the dlib models.
func (e *Engine) Close() error {
	if e.rec != nil {
		e.rec.Close()
		e.rec = nil
	}
	e.lastImage = nil
	e.lastFaces = nil
	return nil
}
