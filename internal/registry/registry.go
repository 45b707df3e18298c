// Package registry loads the known faces of a session from an enrollment directory.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/fingerprint"
	"github.com/kozaktomas/face-attendance/internal/imageutil"
)

// ErrNoFace is the skip reason for enrollment images without a detectable face.
var ErrNoFace = errors.New("no face detected")

// ErrNoName is the skip reason for files whose name yields an empty display name.
var ErrNoName = errors.New("file name yields an empty display name")

// AcceptedExtensions lists the enrollment image formats, lower-cased with the leading dot.
var AcceptedExtensions = []string{".jpg", ".jpeg", ".png"}

// Outcome records what happened to one enrollment file.
type Outcome struct {
	File    string // base name of the file
	Name    string // derived display name
	Faces   int    // number of faces detected; only the first is enrolled
	Skipped bool
	Reason  error // why the file was skipped, nil when loaded

	Fingerprint fingerprint.Hash // perceptual hash of the decoded image
	DuplicateOf string           // earlier loaded file showing the same picture, if any
}

// Registry holds the identities loaded from an enrollment directory.
type Registry struct {
	dir        string
	created    bool
	names      []string
	known      []facematch.Descriptor // index-aligned with names
	outcomes   []Outcome
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	onProgress func(done, total int)
	logger     *slog.Logger
}

// WithProgress registers a callback invoked after each candidate file is processed.
func WithProgress(fn func(done, total int)) Option {
	return func(o *loadOptions) { o.onProgress = fn }
}

// WithLogger sets the logger used for per-file diagnostics. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *loadOptions) { o.logger = logger }
}

// Load builds a registry from the images in dir. A missing directory is created and
// yields an empty registry. Unusable files are skipped and reported in Outcomes; they
// never abort the load. The only errors returned are a failure to create the directory
// and context cancellation.
func Load(ctx context.Context, dir string, detector facematch.Detector, encoder facematch.Encoder, opts ...Option) (*Registry, error) {
	o := loadOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{dir: dir}

	created, err := EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	if created {
		o.logger.Info("created enrollment directory", "dir", dir)
		r.created = true
		return r, nil
	}

	files, err := candidateFiles(dir)
	if err != nil {
		o.logger.Warn("cannot read enrollment directory", "dir", dir, "error", err)
		return r, nil
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome, identity := loadFile(filepath.Join(dir, file), detector, encoder)
		if outcome.Skipped {
			o.logger.Warn("skipping enrollment image", "file", outcome.File, "reason", outcome.Reason)
		} else {
			outcome.DuplicateOf = r.duplicateOf(outcome.Fingerprint)
			if outcome.DuplicateOf != "" {
				o.logger.Warn("enrollment image duplicates another photo", "file", outcome.File, "duplicate_of", outcome.DuplicateOf)
			}
			r.names = append(r.names, identity.Name)
			r.known = append(r.known, identity.Descriptor)
			o.logger.Debug("loaded enrollment image", "file", outcome.File, "name", outcome.Name, "faces", outcome.Faces)
		}
		r.outcomes = append(r.outcomes, outcome)

		if o.onProgress != nil {
			o.onProgress(i+1, len(files))
		}
	}

	return r, nil
}

// EnsureDir creates the enrollment directory when it is missing and reports
// whether it had to.
func EnsureDir(dir string) (bool, error) {
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("creating enrollment directory %s: %w", dir, err)
	}
	return true, nil
}

// candidateFiles lists the regular files in dir with an accepted extension, sorted by name.
func candidateFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if IsAccepted(e.Name()) {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// EnrolledNames returns the display names the files in dir would enroll under,
// sorted and without running detection. A missing directory has no names.
func EnrolledNames(dir string) ([]string, error) {
	files, err := candidateFiles(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, f := range files {
		if name := facematch.DisplayName(f); name != "" && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// IsAccepted reports whether a file name has an accepted enrollment extension.
func IsAccepted(name string) bool {
	return slices.Contains(AcceptedExtensions, strings.ToLower(filepath.Ext(name)))
}

// loadFile turns one enrollment image into an identity. Only the first detected
// face is enrolled; additional faces in the same image are ignored.
func loadFile(path string, detector facematch.Detector, encoder facematch.Encoder) (Outcome, facematch.Identity) {
	outcome := Outcome{
		File: filepath.Base(path),
		Name: facematch.DisplayName(path),
	}
	skip := func(err error) (Outcome, facematch.Identity) {
		outcome.Skipped = true
		outcome.Reason = err
		return outcome, facematch.Identity{}
	}

	if outcome.Name == "" {
		return skip(ErrNoName)
	}

	img, err := imageutil.LoadRGB(path)
	if err != nil {
		return skip(err)
	}
	outcome.Fingerprint = fingerprint.Compute(img)

	regions, err := detector.Detect(img)
	if err != nil {
		return skip(fmt.Errorf("detecting faces: %w", err))
	}
	outcome.Faces = len(regions)
	if len(regions) == 0 {
		return skip(ErrNoFace)
	}

	descriptors, err := encoder.Encode(img, regions[:1])
	if err != nil {
		return skip(fmt.Errorf("encoding face: %w", err))
	}
	if len(descriptors) == 0 || len(descriptors[0]) == 0 {
		return skip(fmt.Errorf("encoding face: %w", ErrNoFace))
	}

	return outcome, facematch.Identity{Name: outcome.Name, Descriptor: descriptors[0]}
}

// duplicateOf returns the first loaded file whose picture matches h.
func (r *Registry) duplicateOf(h fingerprint.Hash) string {
	for _, o := range r.outcomes {
		if !o.Skipped && fingerprint.NearDuplicate(o.Fingerprint, h, fingerprint.DuplicateThreshold) {
			return o.File
		}
	}
	return ""
}

// Dir returns the enrollment directory the registry was loaded from.
func (r *Registry) Dir() string {
	return r.dir
}

// Created reports whether Load had to create the enrollment directory.
func (r *Registry) Created() bool {
	return r.created
}

// Len returns the number of loaded identities.
func (r *Registry) Len() int {
	return len(r.names)
}

// Names returns the display names in discovery order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Outcomes returns one entry per candidate file, loaded or skipped.
func (r *Registry) Outcomes() []Outcome {
	return slices.Clone(r.outcomes)
}

// Skipped returns only the outcomes of skipped files.
func (r *Registry) Skipped() []Outcome {
	var skipped []Outcome
	for _, o := range r.outcomes {
		if o.Skipped {
			skipped = append(skipped, o)
		}
	}
	return skipped
}

// Identify matches a detected face against the registry.
func (r *Registry) Identify(face facematch.DetectedFace, tolerance float64) facematch.MatchResult {
	return facematch.Identify(r.names, r.known, face, tolerance)
}
