package imageutil

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrUnsupported is returned for image formats no available decoder handles (HEIC/HEIF).
var ErrUnsupported = errors.New("unsupported image format")

// ErrOutputExists is returned when normalizing would overwrite a different file.
var ErrOutputExists = errors.New("output file already exists")

// NormalizeExtensions are the formats Normalize converts.
var NormalizeExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".bmp", ".tif", ".tiff"}

// unsupportedExtensions are reported instead of silently ignored.
var unsupportedExtensions = []string{".heic", ".heif"}

// NormalizeOptions control Normalize.
type NormalizeOptions struct {
	Quality       int  // JPEG quality
	MaxSize       int  // longest side in pixels, 0 keeps the original size
	KeepOriginals bool // keep non-JPEG sources after conversion
}

// NormalizeResult is the outcome for one file.
type NormalizeResult struct {
	Source  string
	Output  string
	Removed bool // the source was deleted after conversion
	Err     error
}

// Converted reports whether the output is a different file than the source.
func (r NormalizeResult) Converted() bool {
	return r.Err == nil && r.Output != r.Source
}

// NormalizeCandidates lists the files in dir that Normalize should visit, sorted by name.
// HEIC/HEIF files are included so that they can be reported as unsupported.
func NormalizeCandidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if slices.Contains(NormalizeExtensions, ext) || slices.Contains(unsupportedExtensions, ext) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

// NormalizePath returns where Normalize writes the JPEG for path. Files that
// already carry a .jpg extension, in any case, are rewritten in place.
func NormalizePath(path string) string {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, ".jpg") {
		return path
	}
	return strings.TrimSuffix(path, ext) + ".jpg"
}

// Normalize rewrites the image at path as an upright, opaque 8-bit RGB JPEG next
// to it. The write goes through a temporary file so a failure never leaves a
// truncated image behind.
func Normalize(path string, opts NormalizeOptions) NormalizeResult {
	res := NormalizeResult{Source: path, Output: NormalizePath(path)}
	fail := func(err error) NormalizeResult {
		res.Err = err
		return res
	}

	ext := strings.ToLower(filepath.Ext(path))
	if slices.Contains(unsupportedExtensions, ext) {
		return fail(fmt.Errorf("%w: %s", ErrUnsupported, ext))
	}

	if res.Output != path {
		if _, err := os.Stat(res.Output); err == nil {
			return fail(fmt.Errorf("%w: %s", ErrOutputExists, filepath.Base(res.Output)))
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(fmt.Errorf("reading %s: %w", path, err))
	}
	rgb, err := DecodeRGB(data)
	if err != nil {
		return fail(err)
	}

	var out image.Image = rgb
	if opts.MaxSize > 0 {
		out = Fit(rgb, opts.MaxSize)
	}
	encoded, err := EncodeJPEG(out, opts.Quality)
	if err != nil {
		return fail(err)
	}

	if err := writeAtomic(res.Output, encoded); err != nil {
		return fail(err)
	}

	if res.Output != path && !opts.KeepOriginals {
		if err := os.Remove(path); err != nil {
			return fail(fmt.Errorf("removing original: %w", err))
		}
		res.Removed = true
	}
	return res
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".normalize-*.jpg")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
