// Package imageutil decodes enrollment photos and camera frames into a uniform
// 8-bit RGB representation and provides the resizing used for detection.
package imageutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when image data cannot be decoded.
var ErrDecode = errors.New("failed to decode image")

// Decode decodes image data in any registered format and returns the format name.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, format, nil
}

// LoadRGB reads an image file, applies its EXIF orientation and converts it to
// opaque 8-bit RGB so that detectors never see exotic pixel formats or bit depths.
func LoadRGB(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return DecodeRGB(data)
}

// DecodeRGB is LoadRGB for in-memory data.
func DecodeRGB(data []byte) (*image.RGBA, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return ToRGB(ApplyOrientation(img, Orientation(data))), nil
}

// ToRGB converts any image to an *image.RGBA with every pixel fully opaque.
// Transparent areas are flattened onto white; 16-bit channels are reduced to 8 bits.
func ToRGB(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	return dst
}

// Downsample shrinks an image by an integer factor for detection.
// A factor of 1 or less returns the image converted to RGB at full size.
func Downsample(img image.Image, factor int) *image.RGBA {
	if factor <= 1 {
		if rgba, ok := img.(*image.RGBA); ok {
			return rgba
		}
		return ToRGB(img)
	}

	bounds := img.Bounds()
	width := max(bounds.Dx()/factor, 1)
	height := max(bounds.Dy()/factor, 1)

	// Bilinear keeps per-frame cost low; detection does not need CatmullRom quality.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

// Fit resizes an image to fit within maxSize (width or height) while keeping aspect ratio.
// Images already within bounds are returned unchanged.
func Fit(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Check if resizing is needed.
	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return img
	}

	// Calculate new dimensions.
	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = int(float64(height) * float64(maxSize) / float64(width))
	} else {
		newHeight = maxSize
		newWidth = int(float64(width) * float64(maxSize) / float64(height))
	}

	resized := image.NewRGBA(image.Rect(0, 0, max(newWidth, 1), max(newHeight, 1)))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}

// EncodeJPEG encodes an image as JPEG with the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
