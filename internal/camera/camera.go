// Package camera reads frames from a video capture device and shows annotated
// frames in a window, both through OpenCV (gocv).
package camera

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"gocv.io/x/gocv"
)

// ErrReadFrame is returned when the device yields no frame.
var ErrReadFrame = errors.New("failed to read frame from camera")

// Camera is an open capture device.
type Camera struct {
	device  int
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// Open opens the capture device with the given index.
func Open(device int) (*Camera, error) {
	capture, err := openCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("failed to open camera %d: device not available", device)
	}

	slog.Debug("camera opened", "device", device)
	return &Camera{
		device:  device,
		capture: capture,
		mat:     gocv.NewMat(),
	}, nil
}

// Read grabs the next frame. The returned image is owned by the caller.
func (c *Camera) Read() (image.Image, error) {
	if ok := c.capture.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, fmt.Errorf("%w: device %d", ErrReadFrame, c.device)
	}

	img, err := c.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFrame, err)
	}
	return img, nil
}

// Close releases the device.
func (c *Camera) Close() error {
	if err := c.mat.Close(); err != nil {
		return err
	}
	return c.capture.Close()
}
