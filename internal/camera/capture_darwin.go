package camera

import "gocv.io/x/gocv"

// The default backend on macOS is unreliable with built-in cameras.
func openCapture(device int) (*gocv.VideoCapture, error) {
	return gocv.OpenVideoCaptureWithAPI(device, gocv.VideoCaptureAVFoundation)
}
