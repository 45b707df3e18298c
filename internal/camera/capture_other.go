//go:build !darwin

package camera

import "gocv.io/x/gocv"

func openCapture(device int) (*gocv.VideoCapture, error) {
	return gocv.OpenVideoCapture(device)
}
