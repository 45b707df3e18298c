package camera

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Window shows frames on screen and watches for the quit key.
type Window struct {
	win     *gocv.Window
	quitKey int
}

// NewWindow opens a window with the given title.
func NewWindow(title string, quitKey rune) *Window {
	return &Window{
		win:     gocv.NewWindow(title),
		quitKey: int(quitKey),
	}
}

// Show draws frame and polls the keyboard for 1ms. It reports true once the
// quit key is pressed.
func (w *Window) Show(frame image.Image) (bool, error) {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return false, fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	w.win.IMShow(mat)
	key := w.win.WaitKey(1)
	return key&0xff == w.quitKey, nil
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
