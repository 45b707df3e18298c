// Package overlay draws face boxes and name labels onto camera frames for display.
package overlay

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

const (
	lineWidth   = 2
	labelHeight = 20
	labelPadX   = 6
	labelPadY   = 6
)

var (
	knownColor   = color.RGBA{0, 200, 0, 255}
	unknownColor = color.RGBA{255, 0, 0, 255}
	textColor    = color.RGBA{255, 255, 255, 255}
)

// Label is one face box to draw, in full-resolution frame coordinates.
type Label struct {
	Region facematch.Region
	Name   string
}

// Text returns the caption drawn under the box.
func (l Label) Text() string {
	if l.Name == facematch.Unknown || l.Name == "" {
		return facematch.Unknown
	}
	return l.Name + " Present"
}

// LabelsFromMatches converts match results found on a frame downsampled by
// scaleFactor into labels in the original frame's coordinate space.
func LabelsFromMatches(matches []facematch.MatchResult, scaleFactor int) []Label {
	labels := make([]Label, len(matches))
	for i, m := range matches {
		labels[i] = Label{
			Region: m.Face.Region.Scale(scaleFactor),
			Name:   m.Name,
		}
	}
	return labels
}

// Render returns a copy of frame with every label drawn on it.
func Render(frame image.Image, labels []Label) *image.RGBA {
	bounds := frame.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, frame, bounds.Min, draw.Src)

	for _, l := range labels {
		c := knownColor
		if l.Name == facematch.Unknown || l.Name == "" {
			c = unknownColor
		}
		drawBox(dst, l.Region, c)
		drawCaption(dst, l.Region, l.Text(), c)
	}
	return dst
}

// drawHLine draws a horizontal line on the image.
func drawHLine(dst *image.RGBA, x1, x2, y int, c color.RGBA) {
	bounds := dst.Bounds()
	if y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	for x := x1; x <= x2; x++ {
		if x >= bounds.Min.X && x < bounds.Max.X {
			dst.SetRGBA(x, y, c)
		}
	}
}

// drawVLine draws a vertical line on the image.
func drawVLine(dst *image.RGBA, y1, y2, x int, c color.RGBA) {
	bounds := dst.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X {
		return
	}
	for y := y1; y <= y2; y++ {
		if y >= bounds.Min.Y && y < bounds.Max.Y {
			dst.SetRGBA(x, y, c)
		}
	}
}

// drawBox draws the outline of a region.
func drawBox(dst *image.RGBA, r facematch.Region, c color.RGBA) {
	for w := range lineWidth {
		drawHLine(dst, r.Left, r.Right, r.Top+w, c)
		drawHLine(dst, r.Left, r.Right, r.Bottom-w, c)
		drawVLine(dst, r.Top, r.Bottom, r.Left+w, c)
		drawVLine(dst, r.Top, r.Bottom, r.Right-w, c)
	}
}

// drawCaption fills a band along the bottom edge of the region and writes text into it.
func drawCaption(dst *image.RGBA, r facematch.Region, text string, c color.RGBA) {
	band := image.Rect(r.Left, r.Bottom-labelHeight, r.Right+1, r.Bottom+1).Intersect(dst.Bounds())
	if band.Empty() {
		return
	}
	draw.Draw(dst, band, image.NewUniform(c), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(r.Left+labelPadX, r.Bottom-labelPadY),
	}
	d.DrawString(text)
}
