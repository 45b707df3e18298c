package facematch

import "image"

// Region is a face bounding box in pixel coordinates, stored in the
// (top, right, bottom, left) order used by the face backends.
type Region struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// RegionFromRect converts an image.Rectangle to a Region.
func RegionFromRect(r image.Rectangle) Region {
	return Region{
		Top:    r.Min.Y,
		Right:  r.Max.X,
		Bottom: r.Max.Y,
		Left:   r.Min.X,
	}
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// Scale maps a region found on an image downsampled by factor back to the
// coordinate space of the original image.
func (r Region) Scale(factor int) Region {
	if factor <= 1 {
		return r
	}
	return Region{
		Top:    r.Top * factor,
		Right:  r.Right * factor,
		Bottom: r.Bottom * factor,
		Left:   r.Left * factor,
	}
}

// ComputeIoU calculates Intersection over Union between two regions.
func ComputeIoU(a, b Region) float64 {
	// Calculate intersection.
	x1 := max(a.Left, b.Left)
	y1 := max(a.Top, b.Top)
	x2 := min(a.Right, b.Right)
	y2 := min(a.Bottom, b.Bottom)

	if x2 <= x1 || y2 <= y1 {
		return 0 // No intersection
	}

	intersection := float64((x2 - x1) * (y2 - y1))

	// Calculate union.
	areaA := float64((a.Right - a.Left) * (a.Bottom - a.Top))
	areaB := float64((b.Right - b.Left) * (b.Bottom - b.Top))
	union := areaA + areaB - intersection

	if union <= 0 {
		return 0
	}

	return intersection / union
}

// BestOverlap returns the index of the candidate with the highest IoU against target,
// or -1 when no candidate overlaps it at all.
func BestOverlap(target Region, candidates []Region) int {
	best := -1
	bestIoU := 0.0
	for i, c := range candidates {
		if iou := ComputeIoU(target, c); iou > bestIoU {
			bestIoU = iou
			best = i
		}
	}
	return best
}
