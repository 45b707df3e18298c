// Package fingerprint computes perceptual hashes of enrollment photos so that the
// same picture saved under two names can be reported.
package fingerprint

import (
	"fmt"
	"image"
	"math"
	"math/bits"
	"slices"

	"golang.org/x/image/draw"
)

// DuplicateThreshold is the Hamming distance up to which two photos count as the same picture.
const DuplicateThreshold = 6

// Hash holds a 64-bit perceptual hash (DCT based) and a 64-bit difference hash of an image.
type Hash struct {
	P uint64
	D uint64
}

// String formats the hash as "phash:dhash" in hex.
func (h Hash) String() string {
	return fmt.Sprintf("%016x:%016x", h.P, h.D)
}

// Compute hashes an image.
func Compute(img image.Image) Hash {
	return Hash{
		P: computePHash(img),
		D: computeDHash(img),
	}
}

// HammingDistance computes the Hamming distance between two 64-bit hashes.
func HammingDistance(hash1, hash2 uint64) int {
	return bits.OnesCount64(hash1 ^ hash2)
}

// NearDuplicate reports whether both hashes of a and b are within threshold.
// Requiring both keeps two different faces on the same plain background apart.
func NearDuplicate(a, b Hash, threshold int) bool {
	return HammingDistance(a.P, b.P) <= threshold && HammingDistance(a.D, b.D) <= threshold
}

// computePHash computes a 64-bit perceptual hash using DCT.
func computePHash(img image.Image) uint64 {
	gray := toGrayscale(resizeImage(img, 32, 32))
	dct := computeDCT(gray)

	// Top-left 8x8 low frequencies without the DC term, padded from the next row.
	lowFreq := make([]float64, 0, 64)
	for u := range 8 {
		for v := range 8 {
			if u == 0 && v == 0 {
				continue
			}
			lowFreq = append(lowFreq, dct[u][v])
		}
	}
	lowFreq = append(lowFreq, dct[8][0])

	median := computeMedian(lowFreq)

	var hash uint64
	for i, v := range lowFreq {
		if v > median {
			hash |= 1 << (63 - i)
		}
	}
	return hash
}

// computeDHash computes a 64-bit difference hash over a 9x8 thumbnail.
func computeDHash(img image.Image) uint64 {
	gray := toGrayscale(resizeImage(img, 9, 8))

	var hash uint64
	bit := 63
	for y := range 8 {
		for x := range 8 {
			if gray[x][y] > gray[x+1][y] {
				hash |= 1 << bit
			}
			bit--
		}
	}
	return hash
}

func resizeImage(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// toGrayscale converts an image to a [x][y] array of luma values (0-255).
func toGrayscale(img *image.RGBA) [][]float64 {
	bounds := img.Bounds()
	gray := make([][]float64, bounds.Dx())
	for x := range gray {
		gray[x] = make([]float64, bounds.Dy())
		for y := range gray[x] {
			c := img.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			// ITU-R BT.601
			gray[x][y] = 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
		}
	}
	return gray
}

// computeDCT computes the 2D DCT-II of a square grayscale image.
func computeDCT(gray [][]float64) [][]float64 {
	size := len(gray)

	cosTable := make([][]float64, size)
	for i := range cosTable {
		cosTable[i] = make([]float64, size)
		for j := range size {
			cosTable[i][j] = math.Cos(math.Pi * float64(i) * (2*float64(j) + 1) / (2 * float64(size)))
		}
	}

	dct := make([][]float64, size)
	for u := range size {
		dct[u] = make([]float64, size)
		for v := range size {
			var sum float64
			for x := range size {
				for y := range size {
					sum += gray[x][y] * cosTable[u][x] * cosTable[v][y]
				}
			}
			dct[u][v] = sum
		}
	}
	return dct
}

func computeMedian(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
