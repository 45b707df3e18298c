// Package facematch provides face descriptors, bounding box geometry and nearest-identity
// matching shared by the enrollment registry and the live session loop.
package facematch

import "image"

// Unknown is the label given to a face that matched no known identity.
const Unknown = "Unknown"

// Descriptor is a fixed-length numeric vector describing a detected face.
type Descriptor []float32

// Identity is one enrolled person: a display name and the descriptor of its reference face.
type Identity struct {
	Name       string
	Descriptor Descriptor
}

// DetectedFace is a face found in a single processed frame.
type DetectedFace struct {
	Region     Region
	Descriptor Descriptor
}

// MatchResult is the outcome of matching one detected face against the known identities.
type MatchResult struct {
	Face     DetectedFace
	Name     string  // Unknown when no identity was accepted
	Index    int     // index into the known identities, -1 when unknown
	Distance float64 // distance to the nearest identity (+Inf when none are known)
}

// Known reports whether the face was matched to an enrolled identity.
func (m MatchResult) Known() bool {
	return m.Index >= 0
}

// Detector finds face regions in an image.
type Detector interface {
	Detect(img image.Image) ([]Region, error)
}

// Encoder computes one descriptor per region, in the order the regions were given.
type Encoder interface {
	Encode(img image.Image, regions []Region) ([]Descriptor, error)
}
