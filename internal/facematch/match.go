package facematch

import "math"

// EuclideanDistance computes the Euclidean distance between two descriptors.
// Descriptors of different or zero length are infinitely far apart.
func EuclideanDistance(a, b Descriptor) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// FaceDistances returns the distance from q to every known descriptor, in order.
func FaceDistances(known []Descriptor, q Descriptor) []float64 {
	distances := make([]float64, len(known))
	for i, d := range known {
		distances[i] = EuclideanDistance(d, q)
	}
	return distances
}

// Match returns the index of the known descriptor nearest to q together with its
// distance. The first occurrence wins on ties. The index is -1 when known is empty
// or when the nearest distance exceeds tolerance (a match requires distance <= tolerance).
func Match(known []Descriptor, q Descriptor, tolerance float64) (int, float64) {
	if len(known) == 0 {
		return -1, math.Inf(1)
	}

	distances := FaceDistances(known, q)
	best := 0
	for i := 1; i < len(distances); i++ {
		if distances[i] < distances[best] {
			best = i
		}
	}

	if !(distances[best] <= tolerance) {
		return -1, distances[best]
	}
	return best, distances[best]
}

// Identify matches a detected face against known and names the result. names is
// index-aligned with known.
func Identify(names []string, known []Descriptor, face DetectedFace, tolerance float64) MatchResult {
	idx, dist := Match(known, face.Descriptor, tolerance)
	result := MatchResult{
		Face:     face,
		Name:     Unknown,
		Index:    idx,
		Distance: dist,
	}
	if idx >= 0 {
		result.Name = names[idx]
	}
	return result
}
