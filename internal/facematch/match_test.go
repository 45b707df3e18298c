package facematch

import (
	"math"
	"testing"
)

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        Descriptor
		b        Descriptor
		expected float64
	}{
		{"identical", Descriptor{1, 2, 3}, Descriptor{1, 2, 3}, 0},
		{"three four five", Descriptor{0, 0}, Descriptor{3, 4}, 5},
		{"single dimension", Descriptor{0.5}, Descriptor{0.2}, 0.3},
		{"length mismatch", Descriptor{1, 2}, Descriptor{1}, math.Inf(1)},
		{"empty", Descriptor{}, Descriptor{}, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EuclideanDistance(tt.a, tt.b)
			if math.IsInf(tt.expected, 1) {
				if !math.IsInf(result, 1) {
					t.Errorf("EuclideanDistance() = %v, want +Inf", result)
				}
				return
			}
			if math.Abs(result-tt.expected) > 1e-6 {
				t.Errorf("EuclideanDistance() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestFaceDistances(t *testing.T) {
	known := []Descriptor{{0, 0}, {3, 4}, {0, 1}}
	distances := FaceDistances(known, Descriptor{0, 0})

	expected := []float64{0, 5, 1}
	if len(distances) != len(expected) {
		t.Fatalf("expected %d distances, got %d", len(expected), len(distances))
	}
	for i := range expected {
		if math.Abs(distances[i]-expected[i]) > 1e-6 {
			t.Errorf("distances[%d] = %v, want %v", i, distances[i], expected[i])
		}
	}

	if got := FaceDistances(nil, Descriptor{1}); len(got) != 0 {
		t.Errorf("expected no distances for empty known set, got %v", got)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		known     []Descriptor
		query     Descriptor
		tolerance float64
		wantIndex int
	}{
		{
			name:      "empty known set",
			known:     nil,
			query:     Descriptor{0},
			tolerance: 100,
			wantIndex: -1,
		},
		{
			name:      "nearest within tolerance",
			known:     []Descriptor{{1.0}, {0.2}, {0.9}},
			query:     Descriptor{0},
			tolerance: 0.5,
			wantIndex: 1,
		},
		{
			name:      "all beyond tolerance",
			known:     []Descriptor{{1.0}, {0.8}},
			query:     Descriptor{0},
			tolerance: 0.5,
			wantIndex: -1,
		},
		{
			name:      "tie resolves to first occurrence",
			known:     []Descriptor{{0.3}, {-0.3}},
			query:     Descriptor{0},
			tolerance: 0.5,
			wantIndex: 0,
		},
		{
			name:      "distance equal to tolerance is accepted",
			known:     []Descriptor{{0.5}},
			query:     Descriptor{0},
			tolerance: 0.5,
			wantIndex: 0,
		},
		{
			name:      "dimension mismatch never matches",
			known:     []Descriptor{{0, 0}},
			query:     Descriptor{0},
			tolerance: 10,
			wantIndex: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, _ := Match(tt.known, tt.query, tt.tolerance)
			if idx != tt.wantIndex {
				t.Errorf("Match() index = %d, want %d", idx, tt.wantIndex)
			}
		})
	}
}

func TestMatch_ReturnsNearestDistanceWhenRejected(t *testing.T) {
	idx, dist := Match([]Descriptor{{2}, {1}}, Descriptor{0}, 0.5)
	if idx != -1 {
		t.Fatalf("expected rejection, got index %d", idx)
	}
	if math.Abs(dist-1) > 1e-6 {
		t.Errorf("expected nearest distance 1, got %v", dist)
	}
}

func TestIdentify(t *testing.T) {
	names := []string{"Ada lovelace", "Grace hopper"}
	known := []Descriptor{{0.3, 0}, {0, 0.3}}

	t.Run("tie picks first identity", func(t *testing.T) {
		result := Identify(names, known, DetectedFace{Descriptor: Descriptor{0, 0}}, 0.5)
		if result.Name != "Ada lovelace" || result.Index != 0 || !result.Known() {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("far query is unknown", func(t *testing.T) {
		result := Identify(names, known, DetectedFace{Descriptor: Descriptor{5, 5}}, 0.5)
		if result.Name != Unknown || result.Known() {
			t.Errorf("expected unknown, got %+v", result)
		}
	})

	t.Run("no identities is unknown", func(t *testing.T) {
		result := Identify(nil, nil, DetectedFace{Descriptor: Descriptor{0, 0}}, 100)
		if result.Name != Unknown {
			t.Errorf("expected unknown, got %q", result.Name)
		}
	})

	t.Run("face is carried through", func(t *testing.T) {
		face := DetectedFace{Region: Region{Top: 1, Right: 2, Bottom: 3, Left: 0}, Descriptor: Descriptor{0, 0.3}}
		result := Identify(names, known, face, 0.5)
		if result.Face.Region != face.Region || result.Name != "Grace hopper" {
			t.Errorf("unexpected result: %+v", result)
		}
	})
}
