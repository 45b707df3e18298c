package registry

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/imageutil"
)

// fakeBackend detects as many faces as the red channel of the top-left pixel says,
// and encodes each region as {left, green channel of the top-left pixel}.
type fakeBackend struct {
	detectErr error
	encodeErr error
	encoded   int
}

func (f *fakeBackend) Detect(img image.Image) ([]facematch.Region, error) {
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	r, _, _, _ := img.At(0, 0).RGBA()
	n := int(r >> 8)
	regions := make([]facematch.Region, n)
	for i := range regions {
		regions[i] = facematch.Region{Top: 0, Left: i * 10, Right: i*10 + 5, Bottom: 5}
	}
	return regions, nil
}

func (f *fakeBackend) Encode(img image.Image, regions []facematch.Region) ([]facematch.Descriptor, error) {
	if f.encodeErr != nil {
		return nil, f.encodeErr
	}
	f.encoded += len(regions)
	_, g, _, _ := img.At(0, 0).RGBA()
	out := make([]facematch.Descriptor, len(regions))
	for i, r := range regions {
		out[i] = facematch.Descriptor{float32(r.Left), float32(g >> 8)}
	}
	return out, nil
}

// writeFace writes a PNG whose top-left pixel encodes the face count and a marker value.
func writeFace(t *testing.T, dir, name string, faces, marker uint8) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(0, 0, color.RGBA{R: faces, G: marker, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_CreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "faces")
	backend := &fakeBackend{}

	reg, err := Load(context.Background(), dir, backend, backend)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !reg.Created() {
		t.Error("expected Created() to be true")
	}
	if reg.Len() != 0 {
		t.Errorf("expected empty registry, got %d identities", reg.Len())
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("expected directory to exist, stat error: %v", err)
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "faces")

	created, err := EnsureDir(dir)
	if err != nil || !created {
		t.Fatalf("first EnsureDir() = %v, %v; want true, nil", created, err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory to exist, stat error: %v", err)
	}

	created, err = EnsureDir(dir)
	if err != nil || created {
		t.Errorf("second EnsureDir() = %v, %v; want false, nil", created, err)
	}

	// A directory created up front loads as an existing, empty one.
	reg, err := Load(context.Background(), dir, &fakeBackend{}, &fakeBackend{})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if reg.Created() || reg.Len() != 0 {
		t.Errorf("expected existing empty registry, got created=%v len=%d", reg.Created(), reg.Len())
	}
}

func TestLoad_SkipsUnreadableAndKeepsValid(t *testing.T) {
	dir := t.TempDir()
	writeFace(t, dir, "ada_lovelace.png", 1, 7)
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	backend := &fakeBackend{}

	reg, err := Load(context.Background(), dir, backend, backend)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if reg.Len() != 1 {
		t.Fatalf("expected 1 identity, got %d", reg.Len())
	}
	if reg.Names()[0] != "Ada lovelace" {
		t.Errorf("expected name 'Ada lovelace', got %q", reg.Names()[0])
	}

	skipped := reg.Skipped()
	if len(skipped) != 1 {
		t.Fatalf("expected 1 skipped file, got %d", len(skipped))
	}
	if skipped[0].File != "broken.jpg" {
		t.Errorf("expected broken.jpg to be skipped, got %s", skipped[0].File)
	}
	if !errors.Is(skipped[0].Reason, imageutil.ErrDecode) {
		t.Errorf("expected ErrDecode skip reason, got %v", skipped[0].Reason)
	}
	if len(reg.Outcomes()) != 2 {
		t.Errorf("expected 2 outcomes, got %d", len(reg.Outcomes()))
	}
}

func TestLoad_SkipsImagesWithoutFaces(t *testing.T) {
	dir := t.TempDir()
	writeFace(t, dir, "empty_room.png", 0, 0)
	writeFace(t, dir, "grace-hopper.png", 1, 3)
	backend := &fakeBackend{}

	reg, err := Load(context.Background(), dir, backend, backend)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if reg.Len() != 1 || reg.Names()[0] != "Grace hopper" {
		t.Fatalf("unexpected identities: %v", reg.Names())
	}
	skipped := reg.Skipped()
	if len(skipped) != 1 || !errors.Is(skipped[0].Reason, ErrNoFace) {
		t.Errorf("expected ErrNoFace skip, got %+v", skipped)
	}
}

func TestLoad_EnrollsOnlyFirstFace(t *testing.T) {
	dir := t.TempDir()
	writeFace(t, dir, "group.png", 3, 9)
	backend := &fakeBackend{}

	reg, err := Load(context.Background(), dir, backend, backend)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if reg.Len() != 1 {
		t.Fatalf("expected 1 identity, got %d", reg.Len())
	}
	if backend.encoded != 1 {
		t.Errorf("expected exactly one region to be encoded, got %d", backend.encoded)
	}
	if d := reg.known[0]; d[0] != 0 || d[1] != 9 {
		t.Errorf("expected descriptor of first region, got %v", d)
	}
	if reg.Outcomes()[0].Faces != 3 {
		t.Errorf("expected outcome to report 3 faces, got %d", reg.Outcomes()[0].Faces)
	}
}

func TestLoad_IgnoresUnacceptedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFace(t, dir, "alan.png", 1, 1)
	writeFace(t, dir, "notes.txt", 1, 1)
	writeFace(t, dir, "photo.webp", 1, 1)
	if err := os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}
	backend := &fakeBackend{}

	reg, err := Load(context.Background(), dir, backend, backend)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(reg.Outcomes()) != 1 {
		t.Errorf("expected only alan.png to be considered, got %+v", reg.Outcomes())
	}
}

func TestLoad_OrderAndIndexAlignment(t *testing.T) {
	dir := t.TempDir()
	writeFace(t, dir, "charlie.png", 1, 3)
	writeFace(t, dir, "alice.PNG", 1, 1)
	writeFace(t, dir, "bob.jpeg", 1, 2) // PNG data behind a .jpeg name still decodes
	backend := &fakeBackend{}

	reg, err := Load(context.Background(), dir, backend, backend)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	names := reg.Names()
	descriptors := reg.known
	expected := []string{"Alice", "Bob", "Charlie"}
	if len(names) != len(expected) {
		t.Fatalf("expected %d names, got %v", len(expected), names)
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("names[%d] = %q, want %q", i, names[i], name)
		}
		if descriptors[i][1] != float32(i+1) {
			t.Errorf("descriptors[%d] not aligned with %q: %v", i, name, descriptors[i])
		}
	}
}

func TestLoad_BackendErrorsAreSkips(t *testing.T) {
	dir := t.TempDir()
	writeFace(t, dir, "ada.png", 1, 1)

	t.Run("detect", func(t *testing.T) {
		backend := &fakeBackend{detectErr: errors.New("boom")}
		reg, err := Load(context.Background(), dir, backend, backend)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if reg.Len() != 0 || len(reg.Skipped()) != 1 {
			t.Errorf("expected detection failure to be a skip, got %+v", reg.Outcomes())
		}
	})

	t.Run("encode", func(t *testing.T) {
		backend := &fakeBackend{encodeErr: errors.New("boom")}
		reg, err := Load(context.Background(), dir, backend, backend)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if reg.Len() != 0 || len(reg.Skipped()) != 1 {
			t.Errorf("expected encoding failure to be a skip, got %+v", reg.Outcomes())
		}
	})
}

func TestLoad_Progress(t *testing.T) {
	dir := t.TempDir()
	writeFace(t, dir, "a.png", 1, 1)
	writeFace(t, dir, "b.png", 0, 0)
	backend := &fakeBackend{}

	var calls [][2]int
	_, err := Load(context.Background(), dir, backend, backend, WithProgress(func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(calls) != 2 || calls[1] != [2]int{2, 2} {
		t.Errorf("unexpected progress calls: %v", calls)
	}
}

func TestLoad_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFace(t, dir, "a.png", 1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	backend := &fakeBackend{}

	if _, err := Load(ctx, dir, backend, backend); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRegistry_Identify(t *testing.T) {
	dir := t.TempDir()
	writeFace(t, dir, "ada.png", 1, 1)
	writeFace(t, dir, "bob.png", 1, 2)
	backend := &fakeBackend{}

	reg, err := Load(context.Background(), dir, backend, backend)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	match := reg.Identify(facematch.DetectedFace{Descriptor: facematch.Descriptor{0, 2.1}}, 0.5)
	if match.Name != "Bob" {
		t.Errorf("expected Bob, got %q", match.Name)
	}

	miss := reg.Identify(facematch.DetectedFace{Descriptor: facematch.Descriptor{5, 5}}, 0.5)
	if miss.Name != facematch.Unknown {
		t.Errorf("expected Unknown, got %q", miss.Name)
	}
}

func TestIsAccepted(t *testing.T) {
	tests := map[string]bool{
		"a.jpg":  true,
		"a.JPEG": true,
		"a.png":  true,
		"a.webp": false,
		"a.heic": false,
		"a":      false,
	}
	for name, want := range tests {
		if got := IsAccepted(name); got != want {
			t.Errorf("IsAccepted(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestEnrolledNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"grace_hopper.png", "ada_lovelace.jpg", "ada-lovelace.jpeg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	names, err := EnrolledNames(dir)
	if err != nil {
		t.Fatalf("EnrolledNames() error: %v", err)
	}

	want := []string{"Ada lovelace", "Grace hopper"}
	if len(names) != len(want) {
		t.Fatalf("EnrolledNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestEnrolledNames_MissingDirectory(t *testing.T) {
	names, err := EnrolledNames(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("EnrolledNames() error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("EnrolledNames() = %v, want none", names)
	}
}

// writePicture writes a 64x64 PNG with a recognizable pattern and one face
// encoded in the top-left pixel.
func writePicture(t *testing.T, dir, name string, checker bool) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := range 64 {
		for x := range 64 {
			v := uint8(x * 4)
			if checker {
				v = 0
				if (x/8+y/8)%2 == 0 {
					v = 255
				}
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	img.SetRGBA(0, 0, color.RGBA{R: 1, G: 9, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_ReportsDuplicatePictures(t *testing.T) {
	dir := t.TempDir()
	writePicture(t, dir, "ada.png", false)
	writePicture(t, dir, "bob.png", true)
	writePicture(t, dir, "zoe.png", false)
	backend := &fakeBackend{}

	reg, err := Load(context.Background(), dir, backend, backend)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if reg.Len() != 3 {
		t.Fatalf("duplicates must still be enrolled, got %d identities", reg.Len())
	}
	outcomes := reg.Outcomes()
	if outcomes[0].DuplicateOf != "" || outcomes[1].DuplicateOf != "" {
		t.Errorf("unexpected duplicates: %+v", outcomes[:2])
	}
	if outcomes[2].DuplicateOf != "ada.png" {
		t.Errorf("zoe.png DuplicateOf = %q, want ada.png", outcomes[2].DuplicateOf)
	}
}
