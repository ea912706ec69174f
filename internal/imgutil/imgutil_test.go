package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// pngBytes encodes a solid-color image of the given size as PNG.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	img, err := Decode(pngBytes(t, 4, 3))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 4 || bounds.Dy() != 3 {
		t.Errorf("expected 4x3, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestDecodeEmpty(t *testing.T) {
	if _, err := Decode(nil); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("not an image at all")); err == nil {
		t.Error("expected error for non-image data")
	}
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.png")
	if err := os.WriteFile(path, pngBytes(t, 2, 2), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	img, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("decode file: %v", err)
	}
	if img.Bounds().Dx() != 2 {
		t.Errorf("expected width 2, got %d", img.Bounds().Dx())
	}
}

func TestDecodeFileMissing(t *testing.T) {
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFitToWithinBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))

	got := FitTo(img, 100, 100)
	if got != img {
		t.Error("image within bounds should be returned unchanged")
	}
}

func TestFitToOversized(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 100))

	got := FitTo(img, 200, 200)
	bounds := got.Bounds()
	if bounds.Dx() != 200 {
		t.Errorf("expected width 200, got %d", bounds.Dx())
	}
	// Aspect ratio preserved: 400x100 -> 200x50.
	if bounds.Dy() != 50 {
		t.Errorf("expected height 50, got %d", bounds.Dy())
	}
}

func TestFitToUnboundedAxis(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 100))

	got := FitTo(img, 200, 0)
	if got.Bounds().Dx() != 200 {
		t.Errorf("expected width 200, got %d", got.Bounds().Dx())
	}
}

func TestFitToNil(t *testing.T) {
	if FitTo(nil, 10, 10) != nil {
		t.Error("expected nil for nil image")
	}
}
