package imgutil

import (
	"bytes"
	"errors"
	"image"
	"os"

	// Standard library formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"

	// Extended formats register themselves with image.Decode.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrEmptyData indicates there were no bytes to decode.
var ErrEmptyData = errors.New("no image data")

// DecodeFunc is the decode capability consumed by the preview engine.
type DecodeFunc func(data []byte) (image.Image, error)

// Decode decodes raw image bytes using every registered format.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	return img, nil
}

// DecodeFile reads and decodes a local image file.
func DecodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Decode(data)
}

// FitTo scales img down to fit within maxWidth x maxHeight, preserving
// aspect ratio. Images already within bounds are returned unchanged.
// Non-positive bounds disable fitting on that axis.
func FitTo(img image.Image, maxWidth, maxHeight int) image.Image {
	if img == nil {
		return nil
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	fitW := maxWidth > 0 && w > maxWidth
	fitH := maxHeight > 0 && h > maxHeight
	if !fitW && !fitH {
		return img
	}

	if maxWidth <= 0 {
		maxWidth = w
	}
	if maxHeight <= 0 {
		maxHeight = h
	}

	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
}
