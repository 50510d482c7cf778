package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// SupportedFormats lists the image formats accepted as a source.
var SupportedFormats = []string{"png", "jpeg", "gif", "webp", "bmp"}

// Sniff inspects the header of data and returns its image format. Data that
// does not look like a supported image yields ErrUnsupportedInput.
func Sniff(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrUnsupportedInput
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return "", ErrUnsupportedInput
		}
		return "", fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	for _, f := range SupportedFormats {
		if strings.EqualFold(f, format) {
			return format, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedInput, format)
}

// Decode rasterises encoded image data into an RGBA image with a zero origin.
func Decode(data []byte) (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedInput
		}
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return toRGBA(img), nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
