package canvas

import (
	"fmt"
	"image"
)

// CropResult is the output of ExecuteCrop.
type CropResult struct {
	// Image holds the cropped pixels at the source's native resolution.
	Image *image.RGBA
	// Data is Image encoded as PNG, ready to become the next source.
	Data []byte
	// SourceRect is the region of the original source that was copied.
	SourceRect image.Rectangle
}

// ExecuteCrop maps region from logical space back to the pixels of the
// encoded source and copies that sub-rectangle into a new image. The fit is
// recomputed from the source's own dimensions. The region is clipped to the
// logical canvas first; parts of it that fall in the letterbox come out
// transparent. A region that misses the source entirely is degenerate.
func ExecuteCrop(data []byte, region Rect, logical Size) (CropResult, error) {
	if len(data) == 0 {
		return CropResult{}, ErrNoSource
	}
	src, err := Decode(data)
	if err != nil {
		return CropResult{}, err
	}
	region = region.Intersect(Rect{Width: logical.Width, Height: logical.Height})
	if region.Empty() {
		return CropResult{}, ErrDegenerateGeometry
	}
	fit := FitImage(src, logical)
	if !fit.Valid() {
		return CropResult{}, ErrDegenerateGeometry
	}
	rect := LogicalToSource(region, fit).Pixels()
	if rect.Intersect(src.Bounds()).Empty() {
		return CropResult{}, fmt.Errorf("%w: crop region does not cover the image", ErrDegenerateGeometry)
	}
	out := cropImage(src, rect)
	encoded, err := EncodePNG(out)
	if err != nil {
		return CropResult{}, err
	}
	return CropResult{Image: out, Data: encoded, SourceRect: rect}, nil
}
