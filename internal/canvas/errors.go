package canvas

import "errors"

var (
	// ErrUnsupportedInput reports data that is not a recognised image.
	ErrUnsupportedInput = errors.New("unsupported input: not image data")
	// ErrDecodeFailure reports image data that could not be rasterised.
	ErrDecodeFailure = errors.New("image decode failed")
	// ErrDegenerateGeometry reports a region too small to act on.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrNoSource is returned when an operation needs a source image.
	ErrNoSource = errors.New("no source image")
	// ErrDecodePending is returned when the source is still being decoded.
	ErrDecodePending = errors.New("image is still loading")
	// ErrNoCropRegion is returned by ConfirmCrop when nothing is selected.
	ErrNoCropRegion = errors.New("no crop region selected")
	// ErrStaleDecode is returned when a decode result belongs to a source
	// that has since been replaced.
	ErrStaleDecode = errors.New("decode result is stale")
)
