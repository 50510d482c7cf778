// Package acquire turns files, data URLs, clipboard contents and screen
// captures into encoded source images for the canvas.
package acquire

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/visionlearn/internal/canvas"
	"github.com/example/visionlearn/internal/capture"
	"github.com/example/visionlearn/internal/clipboard"
)

// ErrPermissionDenied reports that the environment refused access to the
// screen or the clipboard.
var ErrPermissionDenied = errors.New("permission denied")

// maxSourceSize bounds how much is read from a file or reader.
const maxSourceSize = 64 << 20

// Kind identifies where a source came from.
type Kind int

const (
	KindFile Kind = iota
	KindDataURL
	KindClipboard
	KindCapture
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDataURL:
		return "data-url"
	case KindClipboard:
		return "clipboard"
	case KindCapture:
		return "capture"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Source is an encoded image that is known to have a supported header.
type Source struct {
	Data   []byte
	Format string
	Kind   Kind
	// Origin is a path or short description for messages.
	Origin string
}

// AllowedMIMETypes are accepted in data URLs.
var AllowedMIMETypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp", "image/bmp"}

var (
	readFileFn           = os.ReadFile
	readClipboardImageFn = clipboard.ReadImage
	readClipboardTextFn  = clipboard.ReadText
	captureScreenshotFn  = capture.Screenshot
)

func newSource(data []byte, kind Kind, origin string) (Source, error) {
	format, err := canvas.Sniff(data)
	if err != nil {
		return Source{}, err
	}
	return Source{Data: data, Format: format, Kind: kind, Origin: origin}, nil
}

// FromFile reads an image file.
func FromFile(path string) (Source, error) {
	data, err := readFileFn(path)
	if err != nil {
		return Source{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > maxSourceSize {
		return Source{}, fmt.Errorf("%w: %s is larger than %d bytes", canvas.ErrUnsupportedInput, path, maxSourceSize)
	}
	src, err := newSource(data, KindFile, path)
	if err != nil {
		return Source{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return src, nil
}

// FromReader reads an image from r, for example stdin.
func FromReader(r io.Reader, origin string) (Source, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSourceSize+1))
	if err != nil {
		return Source{}, fmt.Errorf("read %s: %w", origin, err)
	}
	if len(data) > maxSourceSize {
		return Source{}, fmt.Errorf("%w: %s is larger than %d bytes", canvas.ErrUnsupportedInput, origin, maxSourceSize)
	}
	return newSource(data, KindFile, origin)
}

// FromDataURL decodes a data:image/...;base64 URL.
func FromDataURL(s string) (Source, error) {
	data, err := DecodeDataURL(s)
	if err != nil {
		return Source{}, err
	}
	return newSource(data, KindDataURL, "data url")
}

// DecodeDataURL returns the payload of a base64 image data URL.
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return nil, fmt.Errorf("%w: not a data url", canvas.ErrUnsupportedInput)
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: data url has no payload", canvas.ErrUnsupportedInput)
	}
	params := strings.Split(meta, ";")
	if !isAllowedType(params[0]) {
		return nil, fmt.Errorf("%w: media type %q", canvas.ErrUnsupportedInput, params[0])
	}
	base64Encoded := false
	for _, p := range params[1:] {
		if strings.EqualFold(p, "base64") {
			base64Encoded = true
		}
	}
	if !base64Encoded {
		return nil, fmt.Errorf("%w: data url is not base64", canvas.ErrUnsupportedInput)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some producers strip the padding.
		if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
			return nil, fmt.Errorf("%w: %v", canvas.ErrUnsupportedInput, err)
		}
	}
	return data, nil
}

// EncodeDataURL renders data as a data URL of the given image format.
func EncodeDataURL(format string, data []byte) string {
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func isAllowedType(mediaType string) bool {
	for _, allowed := range AllowedMIMETypes {
		if strings.EqualFold(mediaType, allowed) {
			return true
		}
	}
	return false
}

// FromClipboard pastes the clipboard image. When the clipboard only holds
// text, a data URL or the path of an image file is accepted instead.
func FromClipboard() (Source, error) {
	data, err := readClipboardImageFn()
	if err == nil {
		return newSource(data, KindClipboard, "clipboard")
	}
	if !errors.Is(err, clipboard.ErrEmpty) {
		return Source{}, fmt.Errorf("paste clipboard image: %w: %v", ErrPermissionDenied, err)
	}
	text, terr := readClipboardTextFn()
	if terr != nil {
		return Source{}, fmt.Errorf("%w: clipboard does not contain an image", canvas.ErrUnsupportedInput)
	}
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "data:"):
		src, err := FromDataURL(text)
		if err != nil {
			return Source{}, err
		}
		src.Kind = KindClipboard
		return src, nil
	case strings.HasPrefix(text, "file://"):
		if u, err := url.Parse(text); err == nil {
			return FromFile(u.Path)
		}
	case filepath.IsAbs(text) && !strings.ContainsRune(text, '\n'):
		if _, err := os.Stat(text); err == nil {
			return FromFile(text)
		}
	}
	return Source{}, fmt.Errorf("%w: clipboard does not contain an image", canvas.ErrUnsupportedInput)
}

// FromCapture takes a screenshot and encodes it as PNG.
func FromCapture(ctx context.Context, opts capture.Options) (Source, error) {
	img, err := captureScreenshotFn(ctx, opts)
	if err != nil {
		if errors.Is(err, capture.ErrPermissionDenied) || errors.Is(err, capture.ErrUnavailable) {
			return Source{}, fmt.Errorf("capture screen: %w: %v", ErrPermissionDenied, err)
		}
		return Source{}, fmt.Errorf("capture screen: %w", err)
	}
	data, err := canvas.EncodePNG(img)
	if err != nil {
		return Source{}, fmt.Errorf("encode capture: %w", err)
	}
	return Source{Data: data, Format: "png", Kind: KindCapture, Origin: "screen"}, nil
}

// Guidance returns the message shown to the user for an acquisition
// failure, or "" when err needs no special wording.
func Guidance(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "access was refused; use -file or paste the image manually"
	case errors.Is(err, canvas.ErrUnsupportedInput):
		what := "not a supported image"
		if strings.Contains(err.Error(), "clipboard") {
			what = "clipboard does not contain an image"
		}
		return fmt.Sprintf("%s (supported: %s)", what, strings.Join(canvas.SupportedFormats, ", "))
	case errors.Is(err, canvas.ErrDecodeFailure):
		return "the image is damaged and could not be decoded"
	}
	return ""
}
