package canvas

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"

	"go.uber.org/zap"
)

// State is the input state of an Editor.
type State int

const (
	// StateIdle waits for a new gesture.
	StateIdle State = iota
	// StateDrawing has a rectangle or freehand gesture in progress.
	StateDrawing
	// StateAcquiring is selecting a crop region or waiting for the
	// selection to be confirmed or cancelled.
	StateAcquiring
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawing:
		return "drawing"
	case StateAcquiring:
		return "acquiring"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DecodeResult carries the outcome of decoding a source generation.
type DecodeResult struct {
	Generation uint64
	Image      *image.RGBA
	Err        error
}

// Editor is the annotation session: it owns the source image, the
// annotation store and the tool selection, and turns pointer events into
// store transitions. An Editor must only be used from one goroutine; decodes
// may run elsewhere and are handed back through ApplyDecode.
type Editor struct {
	logical  Size
	store    *Store
	renderer *Renderer
	tool     Tool
	style    Style
	state    State

	source     []byte
	format     string
	generation uint64
	img        *image.RGBA
	decodeErr  error
	decoding   bool

	log *zap.Logger
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithLogicalSize sets the logical canvas size.
func WithLogicalSize(s Size) EditorOption { return func(e *Editor) { e.logical = s } }

// WithStyle sets the initial stroke style.
func WithStyle(s Style) EditorOption { return func(e *Editor) { e.style = s } }

// WithRenderer sets the renderer used by Render and Flatten.
func WithRenderer(r *Renderer) EditorOption { return func(e *Editor) { e.renderer = r } }

// WithLogger sets the logger used for state transitions.
func WithLogger(l *zap.Logger) EditorOption { return func(e *Editor) { e.log = l } }

// NewEditor returns an editor with no source, the rectangle tool and the
// default style.
func NewEditor(opts ...EditorOption) *Editor {
	e := &Editor{
		logical: DefaultSize(),
		store:   NewStore(),
		tool:    ToolRectangle,
		style:   DefaultStyle(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.logical.Width <= 0 || e.logical.Height <= 0 {
		e.logical = DefaultSize()
	}
	if e.renderer == nil {
		e.renderer = NewRenderer(e.logical, nil)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Logical returns the logical canvas size.
func (e *Editor) Logical() Size { return e.logical }

// State returns the current input state.
func (e *Editor) State() State { return e.state }

// Tool returns the selected tool.
func (e *Editor) Tool() Tool { return e.tool }

// Style returns the stroke style for new annotations.
func (e *Editor) Style() Style { return e.style }

// SetStyle changes the stroke style for new annotations.
func (e *Editor) SetStyle(s Style) { e.style = s }

// Annotations returns the committed annotations.
func (e *Editor) Annotations() []Annotation { return e.store.Annotations() }

// Active returns the gesture in progress.
func (e *Editor) Active() (Annotation, bool) { return e.store.Active() }

// CropRegion returns the pending crop region.
func (e *Editor) CropRegion() (Rect, bool) { return e.store.CropRegion() }

// HasSource reports whether a source image is loaded.
func (e *Editor) HasSource() bool { return len(e.source) > 0 }

// Source returns the encoded source image and its format.
func (e *Editor) Source() ([]byte, string) { return e.source, e.format }

// Generation identifies the current source. It changes on every
// replacement.
func (e *Editor) Generation() uint64 { return e.generation }

// Image returns the decoded source, nil while decoding or after a failure.
func (e *Editor) Image() *image.RGBA { return e.img }

// Decoding reports whether the current source is still being decoded.
func (e *Editor) Decoding() bool { return e.decoding }

// DecodeErr returns the decode failure of the current source, if any.
func (e *Editor) DecodeErr() error { return e.decodeErr }

// Fit returns the fit of the decoded source into the logical canvas.
func (e *Editor) Fit() Fit { return FitImage(e.img, e.logical) }

func (e *Editor) setState(s State) {
	if e.state == s {
		return
	}
	e.log.Debug("editor state", zap.Stringer("from", e.state), zap.Stringer("to", s))
	e.state = s
}

// SetTool selects t, abandoning any gesture and crop selection.
func (e *Editor) SetTool(t Tool) {
	e.store.CancelGesture()
	e.store.ClearCrop()
	e.tool = t
	e.setState(StateIdle)
}

// PointerDown starts a gesture with the selected tool. It is ignored
// without a source or while another gesture or crop selection is pending.
func (e *Editor) PointerDown(p Point) bool {
	if e.state != StateIdle || !e.HasSource() {
		return false
	}
	e.store.BeginGesture(e.tool, p, e.style)
	if e.tool == ToolCrop {
		e.setState(StateAcquiring)
	} else {
		e.setState(StateDrawing)
	}
	return true
}

// PointerMove extends the gesture in progress.
func (e *Editor) PointerMove(p Point) bool {
	return e.store.ExtendGesture(p)
}

// PointerUp extends the gesture to p and commits it.
func (e *Editor) PointerUp(p Point) bool {
	a, ok := e.store.Active()
	if !ok {
		return false
	}
	if a.End() != p {
		e.store.ExtendGesture(p)
	}
	return e.finishGesture()
}

// PointerLeave commits the gesture in progress without adding a point.
func (e *Editor) PointerLeave() bool {
	if _, ok := e.store.Active(); !ok {
		return false
	}
	return e.finishGesture()
}

func (e *Editor) finishGesture() bool {
	stored := e.store.CommitGesture()
	if e.tool == ToolCrop {
		if _, ok := e.store.CropRegion(); ok {
			e.setState(StateAcquiring)
		} else {
			e.setState(StateIdle)
		}
	} else {
		e.setState(StateIdle)
	}
	if !stored {
		e.log.Debug("gesture discarded", zap.Stringer("tool", e.tool))
	}
	return true
}

// CancelCrop drops the crop selection and returns to idle.
func (e *Editor) CancelCrop() {
	if a, ok := e.store.Active(); ok && a.Kind == KindCropMarker {
		e.store.CancelGesture()
	}
	e.store.ClearCrop()
	e.setState(StateIdle)
}

// ConfirmCrop replaces the source with the selected region at native
// resolution, clears the annotations and switches back to the rectangle
// tool. On failure nothing changes.
func (e *Editor) ConfirmCrop() error {
	region, ok := e.store.CropRegion()
	if !ok || e.state != StateAcquiring {
		return ErrNoCropRegion
	}
	res, err := ExecuteCrop(e.source, region, e.logical)
	if err != nil {
		e.log.Warn("crop failed", zap.Error(err))
		return err
	}
	e.log.Info("crop applied",
		zap.Int("x", res.SourceRect.Min.X), zap.Int("y", res.SourceRect.Min.Y),
		zap.Int("width", res.SourceRect.Dx()), zap.Int("height", res.SourceRect.Dy()))
	e.install(res.Data, "png")
	e.img = res.Image
	e.decoding = false
	e.tool = ToolRectangle
	return nil
}

// Undo removes the most recent annotation.
func (e *Editor) Undo() bool { return e.store.Undo() }

// ReplaceSource installs encoded image data as the new source. Data that is
// not a supported image leaves the editor untouched. On success all
// annotations and the crop region are cleared and the returned generation
// must be passed back to ApplyDecode with the decoded pixels.
func (e *Editor) ReplaceSource(data []byte) (uint64, error) {
	format, err := Sniff(data)
	if err != nil {
		e.log.Info("source rejected", zap.Error(err))
		return e.generation, err
	}
	e.install(data, format)
	e.decoding = true
	e.log.Debug("source replaced", zap.Uint64("generation", e.generation), zap.String("format", format))
	return e.generation, nil
}

func (e *Editor) install(data []byte, format string) {
	e.generation++
	e.source = data
	e.format = format
	e.img = nil
	e.decodeErr = nil
	e.store.ResetAll()
	e.setState(StateIdle)
}

// ApplyDecode hands the outcome of a decode back to the editor. Results for
// a superseded generation are dropped with ErrStaleDecode.
func (e *Editor) ApplyDecode(res DecodeResult) error {
	if res.Generation != e.generation || !e.decoding {
		e.log.Debug("stale decode dropped",
			zap.Uint64("generation", res.Generation), zap.Uint64("current", e.generation))
		return ErrStaleDecode
	}
	e.decoding = false
	if res.Err != nil {
		e.img = nil
		e.decodeErr = res.Err
		e.log.Warn("source decode failed", zap.Uint64("generation", res.Generation), zap.Error(res.Err))
		return nil
	}
	e.img = res.Image
	return nil
}

// LoadSource replaces the source and decodes it synchronously. A decode
// failure is returned but the source stays installed and renders blank.
func (e *Editor) LoadSource(data []byte) error {
	gen, err := e.ReplaceSource(data)
	if err != nil {
		return err
	}
	res := DecodeSource(gen, data)
	if err := e.ApplyDecode(res); err != nil {
		return err
	}
	return res.Err
}

// ClearSource removes the source, annotations and crop region.
func (e *Editor) ClearSource() {
	e.generation++
	e.source = nil
	e.format = ""
	e.img = nil
	e.decodeErr = nil
	e.decoding = false
	e.store.ResetAll()
	e.setState(StateIdle)
}

// DecodeSource decodes data for generation gen.
func DecodeSource(gen uint64, data []byte) DecodeResult {
	img, err := Decode(data)
	return DecodeResult{Generation: gen, Image: img, Err: err}
}

// StartDecode decodes data on a new goroutine and delivers the result on
// the returned channel unless ctx is cancelled first.
func StartDecode(ctx context.Context, gen uint64, data []byte) <-chan DecodeResult {
	ch := make(chan DecodeResult, 1)
	go func() {
		defer close(ch)
		res := DecodeSource(gen, data)
		select {
		case ch <- res:
		case <-ctx.Done():
		}
	}()
	return ch
}

// Frame snapshots the editor for rendering.
func (e *Editor) Frame() Frame {
	f := Frame{Annotations: e.store.Annotations(), Tool: e.tool}
	if e.img != nil {
		f.Source = e.img
	}
	if a, ok := e.store.Active(); ok {
		f.Active = &a
	}
	if r, ok := e.store.CropRegion(); ok {
		f.CropRegion = &r
	}
	return f
}

// Render redraws the canvas into dst, which should cover the logical size.
func (e *Editor) Render(dst *image.RGBA) {
	e.renderer.Render(dst, e.Frame())
}

// Flatten renders the canvas into a new image.
func (e *Editor) Flatten() *image.RGBA {
	dst := e.renderer.NewCanvas()
	e.Render(dst)
	return dst
}

// ExportPNG writes the flattened canvas as PNG. It refuses while the source
// is still decoding so a background-only frame is never exported.
func (e *Editor) ExportPNG(w io.Writer) error {
	if !e.HasSource() {
		return ErrNoSource
	}
	if e.decoding {
		return ErrDecodePending
	}
	return png.Encode(w, e.Flatten())
}
