package canvas

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
	"time"
)

func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// corruptPNG keeps a valid header so the format is recognised but the pixel
// data is missing.
func corruptPNG(t *testing.T) []byte {
	t.Helper()
	data := solidPNG(t, 64, 64, color.RGBA{255, 0, 0, 255})
	return append([]byte(nil), data[:40]...)
}

func loadedEditor(t *testing.T, w, h int) *Editor {
	t.Helper()
	e := NewEditor()
	if err := e.LoadSource(solidPNG(t, w, h, color.RGBA{200, 10, 10, 255})); err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	return e
}

func drag(e *Editor, from, to Point) {
	e.PointerDown(from)
	e.PointerMove(to)
	e.PointerUp(to)
}

func TestEditorRectangleGesture(t *testing.T) {
	e := loadedEditor(t, 640, 480)
	if !e.PointerDown(Point{100, 100}) {
		t.Fatalf("pointer down ignored")
	}
	if e.State() != StateDrawing {
		t.Fatalf("state = %v, want drawing", e.State())
	}
	e.PointerMove(Point{200, 200})
	e.PointerUp(Point{300, 250})
	if e.State() != StateIdle {
		t.Fatalf("state = %v, want idle", e.State())
	}
	anns := e.Annotations()
	if len(anns) != 1 || anns[0].Box() != (Rect{X: 100, Y: 100, Width: 200, Height: 150}) {
		t.Fatalf("annotations = %+v", anns)
	}
	e.Undo()
	if len(e.Annotations()) != 0 {
		t.Fatalf("undo left %d annotations", len(e.Annotations()))
	}
}

func TestEditorPointerDownWithoutSource(t *testing.T) {
	e := NewEditor()
	if e.PointerDown(Point{1, 1}) {
		t.Fatalf("pointer down accepted without a source")
	}
	if e.State() != StateIdle {
		t.Fatalf("state = %v", e.State())
	}
}

func TestEditorIgnoresSecondPointerDown(t *testing.T) {
	e := loadedEditor(t, 100, 100)
	e.PointerDown(Point{10, 10})
	if e.PointerDown(Point{50, 50}) {
		t.Fatalf("second pointer down should be ignored")
	}
	a, _ := e.Active()
	if a.Start() != (Point{10, 10}) {
		t.Fatalf("gesture restarted at %v", a.Start())
	}
}

func TestEditorPointerLeaveCommits(t *testing.T) {
	e := loadedEditor(t, 100, 100)
	e.SetTool(ToolFreehand)
	e.PointerDown(Point{10, 10})
	e.PointerMove(Point{20, 20})
	e.PointerLeave()
	if e.State() != StateIdle || len(e.Annotations()) != 1 {
		t.Fatalf("state=%v annotations=%d", e.State(), len(e.Annotations()))
	}
}

func TestEditorCropWholeImage(t *testing.T) {
	e := loadedEditor(t, 640, 480)
	drag(e, Point{10, 10}, Point{50, 50})
	e.SetTool(ToolCrop)
	drag(e, Point{160, 0}, Point{1120, 720})
	if e.State() != StateAcquiring {
		t.Fatalf("state = %v, want acquiring", e.State())
	}
	if _, ok := e.CropRegion(); !ok {
		t.Fatalf("crop region not set")
	}
	before := e.Generation()
	if err := e.ConfirmCrop(); err != nil {
		t.Fatalf("ConfirmCrop: %v", err)
	}
	if e.Generation() == before {
		t.Fatalf("generation did not advance")
	}
	img := e.Image()
	if img == nil || img.Bounds().Dx() != 640 || img.Bounds().Dy() != 480 {
		t.Fatalf("cropped image bounds = %v", img.Bounds())
	}
	if e.Tool() != ToolRectangle || e.State() != StateIdle {
		t.Fatalf("tool=%v state=%v", e.Tool(), e.State())
	}
	if len(e.Annotations()) != 0 {
		t.Fatalf("annotations survived crop")
	}
	if _, ok := e.CropRegion(); ok {
		t.Fatalf("crop region survived crop")
	}
	data, format := e.Source()
	if format != "png" {
		t.Fatalf("format = %q", format)
	}
	if _, err := Sniff(data); err != nil {
		t.Fatalf("new source not decodable: %v", err)
	}
}

func TestEditorCropQuarter(t *testing.T) {
	e := loadedEditor(t, 640, 480)
	e.SetTool(ToolCrop)
	drag(e, Point{160, 0}, Point{640, 360})
	if err := e.ConfirmCrop(); err != nil {
		t.Fatalf("ConfirmCrop: %v", err)
	}
	if b := e.Image().Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Fatalf("bounds = %v, want 320x240", b)
	}
}

func TestEditorDegenerateCropStaysIdle(t *testing.T) {
	e := loadedEditor(t, 640, 480)
	e.SetTool(ToolCrop)
	drag(e, Point{200, 200}, Point{205, 400})
	if e.State() != StateIdle {
		t.Fatalf("state = %v, want idle", e.State())
	}
	if err := e.ConfirmCrop(); !errors.Is(err, ErrNoCropRegion) {
		t.Fatalf("ConfirmCrop err = %v", err)
	}
}

func TestEditorPointerDownWhileCropPending(t *testing.T) {
	e := loadedEditor(t, 640, 480)
	e.SetTool(ToolCrop)
	drag(e, Point{200, 200}, Point{400, 400})
	if e.PointerDown(Point{10, 10}) {
		t.Fatalf("pointer down accepted while crop pending")
	}
	r, _ := e.CropRegion()
	if r.X != 200 {
		t.Fatalf("region changed: %+v", r)
	}
}

func TestEditorCancelCrop(t *testing.T) {
	e := loadedEditor(t, 640, 480)
	e.SetTool(ToolCrop)
	drag(e, Point{200, 200}, Point{400, 400})
	e.CancelCrop()
	if _, ok := e.CropRegion(); ok {
		t.Fatalf("crop region not cleared")
	}
	if e.State() != StateIdle || e.Tool() != ToolCrop {
		t.Fatalf("state=%v tool=%v", e.State(), e.Tool())
	}
}

func TestEditorSetToolClearsCrop(t *testing.T) {
	e := loadedEditor(t, 640, 480)
	drag(e, Point{1, 1}, Point{30, 30})
	e.SetTool(ToolCrop)
	drag(e, Point{200, 200}, Point{400, 400})
	e.SetTool(ToolFreehand)
	if _, ok := e.CropRegion(); ok {
		t.Fatalf("crop region survived tool switch")
	}
	if e.State() != StateIdle {
		t.Fatalf("state = %v", e.State())
	}
	if len(e.Annotations()) != 1 {
		t.Fatalf("tool switch should keep annotations")
	}
}

func TestEditorReplaceSourceResets(t *testing.T) {
	e := loadedEditor(t, 640, 480)
	drag(e, Point{1, 1}, Point{30, 30})
	drag(e, Point{5, 5}, Point{60, 90})
	e.SetTool(ToolCrop)
	drag(e, Point{200, 200}, Point{400, 400})
	if err := e.LoadSource(solidPNG(t, 10, 10, color.RGBA{0, 0, 255, 255})); err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	if len(e.Annotations()) != 0 {
		t.Fatalf("annotations survived source replacement")
	}
	if _, ok := e.CropRegion(); ok {
		t.Fatalf("crop region survived source replacement")
	}
	if e.State() != StateIdle {
		t.Fatalf("state = %v", e.State())
	}
}

func TestEditorRejectsNonImage(t *testing.T) {
	e := loadedEditor(t, 640, 480)
	drag(e, Point{1, 1}, Point{30, 30})
	gen := e.Generation()
	_, err := e.ReplaceSource([]byte("hello, this is plain text"))
	if !errors.Is(err, ErrUnsupportedInput) {
		t.Fatalf("err = %v, want ErrUnsupportedInput", err)
	}
	if e.Generation() != gen || len(e.Annotations()) != 1 || e.Image() == nil {
		t.Fatalf("rejected input changed state")
	}
}

func TestEditorStaleDecodeDropped(t *testing.T) {
	e := NewEditor()
	first := solidPNG(t, 20, 10, color.RGBA{255, 0, 0, 255})
	second := solidPNG(t, 30, 40, color.RGBA{0, 255, 0, 255})
	gen1, err := e.ReplaceSource(first)
	if err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}
	gen2, err := e.ReplaceSource(second)
	if err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}
	if err := e.ApplyDecode(DecodeSource(gen1, first)); !errors.Is(err, ErrStaleDecode) {
		t.Fatalf("stale decode err = %v", err)
	}
	if e.Image() != nil {
		t.Fatalf("stale decode updated the canvas")
	}
	if err := e.ApplyDecode(DecodeSource(gen2, second)); err != nil {
		t.Fatalf("ApplyDecode: %v", err)
	}
	if b := e.Image().Bounds(); b.Dx() != 30 || b.Dy() != 40 {
		t.Fatalf("bounds = %v", b)
	}
}

func TestStartDecodeDelivers(t *testing.T) {
	e := NewEditor()
	data := solidPNG(t, 8, 8, color.RGBA{1, 2, 3, 255})
	gen, err := e.ReplaceSource(data)
	if err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}
	select {
	case res := <-StartDecode(context.Background(), gen, data):
		if err := e.ApplyDecode(res); err != nil {
			t.Fatalf("ApplyDecode: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("decode did not complete")
	}
	if e.Image() == nil || e.Decoding() {
		t.Fatalf("decode not applied")
	}
}

func TestEditorDecodeFailureRendersBlank(t *testing.T) {
	e := NewEditor()
	err := e.LoadSource(corruptPNG(t))
	if !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("err = %v, want ErrDecodeFailure", err)
	}
	drag(e, Point{10, 10}, Point{200, 200})
	img := e.Flatten()
	bg := NewRenderer(DefaultSize(), nil).Background
	for _, p := range []image.Point{{0, 0}, {10, 10}, {100, 10}, {640, 360}} {
		if got := img.RGBAAt(p.X, p.Y); got != bg {
			t.Fatalf("pixel %v = %v, want background %v", p, got, bg)
		}
	}
	if len(e.Annotations()) != 1 {
		t.Fatalf("annotation list changed by decode failure")
	}
}

func TestEditorConfirmCropDecodeFailureLeavesState(t *testing.T) {
	e := NewEditor()
	bad := corruptPNG(t)
	_ = e.LoadSource(bad)
	e.SetTool(ToolCrop)
	drag(e, Point{100, 100}, Point{400, 400})
	gen := e.Generation()
	err := e.ConfirmCrop()
	if !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("err = %v, want ErrDecodeFailure", err)
	}
	if e.Generation() != gen || e.State() != StateAcquiring || e.Tool() != ToolCrop {
		t.Fatalf("state mutated: gen=%d state=%v tool=%v", e.Generation(), e.State(), e.Tool())
	}
	if _, ok := e.CropRegion(); !ok {
		t.Fatalf("crop region lost")
	}
	if data, _ := e.Source(); !bytes.Equal(data, bad) {
		t.Fatalf("source replaced")
	}
}

func TestEditorClearSource(t *testing.T) {
	e := loadedEditor(t, 64, 64)
	drag(e, Point{1, 1}, Point{30, 30})
	e.ClearSource()
	if e.HasSource() || e.Image() != nil || len(e.Annotations()) != 0 {
		t.Fatalf("source not cleared")
	}
	var buf bytes.Buffer
	if err := e.ExportPNG(&buf); !errors.Is(err, ErrNoSource) {
		t.Fatalf("ExportPNG err = %v", err)
	}
}

func TestEditorExportPNG(t *testing.T) {
	e := loadedEditor(t, 64, 64)
	var buf bytes.Buffer
	if err := e.ExportPNG(&buf); err != nil {
		t.Fatalf("ExportPNG: %v", err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if cfg.Width != DefaultWidth || cfg.Height != DefaultHeight {
		t.Fatalf("export size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestEditorCropFarOffCanvasIsClipped(t *testing.T) {
	e := loadedEditor(t, 640, 480)
	e.SetTool(ToolCrop)
	e.PointerDown(Point{0, 0})
	e.PointerUp(Point{1e9, 1e9})
	if err := e.ConfirmCrop(); err != nil {
		t.Fatalf("ConfirmCrop: %v", err)
	}
	// The whole canvas maps to the source plus its letterbox padding.
	b := e.Image().Bounds()
	if b.Dy() != 480 || b.Dx() < 852 || b.Dx() > 854 {
		t.Fatalf("bounds = %v, want about 853x480", b)
	}
	if got := e.Image().RGBAAt(0, 240); got.A != 0 {
		t.Fatalf("letterbox pixel = %v, want transparent", got)
	}
}

func TestEditorCropOutsideSourceIsDegenerate(t *testing.T) {
	tests := []struct {
		name     string
		from, to Point
	}{
		{"letterbox only", Point{0, 0}, Point{150, 700}},
		{"far negative", Point{-1e9, -1e9}, Point{100, 100}},
		{"beyond canvas", Point{1300, 100}, Point{1e9, 400}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := loadedEditor(t, 640, 480)
			e.SetTool(ToolCrop)
			drag(e, tc.from, tc.to)
			gen := e.Generation()
			if err := e.ConfirmCrop(); !errors.Is(err, ErrDegenerateGeometry) {
				t.Fatalf("ConfirmCrop err = %v, want ErrDegenerateGeometry", err)
			}
			if e.Generation() != gen || e.State() != StateAcquiring {
				t.Fatalf("state mutated: gen=%d state=%v", e.Generation(), e.State())
			}
		})
	}
}

func TestEditorExportWhileDecoding(t *testing.T) {
	e := NewEditor()
	data := solidPNG(t, 32, 32, color.RGBA{0, 0, 255, 255})
	gen, err := e.ReplaceSource(data)
	if err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}
	var buf bytes.Buffer
	if err := e.ExportPNG(&buf); !errors.Is(err, ErrDecodePending) {
		t.Fatalf("ExportPNG err = %v, want ErrDecodePending", err)
	}
	if err := e.ApplyDecode(DecodeSource(gen, data)); err != nil {
		t.Fatalf("ApplyDecode: %v", err)
	}
	if err := e.ExportPNG(&buf); err != nil {
		t.Fatalf("ExportPNG after decode: %v", err)
	}
}
