package canvas

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/example/visionlearn/internal/theme"
	xdraw "golang.org/x/image/draw"
)

// Frame is everything the renderer needs to compose one canvas image.
type Frame struct {
	// Source is the decoded source image, nil when missing or undecodable.
	Source      image.Image
	Annotations []Annotation
	Active      *Annotation
	CropRegion  *Rect
	Tool        Tool
}

// Renderer composes frames into logical canvas sized images.
type Renderer struct {
	Logical    Size
	Background color.RGBA
	Shade      color.RGBA
	Scaler     xdraw.Interpolator
}

// NewRenderer returns a renderer for the logical size using colours from t.
// A nil theme uses theme.Default.
func NewRenderer(logical Size, t *theme.Theme) *Renderer {
	if t == nil {
		t = theme.Default()
	}
	return &Renderer{
		Logical:    logical,
		Background: t.CanvasBackground,
		Shade:      t.CropShade,
		Scaler:     xdraw.ApproxBiLinear,
	}
}

// NewCanvas allocates an image covering the logical canvas.
func (r *Renderer) NewCanvas() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, int(r.Logical.Width), int(r.Logical.Height)))
}

// Render redraws dst from scratch. Without a source only the background is
// drawn.
func (r *Renderer) Render(dst *image.RGBA, f Frame) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)
	if f.Source == nil {
		return
	}
	fit := FitImage(f.Source, r.Logical)
	if fit.Valid() {
		scaler := r.Scaler
		if scaler == nil {
			scaler = xdraw.ApproxBiLinear
		}
		dr := fit.Rect()
		target := image.Rect(
			roundInt(dr.X), roundInt(dr.Y),
			roundInt(dr.X+dr.Width), roundInt(dr.Y+dr.Height),
		)
		scaler.Scale(dst, target, f.Source, f.Source.Bounds(), draw.Over, nil)
	}
	for _, a := range f.Annotations {
		r.drawAnnotation(dst, a)
	}
	if f.Active != nil {
		r.drawAnnotation(dst, *f.Active)
	}
	if f.CropRegion != nil && f.Tool != ToolCrop {
		drawCropOutline(dst, *f.CropRegion)
	}
}

func (r *Renderer) drawAnnotation(dst *image.RGBA, a Annotation) {
	switch a.Kind {
	case KindRectangle:
		if len(a.Points) < 2 {
			return
		}
		strokeRect(dst, a.Box(), a.Width, a.Color)
	case KindFreehand:
		if len(a.Points) < 2 {
			return
		}
		strokePolyline(dst, a.Points, a.Width, a.Color)
	case KindCropMarker:
		if len(a.Points) < 2 {
			return
		}
		box := a.Box()
		r.shadeOutside(dst, box)
		drawCropOutline(dst, box)
	}
}

// shadeOutside darkens the four bands of the canvas around box.
func (r *Renderer) shadeOutside(dst *image.RGBA, box Rect) {
	w, h := r.Logical.Width, r.Logical.Height
	m := box.Max()
	fillRect(dst, Rect{X: 0, Y: 0, Width: w, Height: box.Y}, r.Shade)
	fillRect(dst, Rect{X: 0, Y: m.Y, Width: w, Height: h - m.Y}, r.Shade)
	fillRect(dst, Rect{X: 0, Y: box.Y, Width: box.X, Height: box.Height}, r.Shade)
	fillRect(dst, Rect{X: m.X, Y: box.Y, Width: w - m.X, Height: box.Height}, r.Shade)
}

func drawCropOutline(dst *image.RGBA, box Rect) {
	m := box.Max()
	px := image.Rect(roundInt(box.X), roundInt(box.Y), roundInt(m.X), roundInt(m.Y))
	drawDashedRect(dst, px, cropDash, int(cropMarkerStyle.Width), cropMarkerStyle.Color, nil)
}

func roundInt(v float64) int {
	if v < 0 {
		return -int(-v + 0.5)
	}
	return int(v + 0.5)
}
