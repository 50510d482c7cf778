package canvas

import (
	"image"
	"math"
)

// Default logical canvas dimensions. All annotation geometry lives in this
// space regardless of how large the canvas is shown on screen.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Point is a position in logical canvas space.
type Point struct {
	X, Y float64
}

// Size is a width and height pair.
type Size struct {
	Width, Height float64
}

// DefaultSize returns the default logical canvas size.
func DefaultSize() Size { return Size{Width: DefaultWidth, Height: DefaultHeight} }

// Rect is an axis aligned rectangle described by its top-left corner and
// extent. Width and Height are never negative for rectangles built with
// RectFromCorners.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// RectFromCorners returns the normalised rectangle spanning a and b.
func RectFromCorners(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point { return Point{X: r.X + r.Width, Y: r.Y + r.Height} }

// Intersect returns the overlap of r and o, or the zero Rect when they do
// not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := math.Max(r.X, o.X), math.Max(r.Y, o.Y)
	x1, y1 := math.Min(r.X+r.Width, o.X+o.Width), math.Min(r.Y+r.Height, o.Y+o.Height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Pixels rounds the rectangle to integer pixel bounds, keeping at least one
// pixel in each dimension.
func (r Rect) Pixels() image.Rectangle {
	x := int(math.Round(r.X))
	y := int(math.Round(r.Y))
	w := int(math.Round(r.Width))
	h := int(math.Round(r.Height))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return image.Rect(x, y, x+w, y+h)
}

// ToLogical converts a pointer position relative to the top-left corner of
// the on-screen canvas into logical canvas space. display is the on-screen
// rectangle the canvas occupies; pointer coordinates are in the same space.
func ToLogical(px, py float64, display Rect, logical Size) Point {
	if display.Width <= 0 || display.Height <= 0 {
		return Point{}
	}
	sx := logical.Width / display.Width
	sy := logical.Height / display.Height
	return Point{X: (px - display.X) * sx, Y: (py - display.Y) * sy}
}

// Fit describes where a source image lands when it is scaled to fit inside
// the logical canvas while keeping its aspect ratio.
type Fit struct {
	Ratio      float64
	DrawWidth  float64
	DrawHeight float64
	OffsetX    float64
	OffsetY    float64
}

// FitRect computes the centred contain fit of a source image into the
// logical canvas. A source with no area yields the zero Fit.
func FitRect(srcW, srcH, logicalW, logicalH float64) Fit {
	if srcW <= 0 || srcH <= 0 || logicalW <= 0 || logicalH <= 0 {
		return Fit{}
	}
	ratio := math.Min(logicalW/srcW, logicalH/srcH)
	dw := srcW * ratio
	dh := srcH * ratio
	return Fit{
		Ratio:      ratio,
		DrawWidth:  dw,
		DrawHeight: dh,
		OffsetX:    (logicalW - dw) / 2,
		OffsetY:    (logicalH - dh) / 2,
	}
}

// FitImage is FitRect for the bounds of img.
func FitImage(img image.Image, logical Size) Fit {
	if img == nil {
		return Fit{}
	}
	b := img.Bounds()
	return FitRect(float64(b.Dx()), float64(b.Dy()), logical.Width, logical.Height)
}

// Valid reports whether the fit maps anything.
func (f Fit) Valid() bool { return f.Ratio > 0 }

// Rect returns the logical rectangle the source is drawn into.
func (f Fit) Rect() Rect {
	return Rect{X: f.OffsetX, Y: f.OffsetY, Width: f.DrawWidth, Height: f.DrawHeight}
}

// ToLogical maps a source pixel coordinate into logical space.
func (f Fit) ToLogical(p Point) Point {
	return Point{X: p.X*f.Ratio + f.OffsetX, Y: p.Y*f.Ratio + f.OffsetY}
}

// ToSource maps a logical coordinate back into source pixel space.
func (f Fit) ToSource(p Point) Point {
	if !f.Valid() {
		return Point{}
	}
	return Point{X: (p.X - f.OffsetX) / f.Ratio, Y: (p.Y - f.OffsetY) / f.Ratio}
}

// LogicalToSource maps a logical rectangle into source pixel space using
// the fit the source was drawn with.
func LogicalToSource(r Rect, f Fit) Rect {
	if !f.Valid() {
		return Rect{}
	}
	origin := f.ToSource(Point{X: r.X, Y: r.Y})
	return Rect{
		X:      origin.X,
		Y:      origin.Y,
		Width:  r.Width / f.Ratio,
		Height: r.Height / f.Ratio,
	}
}
