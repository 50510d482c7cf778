package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// strokePolyline draws a round-capped, round-joined polyline through pts.
// Every segment and joint is added to a single rasterizer with the same
// winding so overlapping pieces do not cancel out.
func strokePolyline(dst *image.RGBA, pts []Point, width float64, col color.Color) {
	if len(pts) == 0 || width <= 0 {
		return
	}
	b := dst.Bounds()
	if b.Empty() {
		return
	}
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	hw := width / 2
	ox, oy := float64(b.Min.X), float64(b.Min.Y)
	for i := 1; i < len(pts); i++ {
		addSegment(z, pts[i-1], pts[i], hw, ox, oy)
	}
	for _, p := range pts {
		addDisc(z, p, hw, ox, oy)
	}
	z.Draw(dst, b, image.NewUniform(col), image.Point{})
}

func addSegment(z *vector.Rasterizer, a, b Point, hw, ox, oy float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx := -dy / l * hw
	ny := dx / l * hw
	z.MoveTo(float32(a.X+nx-ox), float32(a.Y+ny-oy))
	z.LineTo(float32(b.X+nx-ox), float32(b.Y+ny-oy))
	z.LineTo(float32(b.X-nx-ox), float32(b.Y-ny-oy))
	z.LineTo(float32(a.X-nx-ox), float32(a.Y-ny-oy))
	z.ClosePath()
}

func addDisc(z *vector.Rasterizer, c Point, r, ox, oy float64) {
	if r <= 0 {
		return
	}
	n := int(math.Ceil(2 * math.Pi * r / 2))
	if n < 8 {
		n = 8
	}
	// Negative angles keep the same winding as addSegment.
	for i := 0; i < n; i++ {
		a := -2 * math.Pi * float64(i) / float64(n)
		x := float32(c.X + r*math.Cos(a) - ox)
		y := float32(c.Y + r*math.Sin(a) - oy)
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
}

func strokeRect(dst *image.RGBA, r Rect, width float64, col color.Color) {
	m := r.Max()
	strokePolyline(dst, []Point{
		{X: r.X, Y: r.Y},
		{X: m.X, Y: r.Y},
		{X: m.X, Y: m.Y},
		{X: r.X, Y: m.Y},
		{X: r.X, Y: r.Y},
	}, width, col)
}

// fillRect blends col over the given logical rectangle.
func fillRect(dst *image.RGBA, r Rect, col color.Color) {
	if r.Empty() {
		return
	}
	px := image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)), int(math.Round(r.Y+r.Height)),
	)
	draw.Draw(dst, px.Intersect(dst.Bounds()), image.NewUniform(col), image.Point{}, draw.Over)
}

// drawDashedLine draws an axis aligned dashed line. Dashes alternate between
// c1 and c2; a nil c2 leaves the gaps untouched.
func drawDashedLine(img *image.RGBA, x0, y0, x1, y1, dash, thickness int, c1, c2 color.Color) {
	if dash <= 0 {
		dash = 1
	}
	horiz := y0 == y1
	length := x1 - x0
	if !horiz {
		length = y1 - y0
	}
	if length < 0 {
		length = -length
	}
	bounds := img.Bounds()
	plot := func(offset int, col color.Color) {
		if col == nil {
			return
		}
		for t := 0; t < thickness; t++ {
			var x, y int
			if horiz {
				x, y = x0+offset, y0+t
				if x0 > x1 {
					x = x0 - offset
				}
			} else {
				x, y = x0+t, y0+offset
				if y0 > y1 {
					y = y0 - offset
				}
			}
			if image.Pt(x, y).In(bounds) {
				img.Set(x, y, col)
			}
		}
	}
	for i := 0; i <= length; i += dash * 2 {
		for j := 0; j < dash && i+j <= length; j++ {
			plot(i+j, c1)
		}
		for j := 0; j < dash && i+dash+j <= length; j++ {
			plot(i+dash+j, c2)
		}
	}
}

func drawDashedRect(img *image.RGBA, rect image.Rectangle, dash, thickness int, c1, c2 color.Color) {
	drawDashedLine(img, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y, dash, thickness, c1, c2)
	drawDashedLine(img, rect.Max.X, rect.Min.Y, rect.Max.X, rect.Max.Y, dash, thickness, c1, c2)
	drawDashedLine(img, rect.Max.X, rect.Max.Y, rect.Min.X, rect.Max.Y, dash, thickness, c1, c2)
	drawDashedLine(img, rect.Min.X, rect.Max.Y, rect.Min.X, rect.Min.Y, dash, thickness, c1, c2)
}

// cropImage returns a copy of rect from img. Areas of rect outside img are
// left transparent.
func cropImage(img *image.RGBA, rect image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	src := rect.Intersect(img.Bounds())
	if !src.Empty() {
		draw.Draw(out, src.Sub(rect.Min), img, src.Min, draw.Src)
	}
	return out
}
