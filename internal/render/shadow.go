// Package render holds finishing effects applied to flattened canvases before
// they are exported.
package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ShadowOptions configures the drop shadow placed behind an exported canvas.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
	Color   color.RGBA
	// Paper fills the expanded area before the shadow is drawn. The zero
	// value leaves it transparent.
	Paper color.RGBA
}

// DefaultShadowOptions suits a 1280x720 lesson snapshot.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  16,
		Offset:  image.Pt(10, 10),
		Opacity: 0.5,
		Color:   color.RGBA{A: 255},
	}
}

// DropShadow composites img over a blurred copy of its alpha. The returned
// point is where the top-left corner of img landed in the result, whose
// bounds always start at the origin.
func DropShadow(img image.Image, opts ShadowOptions) (*image.RGBA, image.Point) {
	b := img.Bounds()
	if b.Empty() || opts.Opacity <= 0 {
		out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
		return out, image.Point{}
	}
	if opts.Opacity > 1 {
		opts.Opacity = 1
	}
	if opts.Radius < 0 {
		opts.Radius = 0
	}

	// Work in coordinates where img starts at the origin.
	src := image.Rect(0, 0, b.Dx(), b.Dy())
	spread := src.Inset(-opts.Radius)
	shadow := spread.Add(opts.Offset)
	all := src.Union(shadow)
	at := src.Min.Sub(all.Min)

	out := image.NewRGBA(image.Rect(0, 0, all.Dx(), all.Dy()))
	if opts.Paper.A > 0 {
		draw.Draw(out, out.Bounds(), image.NewUniform(opts.Paper), image.Point{}, draw.Src)
	}

	mask := image.NewAlpha(image.Rect(0, 0, spread.Dx(), spread.Dy()))
	draw.Draw(mask, src.Add(image.Pt(opts.Radius, opts.Radius)), img, b.Min, draw.Src)
	boxBlur(mask, opts.Radius)

	tint := opts.Color
	tint.A = uint8(float64(tint.A)*opts.Opacity + 0.5)
	draw.DrawMask(out, mask.Bounds().Add(shadow.Min.Sub(all.Min)), image.NewUniform(tint), image.Point{}, mask, image.Point{}, draw.Over)
	draw.Draw(out, src.Add(at), img, b.Min, draw.Over)
	return out, at
}

// boxBlur blurs m in place with a (2r+1) wide box, horizontally then
// vertically. Edges are averaged over the pixels that exist.
func boxBlur(m *image.Alpha, r int) {
	if r <= 0 {
		return
	}
	w, h := m.Rect.Dx(), m.Rect.Dy()
	line := make([]uint8, max(w, h))
	blur := func(get func(i int) uint8, set func(i int, v uint8), n int) {
		for i := 0; i < n; i++ {
			line[i] = get(i)
		}
		sum, count := 0, 0
		for i := 0; i < r && i < n; i++ {
			sum += int(line[i])
			count++
		}
		for i := 0; i < n; i++ {
			if j := i + r; j < n {
				sum += int(line[j])
				count++
			}
			if j := i - r - 1; j >= 0 {
				sum -= int(line[j])
				count--
			}
			set(i, uint8(sum/count))
		}
	}
	for y := 0; y < h; y++ {
		row := m.Pix[y*m.Stride:]
		blur(func(i int) uint8 { return row[i] }, func(i int, v uint8) { row[i] = v }, w)
	}
	for x := 0; x < w; x++ {
		blur(func(i int) uint8 { return m.Pix[i*m.Stride+x] }, func(i int, v uint8) { m.Pix[i*m.Stride+x] = v }, h)
	}
}
