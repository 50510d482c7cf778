package render

import (
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/draw"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestDropShadowExpandsBounds(t *testing.T) {
	img := solid(10, 10, color.RGBA{R: 255, A: 255})
	opts := ShadowOptions{Radius: 4, Offset: image.Pt(8, 6), Opacity: 0.5, Color: color.RGBA{A: 255}}
	out, at := DropShadow(img, opts)
	if want := image.Rect(0, 0, 22, 20); out.Bounds() != want {
		t.Fatalf("bounds = %v, want %v", out.Bounds(), want)
	}
	if at != (image.Point{}) {
		t.Fatalf("content moved to %v", at)
	}
	if got := out.RGBAAt(5, 5); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("content pixel = %v", got)
	}
	if out.RGBAAt(15, 12).A == 0 {
		t.Fatalf("expected shadow below and right of the content")
	}
	if out.RGBAAt(0, 19).A != 0 {
		t.Fatalf("bottom-left corner should stay clear")
	}
}

func TestDropShadowNegativeOffsetShiftsContent(t *testing.T) {
	img := solid(6, 6, color.RGBA{G: 255, A: 255})
	out, at := DropShadow(img, ShadowOptions{Radius: 2, Offset: image.Pt(-5, 0), Opacity: 1, Color: color.RGBA{A: 255}})
	if at != (image.Pt(7, 2)) {
		t.Fatalf("content at %v, want (7,2)", at)
	}
	if got := out.RGBAAt(at.X, at.Y); got != (color.RGBA{G: 255, A: 255}) {
		t.Fatalf("content pixel = %v", got)
	}
}

func TestDropShadowDisabled(t *testing.T) {
	fill := color.RGBA{R: 200, G: 100, B: 50, A: 255}
	img := solid(4, 4, fill)
	out, at := DropShadow(img, ShadowOptions{Radius: 12, Offset: image.Pt(20, 10)})
	if out.Bounds() != img.Bounds() || at != (image.Point{}) {
		t.Fatalf("bounds = %v at %v", out.Bounds(), at)
	}
	if out.RGBAAt(3, 3) != fill {
		t.Fatalf("pixel = %v", out.RGBAAt(3, 3))
	}
}

func TestDropShadowPaper(t *testing.T) {
	paper := color.RGBA{255, 255, 255, 255}
	opts := DefaultShadowOptions()
	opts.Paper = paper
	out, _ := DropShadow(solid(40, 40, color.RGBA{B: 255, A: 255}), opts)
	if got := out.RGBAAt(0, out.Bounds().Dy()-1); got != paper {
		t.Fatalf("corner = %v, want paper", got)
	}
}

func TestBoxBlurSpreads(t *testing.T) {
	m := image.NewAlpha(image.Rect(0, 0, 9, 9))
	m.SetAlpha(4, 4, color.Alpha{A: 255})
	boxBlur(m, 1)
	if m.AlphaAt(4, 4).A == 0 || m.AlphaAt(5, 5).A == 0 {
		t.Fatalf("blur did not spread: centre=%d diag=%d", m.AlphaAt(4, 4).A, m.AlphaAt(5, 5).A)
	}
	if m.AlphaAt(7, 4).A != 0 {
		t.Fatalf("blur spread beyond its radius")
	}
}
