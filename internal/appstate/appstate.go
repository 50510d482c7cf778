package appstate

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/visionlearn/internal/canvas"
	"github.com/example/visionlearn/internal/theme"
)

const (
	toolbarWidth = 96
	topicsWidth  = 260
	statusHeight = 24
	rowHeight    = 24
	swatchSize   = 18
	hintGap      = 8
	hintPadding  = 6
)

// Layout places the window regions for a given window size.
type Layout struct {
	Toolbar image.Rectangle
	Area    image.Rectangle // space available to the canvas
	Topics  image.Rectangle
	Status  image.Rectangle
	// Display is where the logical canvas is drawn, contained and centred
	// in Area.
	Display canvas.Rect
}

func computeLayout(winW, winH int, logical canvas.Size) Layout {
	bottom := winH - statusHeight
	if bottom < 0 {
		bottom = 0
	}
	topicsX := winW - topicsWidth
	if topicsX < toolbarWidth {
		topicsX = toolbarWidth
	}
	l := Layout{
		Toolbar: image.Rect(0, 0, toolbarWidth, bottom),
		Area:    image.Rect(toolbarWidth, 0, topicsX, bottom),
		Topics:  image.Rect(topicsX, 0, winW, bottom),
		Status:  image.Rect(0, bottom, winW, winH),
	}
	fit := canvas.FitRect(logical.Width, logical.Height, float64(l.Area.Dx()), float64(l.Area.Dy()))
	if fit.Valid() {
		l.Display = canvas.Rect{
			X:      float64(l.Area.Min.X) + fit.OffsetX,
			Y:      float64(l.Area.Min.Y) + fit.OffsetY,
			Width:  fit.DrawWidth,
			Height: fit.DrawHeight,
		}
	}
	return l
}

// DisplayPixels is Display rounded to window pixels.
func (l Layout) DisplayPixels() image.Rectangle { return l.Display.Pixels() }

// toWindow maps a logical rectangle to window pixels.
func (l Layout) toWindow(r canvas.Rect, logical canvas.Size) image.Rectangle {
	if logical.Width <= 0 || logical.Height <= 0 {
		return image.Rectangle{}
	}
	sx := l.Display.Width / logical.Width
	sy := l.Display.Height / logical.Height
	return image.Rect(
		int(math.Round(l.Display.X+r.X*sx)),
		int(math.Round(l.Display.Y+r.Y*sy)),
		int(math.Round(l.Display.X+(r.X+r.Width)*sx)),
		int(math.Round(l.Display.Y+(r.Y+r.Height)*sy)),
	)
}

// hintRect positions a box of the given size centred below box and keeps it
// inside bounds. When there is no room below, it moves inside the bottom
// edge of box.
func hintRect(box image.Rectangle, size image.Point, bounds image.Rectangle) image.Rectangle {
	x := box.Min.X + (box.Dx()-size.X)/2
	y := box.Max.Y + hintGap
	if y+size.Y > bounds.Max.Y {
		y = box.Max.Y - size.Y - hintGap
	}
	if x+size.X > bounds.Max.X {
		x = bounds.Max.X - size.X
	}
	if x < bounds.Min.X {
		x = bounds.Min.X
	}
	if y+size.Y > bounds.Max.Y {
		y = bounds.Max.Y - size.Y
	}
	if y < bounds.Min.Y {
		y = bounds.Min.Y
	}
	return image.Rect(x, y, x+size.X, y+size.Y)
}

// topicIndexAt returns the topic row under y inside the topics panel, or -1.
// The first row is the panel title.
func topicIndexAt(panel image.Rectangle, y, count int) int {
	if y < panel.Min.Y+rowHeight {
		return -1
	}
	i := (y - panel.Min.Y - rowHeight) / rowHeight
	if i < 0 || i >= count {
		return -1
	}
	return i
}

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button is a clickable toolbar element.
type Button interface {
	Draw(dst *image.RGBA, th *theme.Theme, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

// ActionButton is a labelled button that runs an action.
type ActionButton struct {
	label      string
	rect       image.Rectangle
	onActivate func()
}

func buttonColor(th *theme.Theme, state ButtonState) color.RGBA {
	switch state {
	case StateHover:
		return th.ButtonBackgroundHover
	case StatePressed:
		return th.ButtonActive
	}
	return th.ButtonBackground
}

func (b *ActionButton) Draw(dst *image.RGBA, th *theme.Theme, state ButtonState) {
	draw.Draw(dst, b.rect, image.NewUniform(buttonColor(th, state)), image.Point{}, draw.Src)
	drawRect(dst, b.rect, th.ButtonBorder, 1)
	drawLabel(dst, b.rect.Min.X+4, b.rect.Min.Y+16, b.label, th.ButtonText)
}

func (b *ActionButton) Rect() image.Rectangle     { return b.rect }
func (b *ActionButton) SetRect(r image.Rectangle) { b.rect = r }
func (b *ActionButton) Activate() {
	if b.onActivate != nil {
		b.onActivate()
	}
}

// ToolButton selects an annotation tool and shows as pressed while the tool
// is active.
type ToolButton struct {
	ActionButton
	tool   canvas.Tool
	active func() canvas.Tool
}

func (b *ToolButton) Draw(dst *image.RGBA, th *theme.Theme, state ButtonState) {
	if b.active != nil && b.active() == b.tool {
		state = StatePressed
	}
	b.ActionButton.Draw(dst, th, state)
}

// SwatchButton selects a stroke colour or width.
type SwatchButton struct {
	rect     image.Rectangle
	color    color.RGBA
	width    float64
	selected func() bool
	onSelect func()
}

func (b *SwatchButton) Draw(dst *image.RGBA, th *theme.Theme, state ButtonState) {
	bg := buttonColor(th, state)
	if b.selected != nil && b.selected() {
		bg = th.ButtonActive
	}
	draw.Draw(dst, b.rect, image.NewUniform(bg), image.Point{}, draw.Src)
	inner := b.rect.Inset(3)
	if b.width > 0 {
		h := int(b.width)
		if h < 1 {
			h = 1
		}
		cy := inner.Min.Y + inner.Dy()/2
		inner = image.Rect(inner.Min.X, cy-h/2, inner.Max.X, cy-h/2+h)
		draw.Draw(dst, inner, image.NewUniform(th.ButtonText), image.Point{}, draw.Src)
	} else {
		draw.Draw(dst, inner, image.NewUniform(b.color), image.Point{}, draw.Src)
	}
	drawRect(dst, b.rect, th.ButtonBorder, 1)
}

func (b *SwatchButton) Rect() image.Rectangle     { return b.rect }
func (b *SwatchButton) SetRect(r image.Rectangle) { b.rect = r }
func (b *SwatchButton) Activate() {
	if b.onSelect != nil {
		b.onSelect()
	}
}

// placeToolbar lays buttons out top to bottom: full-width rows for labelled
// buttons, rows of swatches otherwise.
func placeToolbar(bar image.Rectangle, buttons []Button) {
	x, y := bar.Min.X+4, bar.Min.Y+4
	for _, b := range buttons {
		if _, ok := b.(*SwatchButton); ok {
			if x+swatchSize > bar.Max.X-4 {
				x = bar.Min.X + 4
				y += swatchSize + 4
			}
			b.SetRect(image.Rect(x, y, x+swatchSize, y+swatchSize))
			x += swatchSize + 4
			continue
		}
		if x != bar.Min.X+4 {
			x = bar.Min.X + 4
			y += swatchSize + 8
		}
		b.SetRect(image.Rect(bar.Min.X+4, y, bar.Max.X-4, y+rowHeight-2))
		y += rowHeight
	}
}

func drawLabel(dst *image.RGBA, x, baseline int, s string, col color.Color) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: basicfont.Face7x13, Dot: fixed.P(x, baseline)}
	d.DrawString(s)
}

func textWidth(s string) int {
	d := &font.Drawer{Face: basicfont.Face7x13}
	return d.MeasureString(s).Ceil()
}

// truncate shortens s with "..." to fit within px pixels.
func truncate(s string, px int) string {
	if textWidth(s) <= px {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && textWidth(string(r)+"...") > px {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	u := image.NewUniform(col)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thick), u, image.Point{}, draw.Over)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Max.Y-thick, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Over)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thick, rect.Max.Y), u, image.Point{}, draw.Over)
	draw.Draw(img, image.Rect(rect.Max.X-thick, rect.Min.Y, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Over)
}
