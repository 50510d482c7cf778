package canvas

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/example/visionlearn/internal/theme"
	"golang.org/x/image/colornames"
)

// Kind identifies the shape an annotation draws.
type Kind int

const (
	KindRectangle Kind = iota
	KindFreehand
	KindCropMarker
)

func (k Kind) String() string {
	switch k {
	case KindRectangle:
		return "rectangle"
	case KindFreehand:
		return "freehand"
	case KindCropMarker:
		return "crop"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Tool selects how new pointer gestures are interpreted.
type Tool int

const (
	ToolRectangle Tool = iota
	ToolFreehand
	ToolCrop
)

func (t Tool) String() string {
	switch t {
	case ToolRectangle:
		return "rect"
	case ToolFreehand:
		return "pen"
	case ToolCrop:
		return "crop"
	default:
		return fmt.Sprintf("tool(%d)", int(t))
	}
}

// Kind returns the annotation kind gestures made with t produce.
func (t Tool) Kind() Kind {
	switch t {
	case ToolFreehand:
		return KindFreehand
	case ToolCrop:
		return KindCropMarker
	default:
		return KindRectangle
	}
}

// ParseTool accepts the names printed by Tool.String along with a few aliases.
func ParseTool(s string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rect", "rectangle", "box":
		return ToolRectangle, nil
	case "pen", "freehand", "draw":
		return ToolFreehand, nil
	case "crop":
		return ToolCrop, nil
	}
	return ToolRectangle, fmt.Errorf("unknown tool %q", s)
}

// Style is the stroke applied to new annotations.
type Style struct {
	Color color.RGBA
	Width float64
}

// PaletteColor names a preset stroke colour.
type PaletteColor struct {
	Name  string
	Color color.RGBA
}

var palette = []PaletteColor{
	{Name: "red", Color: color.RGBA{0xef, 0x44, 0x44, 0xff}},
	{Name: "green", Color: color.RGBA{0x22, 0xc5, 0x5e, 0xff}},
	{Name: "blue", Color: color.RGBA{0x3b, 0x82, 0xf6, 0xff}},
	{Name: "yellow", Color: color.RGBA{0xea, 0xb3, 0x08, 0xff}},
}

var strokeWidths = []float64{2, 4, 8}

// Palette returns the preset stroke colours. The first entry is the default.
func Palette() []PaletteColor {
	out := make([]PaletteColor, len(palette))
	copy(out, palette)
	return out
}

// StrokeWidths returns the preset stroke widths.
func StrokeWidths() []float64 {
	out := make([]float64, len(strokeWidths))
	copy(out, strokeWidths)
	return out
}

// DefaultStyle is the stroke used before the user picks one.
func DefaultStyle() Style {
	return Style{Color: palette[0].Color, Width: strokeWidths[1]}
}

// ParseColor resolves a palette name, an SVG colour name or a #RRGGBB[AA]
// hex value.
func ParseColor(s string) (color.RGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return color.RGBA{}, fmt.Errorf("empty color")
	}
	for _, p := range palette {
		if p.Name == name {
			return p.Color, nil
		}
	}
	if strings.HasPrefix(name, "#") {
		return theme.ParseColor(name)
	}
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	return color.RGBA{}, fmt.Errorf("unknown color %q", s)
}

// Crop markers ignore the selected style.
var (
	cropMarkerStyle = Style{Color: color.RGBA{0x3b, 0x82, 0xf6, 0xff}, Width: 2}
	cropDash        = 5
)

// Annotation is a single committed or in-progress mark on the canvas. For
// rectangles and crop markers only the first and last points matter.
type Annotation struct {
	Kind   Kind
	Color  color.RGBA
	Width  float64
	Points []Point
}

// Start returns the first point.
func (a Annotation) Start() Point {
	if len(a.Points) == 0 {
		return Point{}
	}
	return a.Points[0]
}

// End returns the most recent point.
func (a Annotation) End() Point {
	if len(a.Points) == 0 {
		return Point{}
	}
	return a.Points[len(a.Points)-1]
}

// Box returns the normalised rectangle between the first and last points.
func (a Annotation) Box() Rect { return RectFromCorners(a.Start(), a.End()) }

func (a *Annotation) extend(p Point) {
	if a.Kind == KindFreehand || len(a.Points) < 2 {
		a.Points = append(a.Points, p)
		return
	}
	a.Points = []Point{a.Points[0], p}
}

func (a Annotation) clone() Annotation {
	pts := make([]Point, len(a.Points))
	copy(pts, a.Points)
	a.Points = pts
	return a
}
