package main

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/visionlearn/internal/canvas"
)

// editOp is one scripted gesture.
type editOp struct {
	name string
	pts  []canvas.Point
}

// editCmd replays gestures against an editor and saves the result.
type editCmd struct {
	file        string
	output      string
	colorSpec   string
	width       float64
	displaySpec string
	display     *canvas.Rect
	toClipboard bool
	ops         []editOp
	*root
	fs *flag.FlagSet
}

func (e *editCmd) FlagSet() *flag.FlagSet {
	return e.fs
}

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	e := &editCmd{root: r, fs: fs}
	fs.Usage = usageFunc(e)
	fs.StringVar(&e.file, "file", "", "input image file")
	fs.StringVar(&e.output, "output", "annotated.png", "output file path")
	fs.StringVar(&e.colorSpec, "color", "", "stroke color name or hex value (default from config)")
	fs.Float64Var(&e.width, "width", 0, "stroke width in canvas units (default from config)")
	fs.StringVar(&e.displaySpec, "display", "", "treat coordinates as pointer positions in a WxH display")
	fs.BoolVar(&e.toClipboard, "to-clipboard", false, "copy the result to the clipboard")
	fs.BoolVar(&e.toClipboard, "to-clip", false, "copy the result to the clipboard (alias)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if e.file == "" {
		return nil, usageErrorf(e, "input file is required")
	}
	if fs.NArg() < 1 {
		return nil, &UsageError{of: e}
	}
	ops, err := parseEditOps(fs.Args())
	if err != nil {
		return nil, err
	}
	e.ops = ops
	if e.displaySpec != "" {
		w, h, err := parseSize(e.displaySpec)
		if err != nil {
			return nil, err
		}
		e.display = &canvas.Rect{Width: w, Height: h}
	}
	return e, nil
}

func parseEditOps(args []string) ([]editOp, error) {
	var ops []editOp
	for i := 0; i < len(args); {
		name := strings.ToLower(args[i])
		i++
		nums := 0
		for i+nums < len(args) && isNumber(args[i+nums]) {
			nums++
		}
		values, err := expectFloats(args[i:i+nums], nums, name)
		if err != nil {
			return nil, err
		}
		i += nums
		switch name {
		case "rect", "crop":
			if nums != 4 {
				return nil, fmt.Errorf("%s requires x0 y0 x1 y1", name)
			}
		case "pen":
			if nums < 4 || nums%2 != 0 {
				return nil, fmt.Errorf("pen requires at least two x y points")
			}
		case "undo":
			if nums != 0 {
				return nil, fmt.Errorf("undo takes no arguments")
			}
		default:
			return nil, fmt.Errorf("unsupported operation %q", name)
		}
		op := editOp{name: name}
		for j := 0; j+1 < len(values); j += 2 {
			op.pts = append(op.pts, canvas.Point{X: values[j], Y: values[j+1]})
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func expectFloats(args []string, n int, name string) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s requires %d numbers", name, n)
	}
	out := make([]float64, n)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid number %q", name, a)
		}
		out[i] = v
	}
	return out, nil
}

// parseSize reads "WxH".
func parseSize(s string) (float64, float64, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q, want WxH", s)
	}
	vals, err := expectFloats(parts, 2, "size")
	if err != nil {
		return 0, 0, err
	}
	if vals[0] <= 0 || vals[1] <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q, want positive dimensions", s)
	}
	return vals[0], vals[1], nil
}

func (e *editCmd) toLogical(ed *canvas.Editor, p canvas.Point) canvas.Point {
	if e.display == nil {
		return p
	}
	return canvas.ToLogical(p.X, p.Y, *e.display, ed.Logical())
}

// apply feeds op through the editor as pointer events.
func (e *editCmd) apply(ed *canvas.Editor, op editOp) error {
	if op.name == "undo" {
		ed.Undo()
		return nil
	}
	tool := canvas.ToolRectangle
	switch op.name {
	case "pen":
		tool = canvas.ToolFreehand
	case "crop":
		tool = canvas.ToolCrop
	}
	ed.SetTool(tool)
	pts := make([]canvas.Point, len(op.pts))
	for i, p := range op.pts {
		pts[i] = e.toLogical(ed, p)
	}
	if !ed.PointerDown(pts[0]) {
		return canvas.ErrNoSource
	}
	for _, p := range pts[1 : len(pts)-1] {
		ed.PointerMove(p)
	}
	ed.PointerUp(pts[len(pts)-1])
	if op.name == "crop" {
		if err := ed.ConfirmCrop(); err != nil {
			return fmt.Errorf("crop: %w", err)
		}
	}
	return nil
}

func (e *editCmd) Run() error {
	ed, err := e.root.newEditor()
	if err != nil {
		return err
	}
	style := ed.Style()
	if e.colorSpec != "" {
		c, err := canvas.ParseColor(e.colorSpec)
		if err != nil {
			return err
		}
		style.Color = c
	}
	if e.width > 0 {
		style.Width = e.width
	}
	ed.SetStyle(style)

	src, err := readSource(e.file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", e.file, err)
	}
	if err := ed.LoadSource(src.Data); err != nil {
		return fmt.Errorf("failed to decode %s: %w", e.file, err)
	}
	for _, op := range e.ops {
		if err := e.apply(ed, op); err != nil {
			if errors.Is(err, canvas.ErrNoCropRegion) {
				return fmt.Errorf("%w: the crop region is smaller than %dx%d", err, canvas.MinCropExtent, canvas.MinCropExtent)
			}
			return err
		}
	}

	session := e.root.plainSession(ed)
	session.Output = e.output
	path, err := session.Save()
	if err != nil {
		return err
	}
	saved := path
	if abs, err := filepath.Abs(path); err == nil {
		saved = abs
	}
	fmt.Fprintf(e.root.errOut(), "saved %s\n", saved)
	if e.toClipboard {
		if err := session.Copy(); err != nil {
			return err
		}
		fmt.Fprintf(e.root.errOut(), "copied %s to clipboard\n", filepath.Base(path))
	}
	return nil
}
