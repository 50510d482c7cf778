package main

import (
	"flag"
	"fmt"

	"github.com/example/visionlearn/internal/canvas"
)

type fitCmd struct {
	canvasSpec string
	srcW, srcH float64
	*root
	fs *flag.FlagSet
}

func (f *fitCmd) FlagSet() *flag.FlagSet {
	return f.fs
}

func parseFitCmd(args []string, r *root) (*fitCmd, error) {
	fs := flag.NewFlagSet("fit", flag.ExitOnError)
	f := &fitCmd{root: r, fs: fs}
	fs.Usage = usageFunc(f)
	fs.StringVar(&f.canvasSpec, "canvas", "", "logical canvas size WxH (default from config)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 2 {
		return nil, &UsageError{of: f}
	}
	v, err := expectFloats(fs.Args(), 2, "fit")
	if err != nil {
		return nil, err
	}
	f.srcW, f.srcH = v[0], v[1]
	return f, nil
}

func (f *fitCmd) Run() error {
	cfg := f.root.cfg()
	lw, lh := float64(cfg.Canvas.Width), float64(cfg.Canvas.Height)
	if f.canvasSpec != "" {
		var err error
		if lw, lh, err = parseSize(f.canvasSpec); err != nil {
			return err
		}
	}
	fit := canvas.FitRect(f.srcW, f.srcH, lw, lh)
	if !fit.Valid() {
		return fmt.Errorf("%w: %gx%g has no area", canvas.ErrDegenerateGeometry, f.srcW, f.srcH)
	}
	fmt.Fprintf(f.root.out(), "ratio=%g draw=%gx%g offset=%g,%g\n", fit.Ratio, fit.DrawWidth, fit.DrawHeight, fit.OffsetX, fit.OffsetY)
	return nil
}
