package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/example/visionlearn/internal/acquire"
	"github.com/example/visionlearn/internal/appstate"
	"github.com/example/visionlearn/internal/capture"
)

var (
	fromFileFn      = acquire.FromFile
	fromReaderFn    = acquire.FromReader
	listMonitorsFn  = capture.ListMonitors
	fromClipboardFn = acquire.FromClipboard
	fromCaptureFn   = acquire.FromCapture
	runWindowFn     = func(a *appstate.AppState) { a.Run() }
)

// annotateCmd represents the annotate subcommand.
type annotateCmd struct {
	file          string
	output        string
	fromClipboard bool
	capture       bool
	interactive   bool
	monitor       string
	cursor        bool
	listMonitors  bool
	*root
	fs *flag.FlagSet
}

func (a *annotateCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func parseAnnotateCmd(args []string, r *root) (*annotateCmd, error) {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)
	a := &annotateCmd{root: r, fs: fs}
	fs.Usage = usageFunc(a)
	fs.StringVar(&a.file, "file", "", "image file to annotate")
	fs.StringVar(&a.output, "output", "annotated.png", "where Ctrl+S saves the flattened canvas")
	fs.BoolVar(&a.fromClipboard, "from-clipboard", false, "start with the clipboard image")
	fs.BoolVar(&a.fromClipboard, "from-clip", false, "start with the clipboard image (alias)")
	fs.BoolVar(&a.capture, "capture", false, "start with a screen capture")
	fs.BoolVar(&a.interactive, "interactive", false, "let the desktop portal ask which area to capture")
	fs.StringVar(&a.monitor, "monitor", "", "capture only this monitor (index or name)")
	fs.BoolVar(&a.cursor, "cursor", false, "include the mouse cursor in captures")
	fs.BoolVar(&a.listMonitors, "list-monitors", false, "print the monitors -monitor accepts and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	sources := 0
	for _, set := range []bool{a.file != "", a.fromClipboard, a.capture} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return nil, usageErrorf(a, "-file, -from-clipboard and -capture are exclusive")
	}
	if fs.NArg() > 0 {
		return nil, &UsageError{of: a}
	}
	return a, nil
}

func (a *annotateCmd) captureOptions() capture.Options {
	return capture.Options{Interactive: a.interactive, IncludeCursor: a.cursor, Monitor: a.monitor}
}

// loadSource returns the initial source, or ok false for an empty window.
func (a *annotateCmd) loadSource(ctx context.Context) (src acquire.Source, ok bool, err error) {
	switch {
	case a.file != "":
		src, err = readSource(a.file)
		if err != nil {
			return src, false, fmt.Errorf("failed to open %s: %w", a.file, err)
		}
	case a.fromClipboard:
		src, err = fromClipboardFn()
		if err != nil {
			return src, false, fmt.Errorf("failed to paste clipboard: %w", err)
		}
	case a.capture:
		src, err = fromCaptureFn(ctx, a.captureOptions())
		if err != nil {
			return src, false, fmt.Errorf("failed to capture screen: %w", err)
		}
	default:
		return src, false, nil
	}
	return src, true, nil
}

func (a *annotateCmd) printMonitors() error {
	monitors, err := listMonitorsFn()
	if err != nil {
		return fmt.Errorf("failed to list monitors: %w", err)
	}
	for _, m := range monitors {
		primary := ""
		if m.Primary {
			primary = " primary"
		}
		fmt.Fprintf(a.root.out(), "#%d %s %dx%d+%d+%d%s\n", m.Index, m.Name, m.Rect.Dx(), m.Rect.Dy(), m.Rect.Min.X, m.Rect.Min.Y, primary)
	}
	return nil
}

func (a *annotateCmd) Run() error {
	if a.listMonitors {
		return a.printMonitors()
	}
	src, ok, err := a.loadSource(context.Background())
	if err != nil {
		return err
	}
	ed, err := a.root.newEditor()
	if err != nil {
		return err
	}
	session, closeHistory := a.root.newSession(ed)
	defer closeHistory()
	if a.output != "" {
		session.Output = a.output
	}

	title := "VisionLearn"
	if ok && src.Kind == acquire.KindFile {
		title = "VisionLearn - " + filepath.Base(src.Origin)
	}
	opts := []appstate.Option{
		appstate.WithTheme(a.root.activeTheme),
		appstate.WithCaptureOptions(a.captureOptions()),
		appstate.WithLogger(a.root.logger()),
		appstate.WithTitle(title),
	}
	if ok {
		opts = append(opts, appstate.WithSource(src))
	}
	runWindowFn(appstate.New(session, opts...))
	return nil
}
