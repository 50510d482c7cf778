package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/example/visionlearn/internal/canvas"
)

type analyzeCmd struct {
	file string
	age  int
	*root
	fs *flag.FlagSet
}

func (a *analyzeCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func parseAnalyzeCmd(args []string, r *root) (*analyzeCmd, error) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	a := &analyzeCmd{root: r, fs: fs}
	fs.Usage = usageFunc(a)
	fs.StringVar(&a.file, "file", "", "image to analyze")
	fs.IntVar(&a.age, "age", 0, "learner age (default from config)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if a.file == "" || fs.NArg() > 0 {
		return nil, &UsageError{of: a}
	}
	return a, nil
}

// loadEditor opens path in a new editor and decodes it.
func (r *root) loadEditor(path string) (*canvas.Editor, error) {
	ed, err := r.newEditor()
	if err != nil {
		return nil, err
	}
	src, err := readSource(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := ed.LoadSource(src.Data); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return ed, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func (a *analyzeCmd) Run() error {
	if _, err := a.root.lessonService(); err != nil {
		return err
	}
	ed, err := a.root.loadEditor(a.file)
	if err != nil {
		return err
	}
	session, closeHistory := a.root.newSession(ed)
	defer closeHistory()
	if a.age > 0 {
		session.Age = a.age
	}
	png, err := session.Snapshot()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	topics, err := session.Analyze(ctx, png, session.Age)
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", a.file, err)
	}
	if len(topics) == 0 {
		fmt.Fprintln(a.root.errOut(), "no topics found")
		return nil
	}
	for _, t := range topics {
		fmt.Fprintln(a.root.out(), t)
	}
	return nil
}
