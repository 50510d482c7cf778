package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/example/visionlearn/internal/export"
)

type exportCmd struct {
	file      string
	output    string
	format    string
	shadow    bool
	title     string
	topicSpec string
	*root
	fs *flag.FlagSet
}

func (e *exportCmd) FlagSet() *flag.FlagSet {
	return e.fs
}

func parseExportCmd(args []string, r *root) (*exportCmd, error) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	e := &exportCmd{root: r, fs: fs}
	fs.Usage = usageFunc(e)
	fs.StringVar(&e.file, "file", "", "input image file")
	fs.StringVar(&e.output, "output", "", "output file path")
	fs.StringVar(&e.format, "format", "", "png or pdf (default from the output extension)")
	fs.BoolVar(&e.shadow, "shadow", false, "add a drop shadow around the canvas")
	fs.StringVar(&e.title, "title", "", "title printed above the image in PDF output")
	fs.StringVar(&e.topicSpec, "topics", "", "comma separated topics listed in PDF output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if e.file == "" || e.output == "" || fs.NArg() > 0 {
		return nil, &UsageError{of: e}
	}
	if e.format == "" {
		e.format = e.output
	}
	if _, err := export.ParseFormat(e.format); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *exportCmd) Run() error {
	format, err := export.ParseFormat(e.format)
	if err != nil {
		return err
	}
	ed, err := e.root.loadEditor(e.file)
	if err != nil {
		return err
	}
	title := e.title
	if title == "" {
		title = filepath.Base(e.file)
	}
	if dir := filepath.Dir(e.output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := os.Create(e.output)
	if err != nil {
		return err
	}
	defer func(out *os.File) {
		if err := out.Close(); err != nil {
			log.Printf("error closing %q: %v", out.Name(), err)
		}
	}(out)
	opts := export.Options{Format: format, Shadow: e.shadow, Title: title, Topics: splitTopics(e.topicSpec)}
	if err := export.Write(out, ed.Flatten(), opts); err != nil {
		return fmt.Errorf("failed to export %s: %w", e.output, err)
	}
	saved := e.output
	if abs, err := filepath.Abs(e.output); err == nil {
		saved = abs
	}
	fmt.Fprintf(e.root.errOut(), "saved %s\n", saved)
	e.root.notifySave(saved)
	return nil
}
