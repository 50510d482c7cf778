package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/example/visionlearn/internal/canvas"
	"github.com/example/visionlearn/internal/lesson"
)

type lessonCmd struct {
	topicSpec string
	restoreID string
	typeName  string
	extra     string
	subdivide bool
	output    string
	dir       string
	file      string
	age       int
	pro       bool
	*root
	fs *flag.FlagSet
}

func (l *lessonCmd) FlagSet() *flag.FlagSet {
	return l.fs
}

func parseLessonCmd(args []string, r *root) (*lessonCmd, error) {
	fs := flag.NewFlagSet("lesson", flag.ExitOnError)
	l := &lessonCmd{root: r, fs: fs}
	fs.Usage = usageFunc(l)
	fs.StringVar(&l.topicSpec, "topics", "", "comma separated topics")
	fs.StringVar(&l.restoreID, "from-history", "", "reuse the topics and type of a past lesson")
	fs.StringVar(&l.typeName, "type", "", "lesson type (default from config)")
	fs.StringVar(&l.extra, "extra", "", "extra instructions for the lesson")
	fs.BoolVar(&l.subdivide, "subdivide", false, "replace the topics with their prerequisites first")
	fs.StringVar(&l.output, "output", "", "write the page here instead of a generated name")
	fs.StringVar(&l.dir, "dir", "", "directory for generated pages (default save_dir or .)")
	fs.StringVar(&l.file, "file", "", "image whose thumbnail is stored with the lesson")
	fs.IntVar(&l.age, "age", 0, "learner age (default from config)")
	fs.BoolVar(&l.pro, "pro", false, "use the pro models")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, &UsageError{of: l}
	}
	if l.restoreID != "" && l.topicSpec != "" {
		return nil, usageErrorf(l, "-topics and -from-history are exclusive")
	}
	if l.restoreID == "" && len(splitTopics(l.topicSpec)) == 0 {
		return nil, usageErrorf(l, "at least one topic is required")
	}
	if l.typeName != "" {
		if _, err := lesson.ParseType(l.typeName); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func splitTopics(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (l *lessonCmd) Run() error {
	if _, err := l.root.lessonService(); err != nil {
		return err
	}
	var (
		ed       *canvas.Editor
		snapshot []byte
		err      error
	)
	if l.file != "" {
		ed, err = l.root.loadEditor(l.file)
	} else {
		ed, err = l.root.newEditor()
	}
	if err != nil {
		return err
	}
	session, closeHistory := l.root.newSession(ed)
	defer closeHistory()
	if ed.HasSource() {
		if snapshot, err = session.Snapshot(); err != nil {
			return err
		}
	}
	ctx, cancel := signalContext()
	defer cancel()

	if l.restoreID != "" {
		e, err := session.Restore(ctx, l.restoreID)
		if err != nil {
			return fmt.Errorf("lesson %s: %w", l.restoreID, err)
		}
		fmt.Fprintf(l.root.errOut(), "restored %s: %s\n", e.ID, strings.Join(e.Topics, ", "))
	} else {
		session.Topics.Reset(splitTopics(l.topicSpec))
		session.Topics.SelectAll()
	}
	if l.age > 0 {
		session.Age = l.age
	}
	if l.typeName != "" {
		session.LessonType, _ = lesson.ParseType(l.typeName)
	}
	if l.pro {
		session.ProMode = true
	}
	if l.dir != "" {
		session.LessonDir = l.dir
	}
	session.LessonPath = l.output
	session.Extra = l.extra

	if l.subdivide {
		sub, err := session.Subdivide(ctx, session.Topics.Selected(), session.Age)
		if err != nil {
			return fmt.Errorf("failed to subdivide topics: %w", err)
		}
		session.Topics.Merge(sub)
		fmt.Fprintf(l.root.errOut(), "topics: %s\n", strings.Join(session.Topics.Selected(), ", "))
	}

	path, err := session.Lesson(ctx, session.LessonRequest(), snapshot)
	if err != nil {
		return fmt.Errorf("failed to generate lesson: %w", err)
	}
	fmt.Fprintln(l.root.out(), path)
	return nil
}
