package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/example/visionlearn/internal/acquire"
	"github.com/example/visionlearn/internal/appstate"
	"github.com/example/visionlearn/internal/canvas"
	"github.com/example/visionlearn/internal/config"
	"github.com/example/visionlearn/internal/history"
	"github.com/example/visionlearn/internal/lesson"
	"github.com/example/visionlearn/internal/logging"
	"github.com/example/visionlearn/internal/notify"
	"github.com/example/visionlearn/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs            *flag.FlagSet
	program       string
	notifier      *notify.Notifier
	config        *config.Config
	log           *zap.Logger
	configPath    string
	logMode       string
	captureAlerts bool
	saveAlerts    bool
	copyAlerts    bool
	noticeAlerts  bool
	themeName     string
	activeTheme   *theme.Theme
	stdout        io.Writer
	stderr        io.Writer
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:      flag.NewFlagSet("visionlearn", flag.ExitOnError),
		program: "visionlearn",
		config:  cfg,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	r.fs.StringVar(&r.configPath, "config", "", "read configuration from this rc file")
	r.fs.StringVar(&r.logMode, "log", "", "log mode (dev, release, quiet)")
	r.fs.BoolVar(&r.captureAlerts, "notify-capture", cfg.Notify.Capture, "show a desktop notification after capturing the screen")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving an image or lesson")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.BoolVar(&r.noticeAlerts, "notify-notice", cfg.Notify.Notice, "show guidance such as refused clipboard access as a notification")

	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use ("+strings.Join(theme.Names(), ", ")+")")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.configPath != "" {
		cfg, err := config.NewLoader(version, r.configPath).Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		r.config = cfg
	}
	if err := r.setupLogger(); err != nil {
		return err
	}
	r.notifier = notify.New(notify.LoadPreferences(), r.log)
	r.notifier.Enable(notify.EventCapture, r.captureAlerts)
	r.notifier.Enable(notify.EventSave, r.saveAlerts)
	r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	r.notifier.Enable(notify.EventNotice, r.noticeAlerts)
	r.activeTheme = r.loadTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "annotate":
		cmd, err = parseAnnotateCmd(subArgs, r)
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "session":
		cmd, err = parseSessionCmd(subArgs, r)
	case "fit":
		cmd, err = parseFitCmd(subArgs, r)
	case "analyze":
		cmd, err = parseAnalyzeCmd(subArgs, r)
	case "lesson":
		cmd, err = parseLessonCmd(subArgs, r)
	case "export":
		cmd, err = parseExportCmd(subArgs, r)
	case "history":
		cmd, err = parseHistoryCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{root: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func (r *root) setupLogger() error {
	mode := r.logMode
	if mode == "" {
		mode = os.Getenv("VISIONLEARN_LOG")
	}
	if mode == "" {
		mode = r.config.Log
	}
	l, err := logging.New(mode)
	if err != nil {
		return err
	}
	r.log = l
	return nil
}

func (r *root) loadTheme() *theme.Theme {
	themeName := r.themeName
	if themeName == "" {
		themeName = os.Getenv("VISIONLEARN_THEME")
	}
	if themeName == "" {
		themeName = r.config.Theme
	}
	if cfgTheme, ok := r.config.Themes[themeName]; ok {
		return cfgTheme
	}
	t, err := theme.NewLoader().Load(themeName)
	if err != nil {
		fmt.Fprintf(r.stderr, "warning: failed to load theme '%s': %v. using default.\n", themeName, err)
		return theme.Default()
	}
	return t
}

func (r *root) logger() *zap.Logger {
	if r == nil || r.log == nil {
		return zap.NewNop()
	}
	return r.log
}

func (r *root) cfg() *config.Config {
	if r == nil || r.config == nil {
		return config.New()
	}
	return r.config
}

// newEditor builds an editor sized and styled from the configuration.
func (r *root) newEditor() (*canvas.Editor, error) {
	cfg := r.cfg()
	size := canvas.Size{Width: float64(cfg.Canvas.Width), Height: float64(cfg.Canvas.Height)}
	style := canvas.DefaultStyle()
	if cfg.Canvas.Color != "" {
		c, err := canvas.ParseColor(cfg.Canvas.Color)
		if err != nil {
			return nil, fmt.Errorf("canvas color: %w", err)
		}
		style.Color = c
	}
	if cfg.Canvas.LineWidth > 0 {
		style.Width = cfg.Canvas.LineWidth
	}
	th := theme.Default()
	if r != nil && r.activeTheme != nil {
		th = r.activeTheme
	}
	return canvas.NewEditor(
		canvas.WithLogicalSize(size),
		canvas.WithStyle(style),
		canvas.WithRenderer(canvas.NewRenderer(size, th)),
		canvas.WithLogger(r.logger()),
	), nil
}

// lessonService returns the AI service or lesson.ErrNoAPIKey.
func (r *root) lessonService() (*lesson.Service, error) {
	cfg := r.cfg()
	key := cfg.APIKey()
	if key == "" {
		return nil, lesson.ErrNoAPIKey
	}
	client := lesson.NewClient(cfg.AI.Endpoint, key, cfg.AI.Timeout, r.logger())
	models := lesson.Models{
		Text:     cfg.AI.Model,
		ProText:  cfg.AI.ProModel,
		Image:    cfg.AI.ImageModel,
		ProImage: cfg.AI.ProImageModel,
	}
	return lesson.NewService(client, models, r.logger()), nil
}

func (r *root) openHistory() (history.Store, error) {
	return history.Open(r.cfg(), r.logger())
}

// newSession wires an editor session to the configured services. Missing
// services only disable the features that need them.
func (r *root) newSession(ed *canvas.Editor) (*appstate.Session, func()) {
	cfg := r.cfg()
	opts := []appstate.SessionOption{appstate.WithSessionLogger(r.logger())}
	if r != nil && r.notifier != nil {
		opts = append(opts, appstate.WithNotifier(r.notifier))
	}
	if svc, err := r.lessonService(); err == nil {
		opts = append(opts, appstate.WithLessons(svc))
	}
	closeFn := func() {}
	if store, err := r.openHistory(); err != nil {
		r.logger().Warn("history unavailable", zap.Error(err))
	} else {
		opts = append(opts, appstate.WithHistory(store))
		closeFn = func() { _ = store.Close() }
	}
	s := appstate.NewSession(ed, opts...)
	if cfg.Settings.Age > 0 {
		s.Age = cfg.Settings.Age
	}
	if t, err := lesson.ParseType(cfg.Settings.LessonType); err == nil {
		s.LessonType = t
	}
	s.ProMode = cfg.Settings.ProMode
	if cfg.SaveDir != "" {
		s.LessonDir = cfg.SaveDir
	}
	return s, closeFn
}

// readSource loads an image file, or stdin for "-".
func readSource(path string) (acquire.Source, error) {
	if path == "-" {
		return fromReaderFn(os.Stdin, "stdin")
	}
	return fromFileFn(path)
}

// plainSession wraps ed without the AI service or history.
func (r *root) plainSession(ed *canvas.Editor) *appstate.Session {
	opts := []appstate.SessionOption{appstate.WithSessionLogger(r.logger())}
	if r != nil && r.notifier != nil {
		opts = append(opts, appstate.WithNotifier(r.notifier))
	}
	return appstate.NewSession(ed, opts...)
}

func (r *root) out() io.Writer {
	if r == nil || r.stdout == nil {
		return os.Stdout
	}
	return r.stdout
}

func (r *root) errOut() io.Writer {
	if r == nil || r.stderr == nil {
		return os.Stderr
	}
	return r.stderr
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(path)
}

func main() {
	r := newRoot()
	err := r.Run(os.Args[1:])
	logging.Sync(r.log)
	if err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, appstate.Message(err))
		os.Exit(1)
	}
}
