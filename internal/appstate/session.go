package appstate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	"github.com/example/visionlearn/internal/acquire"
	"github.com/example/visionlearn/internal/canvas"
	"github.com/example/visionlearn/internal/capture"
	"github.com/example/visionlearn/internal/clipboard"
	"github.com/example/visionlearn/internal/history"
	"github.com/example/visionlearn/internal/lesson"
	"github.com/example/visionlearn/internal/notify"
)

// ErrNoLessonService is returned by AI actions when no API client was
// configured.
var ErrNoLessonService = errors.New("lesson service not configured")

// ErrNoHistory is returned by Restore when no history store is attached.
var ErrNoHistory = errors.New("lesson history not available")

var (
	pasteFn          = acquire.FromClipboard
	captureFn        = acquire.FromCapture
	writeClipboardFn = clipboard.WriteImage
	nowFn            = time.Now
)

const thumbnailWidth = 320

// Session is one annotation and lesson workflow. Its editor and topic
// workspace must only be touched from the goroutine that owns the session;
// the AI and file methods documented as such may run elsewhere.
type Session struct {
	Editor *canvas.Editor
	Topics lesson.Workspace

	// Output is where Save writes the flattened canvas.
	Output string
	// LessonDir receives generated lesson pages.
	LessonDir string
	// LessonPath, when set, is used instead of a generated name in
	// LessonDir.
	LessonPath string

	Age        int
	LessonType lesson.Type
	ProMode    bool
	Extra      string

	lessons  *lesson.Service
	history  history.Store
	notifier *notify.Notifier
	log      *zap.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLessons sets the AI service used by Analyze, Subdivide and Generate.
func WithLessons(s *lesson.Service) SessionOption { return func(se *Session) { se.lessons = s } }

// WithHistory records generated lessons in h.
func WithHistory(h history.Store) SessionOption { return func(se *Session) { se.history = h } }

// WithNotifier routes user notices through n.
func WithNotifier(n *notify.Notifier) SessionOption { return func(se *Session) { se.notifier = n } }

// WithSessionLogger sets the logger.
func WithSessionLogger(l *zap.Logger) SessionOption { return func(se *Session) { se.log = l } }

// NewSession wraps ed.
func NewSession(ed *canvas.Editor, opts ...SessionOption) *Session {
	s := &Session{
		Editor:     ed,
		Output:     "annotated.png",
		LessonDir:  ".",
		Age:        8,
		LessonType: lesson.TypeSVG,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Load installs src as the new source. The returned generation must be
// decoded and handed back through Editor.ApplyDecode.
func (s *Session) Load(src acquire.Source) (uint64, error) {
	gen, err := s.Editor.ReplaceSource(src.Data)
	if err != nil {
		s.notice(err)
		return gen, err
	}
	s.Topics.Reset(nil)
	s.log.Info("source loaded", zap.Stringer("kind", src.Kind), zap.String("origin", src.Origin), zap.Int("bytes", len(src.Data)))
	return gen, nil
}

// Paste reads the clipboard and loads it.
func (s *Session) Paste() (uint64, error) {
	src, err := pasteFn()
	if err != nil {
		s.notice(err)
		return s.Editor.Generation(), err
	}
	return s.Load(src)
}

// Grab captures the screen. It blocks and may run off the owning goroutine;
// pass the result to Load.
func (s *Session) Grab(ctx context.Context, opts capture.Options) (acquire.Source, error) {
	src, err := captureFn(ctx, opts)
	if err != nil {
		s.notice(err)
		return acquire.Source{}, err
	}
	if img, derr := canvas.Decode(src.Data); derr == nil {
		s.notifier.Capture("screen", img)
	}
	return src, nil
}

// Reset drops the source, annotations and topics.
func (s *Session) Reset() {
	s.Editor.ClearSource()
	s.Topics.Reset(nil)
}

// Snapshot flattens the canvas to PNG.
func (s *Session) Snapshot() ([]byte, error) {
	if !s.Editor.HasSource() {
		return nil, canvas.ErrNoSource
	}
	var buf bytes.Buffer
	if err := s.Editor.ExportPNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the flattened canvas to Output.
func (s *Session) Save() (string, error) {
	data, err := s.Snapshot()
	if err != nil {
		return "", err
	}
	if err := writeFile(s.Output, data); err != nil {
		return "", fmt.Errorf("save %s: %w", s.Output, err)
	}
	s.notifier.Save(s.Output)
	return s.Output, nil
}

// Copy places the flattened canvas on the clipboard.
func (s *Session) Copy() error {
	data, err := s.Snapshot()
	if err != nil {
		return err
	}
	if err := writeClipboardFn(data); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	s.notifier.Copy("annotated image")
	return nil
}

// Analyze asks for the topics shown in png. Safe to call off the owning
// goroutine; apply the result with Topics.Reset.
func (s *Session) Analyze(ctx context.Context, png []byte, age int) ([]string, error) {
	if s.lessons == nil {
		return nil, ErrNoLessonService
	}
	return s.lessons.Analyze(ctx, png, age)
}

// Subdivide asks for the prerequisites of topics. Safe to call off the
// owning goroutine; apply the result with Topics.Merge.
func (s *Session) Subdivide(ctx context.Context, topics []string, age int) ([]string, error) {
	if s.lessons == nil {
		return nil, ErrNoLessonService
	}
	return s.lessons.Subdivide(ctx, topics, age)
}

// LessonRequest builds a generation request from the current selection and
// settings.
func (s *Session) LessonRequest() lesson.Request {
	return lesson.Request{
		Topics:  s.Topics.Selected(),
		Age:     s.Age,
		Type:    s.LessonType,
		ProMode: s.ProMode,
		Extra:   s.Extra,
	}
}

// Lesson generates the page for req, writes it under LessonDir and records
// it in the history with a thumbnail of snapshot. It may run off the owning
// goroutine.
func (s *Session) Lesson(ctx context.Context, req lesson.Request, snapshot []byte) (string, error) {
	if s.lessons == nil {
		return "", ErrNoLessonService
	}
	page, err := s.lessons.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	path := s.LessonPath
	if path == "" {
		name := fmt.Sprintf("lesson-%s-%s.html", nowFn().Format("20060102-150405"), slug(req.Topics))
		path = filepath.Join(s.LessonDir, name)
	}
	if err := writeFile(path, []byte(page)); err != nil {
		return "", fmt.Errorf("write lesson: %w", err)
	}
	s.notifier.Save(path)

	if s.history != nil {
		entry := history.NewEntry(req.Topics, page, thumbnail(snapshot), string(req.Type))
		if err := s.history.Add(ctx, entry); err != nil {
			s.log.Warn("history not updated", zap.Error(err))
		}
	}
	s.log.Info("lesson written", zap.String("path", path), zap.Strings("topics", req.Topics), zap.String("type", string(req.Type)))
	return path, nil
}

// Restore loads the topics and lesson type of a past lesson so it can be
// generated again. Every restored topic is selected.
func (s *Session) Restore(ctx context.Context, id string) (history.Entry, error) {
	if s.history == nil {
		return history.Entry{}, ErrNoHistory
	}
	e, err := s.history.Get(ctx, id)
	if err != nil {
		return history.Entry{}, err
	}
	s.Topics.Reset(e.Topics)
	s.Topics.SelectAll()
	if t, err := lesson.ParseType(e.Type); err == nil {
		s.LessonType = t
	}
	s.log.Debug("lesson restored", zap.String("id", e.ID), zap.Strings("topics", e.Topics))
	return e, nil
}

// Message returns the text shown for err in the status bar.
func Message(err error) string {
	if g := acquire.Guidance(err); g != "" {
		return g
	}
	switch {
	case errors.Is(err, canvas.ErrNoSource):
		return "load an image first"
	case errors.Is(err, canvas.ErrDecodePending):
		return "wait for the image to finish loading"
	case errors.Is(err, canvas.ErrNoCropRegion):
		return "drag a crop region first"
	case errors.Is(err, history.ErrNotFound):
		return "that lesson is no longer in the history"
	case errors.Is(err, lesson.ErrNoTopics):
		return "select at least one topic"
	case errors.Is(err, lesson.ErrNoAPIKey), errors.Is(err, ErrNoLessonService):
		return "set GEMINI_API_KEY to use the AI features"
	}
	return err.Error()
}

func (s *Session) notice(err error) {
	if g := acquire.Guidance(err); g != "" {
		s.notifier.Notice(g)
	}
	s.log.Info("acquisition failed", zap.Error(err))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// thumbnail scales a PNG down to thumbnailWidth and returns it as a data
// URL. Failures produce "".
func thumbnail(png []byte) string {
	if len(png) == 0 {
		return ""
	}
	img, err := canvas.Decode(png)
	if err != nil {
		return ""
	}
	b := img.Bounds()
	h := b.Dy() * thumbnailWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, thumbnailWidth, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	data, err := canvas.EncodePNG(dst)
	if err != nil {
		return ""
	}
	return acquire.EncodeDataURL("png", data)
}

func slug(topics []string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.Join(topics, " ")) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	out := b.String()
	if len(out) > 40 {
		out = strings.TrimRight(out[:40], "-")
	}
	if out == "" {
		return "lesson"
	}
	return out
}
