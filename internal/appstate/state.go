package appstate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/visionlearn/internal/acquire"
	"github.com/example/visionlearn/internal/canvas"
	"github.com/example/visionlearn/internal/capture"
	"github.com/example/visionlearn/internal/lesson"
	"github.com/example/visionlearn/internal/theme"
)

const messageDuration = 3 * time.Second

// AppState is the interactive editor window.
type AppState struct {
	Session *Session
	Title   string

	theme   *theme.Theme
	initial *acquire.Source
	capture capture.Options
	log     *zap.Logger

	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithTheme sets the window colours.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.theme = t } }

// WithSource loads src when the window opens.
func WithSource(src acquire.Source) Option { return func(a *AppState) { a.initial = &src } }

// WithCaptureOptions configures the capture key.
func WithCaptureOptions(o capture.Options) Option { return func(a *AppState) { a.capture = o } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(a *AppState) { a.log = l } }

// WithTitle sets the window title.
func WithTitle(t string) Option { return func(a *AppState) { a.Title = t } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState around s.
func New(s *Session, opts ...Option) *AppState {
	a := &AppState{Session: s, Title: "VisionLearn"}
	for _, o := range opts {
		o(a)
	}
	if a.theme == nil {
		a.theme = theme.Default()
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	return a
}

type decodeEvent struct{ res canvas.DecodeResult }

type sourceEvent struct {
	src acquire.Source
	err error
}

type topicsEvent struct {
	topics []string
	merge  bool
	err    error
}

type lessonEvent struct {
	path string
	err  error
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// Main runs the window on s until it is closed.
func (a *AppState) Main(s screen.Screen) {
	se := a.Session
	ed := se.Editor
	th := a.theme
	logical := ed.Logical()

	width, height := 1280, 800
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: a.Title})
	if err != nil {
		a.log.Error("new window", zap.Error(err))
		return
	}
	defer w.Release()
	defer a.notifyClose()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frame := image.NewRGBA(image.Rect(0, 0, int(logical.Width), int(logical.Height)))
	layout := computeLayout(width, height, logical)

	var message string
	var messageUntil time.Time
	busy := ""
	hover := -1
	hoverTopic := -1
	dragging := false

	setMessage := func(msg string) {
		message = msg
		messageUntil = time.Now().Add(messageDuration)
		a.log.Info("status", zap.String("message", msg))
		time.AfterFunc(messageDuration, func() {
			if ctx.Err() == nil {
				w.Send(paint.Event{})
			}
		})
	}
	fail := func(err error) { setMessage(Message(err)) }

	decode := func(gen uint64) {
		data, _ := ed.Source()
		go func() {
			if res, ok := <-canvas.StartDecode(ctx, gen, data); ok {
				w.Send(decodeEvent{res})
			}
		}()
	}
	load := func(src acquire.Source) {
		gen, err := se.Load(src)
		if err != nil {
			fail(err)
			return
		}
		decode(gen)
	}

	palette := canvas.Palette()
	widths := canvas.StrokeWidths()
	setWidth := func(delta int) {
		st := ed.Style()
		idx := 0
		for i, wv := range widths {
			if wv == st.Width {
				idx = i
			}
		}
		idx += delta
		if idx < 0 || idx >= len(widths) {
			return
		}
		st.Width = widths[idx]
		ed.SetStyle(st)
	}

	var actions map[string]func()
	run := func(name string) {
		if fn, ok := actions[name]; ok {
			fn()
		}
		w.Send(paint.Event{})
	}

	actions = map[string]func(){
		actionToolRect: func() { ed.SetTool(canvas.ToolRectangle) },
		actionToolPen:  func() { ed.SetTool(canvas.ToolFreehand) },
		actionToolCrop: func() { ed.SetTool(canvas.ToolCrop) },
		actionConfirm: func() {
			if ed.State() != canvas.StateAcquiring {
				return
			}
			if err := ed.ConfirmCrop(); err != nil {
				fail(err)
				return
			}
			setMessage("cropped")
		},
		actionCancel: func() {
			if ed.State() == canvas.StateAcquiring {
				ed.CancelCrop()
			}
		},
		actionUndo: func() { ed.Undo() },
		actionPaste: func() {
			gen, err := se.Paste()
			if err != nil {
				fail(err)
				return
			}
			decode(gen)
		},
		actionCapture: func() {
			if busy != "" {
				return
			}
			busy = "capturing"
			opts := a.capture
			go func() {
				src, err := se.Grab(ctx, opts)
				w.Send(sourceEvent{src: src, err: err})
			}()
		},
		actionSave: func() {
			path, err := se.Save()
			if err != nil {
				fail(err)
				return
			}
			setMessage("saved " + path)
		},
		actionCopy: func() {
			if err := se.Copy(); err != nil {
				fail(err)
				return
			}
			setMessage("image copied to clipboard")
		},
		actionReset: func() { se.Reset() },
		actionAnalyze: func() {
			if busy != "" {
				return
			}
			png, err := se.Snapshot()
			if err != nil {
				fail(err)
				return
			}
			busy = "analyzing"
			age := se.Age
			go func() {
				topics, err := se.Analyze(ctx, png, age)
				w.Send(topicsEvent{topics: topics, err: err})
			}()
		},
		actionSubdivide: func() {
			if busy != "" {
				return
			}
			sel := se.Topics.Selected()
			if len(sel) == 0 {
				fail(lesson.ErrNoTopics)
				return
			}
			busy = "finding prerequisites"
			age := se.Age
			go func() {
				sub, err := se.Subdivide(ctx, sel, age)
				w.Send(topicsEvent{topics: sub, merge: true, err: err})
			}()
		},
		actionSelectAll: func() { se.Topics.SelectAll() },
		actionLesson: func() {
			if busy != "" {
				return
			}
			req := se.LessonRequest()
			if len(req.Topics) == 0 {
				fail(lesson.ErrNoTopics)
				return
			}
			png, _ := se.Snapshot()
			busy = "writing lesson"
			go func() {
				path, err := se.Lesson(ctx, req, png)
				w.Send(lessonEvent{path: path, err: err})
			}()
		},
		actionLessonType: func() {
			types := lesson.Types()
			for i, t := range types {
				if t == se.LessonType {
					se.LessonType = types[(i+1)%len(types)]
					return
				}
			}
			se.LessonType = types[0]
		},
		actionPro:       func() { se.ProMode = !se.ProMode },
		actionAgeUp:     func() { se.Age++ },
		actionAgeDown:   func() { se.Age = max(1, se.Age-1) },
		actionWidthUp:   func() { setWidth(1) },
		actionWidthDown: func() { setWidth(-1) },
	}

	buttons := []Button{
		&ToolButton{ActionButton: ActionButton{label: "R Rect", onActivate: func() { run(actionToolRect) }}, tool: canvas.ToolRectangle, active: ed.Tool},
		&ToolButton{ActionButton: ActionButton{label: "P Pen", onActivate: func() { run(actionToolPen) }}, tool: canvas.ToolFreehand, active: ed.Tool},
		&ToolButton{ActionButton: ActionButton{label: "C Crop", onActivate: func() { run(actionToolCrop) }}, tool: canvas.ToolCrop, active: ed.Tool},
	}
	for _, pc := range palette {
		c := pc.Color
		buttons = append(buttons, &SwatchButton{
			color:    c,
			selected: func() bool { return ed.Style().Color == c },
			onSelect: func() {
				st := ed.Style()
				st.Color = c
				ed.SetStyle(st)
			},
		})
	}
	for _, wv := range widths {
		wv := wv
		buttons = append(buttons, &SwatchButton{
			width:    wv,
			selected: func() bool { return ed.Style().Width == wv },
			onSelect: func() {
				st := ed.Style()
				st.Width = wv
				ed.SetStyle(st)
			},
		})
	}
	for _, ab := range []struct{ label, action string }{
		{"^V Paste", actionPaste},
		{"K Capture", actionCapture},
		{"^Z Undo", actionUndo},
		{"N Reset", actionReset},
		{"^S Save", actionSave},
		{"^C Copy", actionCopy},
		{"A Analyze", actionAnalyze},
		{"D Deeper", actionSubdivide},
		{"G Lesson", actionLesson},
	} {
		action := ab.action
		buttons = append(buttons, &ActionButton{label: ab.label, onActivate: func() { run(action) }})
	}
	placeToolbar(layout.Toolbar, buttons)

	if a.initial != nil {
		load(*a.initial)
	}

	toLogical := func(e mouse.Event) canvas.Point {
		return canvas.ToLogical(float64(e.X), float64(e.Y), layout.Display, logical)
	}

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			layout = computeLayout(width, height, logical)
			placeToolbar(layout.Toolbar, buttons)
			w.Send(paint.Event{})
		case decodeEvent:
			if err := ed.ApplyDecode(e.res); err != nil {
				if !errors.Is(err, canvas.ErrStaleDecode) {
					fail(err)
				}
				continue
			}
			if err := ed.DecodeErr(); err != nil {
				fail(err)
			}
			w.Send(paint.Event{})
		case sourceEvent:
			busy = ""
			if e.err != nil {
				fail(e.err)
			} else {
				load(e.src)
			}
			w.Send(paint.Event{})
		case topicsEvent:
			busy = ""
			switch {
			case e.err != nil:
				fail(e.err)
			case e.merge:
				se.Topics.Merge(e.topics)
			default:
				se.Topics.Reset(e.topics)
				if len(e.topics) == 0 {
					setMessage("no topics found")
				}
			}
			w.Send(paint.Event{})
		case lessonEvent:
			busy = ""
			if e.err != nil {
				fail(e.err)
			} else {
				setMessage("lesson written to " + e.path)
			}
			w.Send(paint.Event{})
		case paint.Event:
			b, err := s.NewBuffer(image.Point{width, height})
			if err != nil {
				a.log.Error("new buffer", zap.Error(err))
				continue
			}
			dst := b.RGBA()
			draw.Draw(dst, dst.Bounds(), image.NewUniform(th.Background), image.Point{}, draw.Src)

			ed.Render(frame)
			xdraw.ApproxBiLinear.Scale(dst, layout.DisplayPixels(), frame, frame.Bounds(), draw.Src, nil)

			if r, ok := ed.CropRegion(); ok && ed.State() == canvas.StateAcquiring {
				hint := "Enter: crop  Esc: cancel"
				box := layout.toWindow(r, logical)
				hr := hintRect(box, image.Pt(textWidth(hint)+2*hintPadding, rowHeight), layout.Area)
				draw.Draw(dst, hr, image.NewUniform(th.HintBackground), image.Point{}, draw.Over)
				drawLabel(dst, hr.Min.X+hintPadding, hr.Min.Y+16, hint, th.HintText)
			}

			draw.Draw(dst, layout.Toolbar, image.NewUniform(th.ToolbarBackground), image.Point{}, draw.Src)
			for i, btn := range buttons {
				state := StateDefault
				if i == hover {
					state = StateHover
				}
				btn.Draw(dst, th, state)
			}

			a.drawTopics(dst, layout.Topics, hoverTopic)

			draw.Draw(dst, layout.Status, image.NewUniform(th.ToolbarBackground), image.Point{}, draw.Src)
			status := fmt.Sprintf("%s | %s | age %d | %s", ed.Tool(), ed.State(), se.Age, se.LessonType.Label())
			if se.ProMode {
				status += " | pro"
			}
			switch {
			case busy != "":
				status = busy + "... | " + status
			case ed.Decoding():
				status = "decoding... | " + status
			case !ed.HasSource():
				status = "paste (Ctrl+V) or capture (K) an image | " + status
			}
			if message != "" && time.Now().Before(messageUntil) {
				status = message + " | " + status
			}
			drawLabel(dst, layout.Status.Min.X+6, layout.Status.Min.Y+16, truncate(status, layout.Status.Dx()-12), th.Foreground)

			w.Upload(image.Point{}, b, b.Bounds())
			b.Release()
			w.Publish()
		case mouse.Event:
			p := image.Pt(int(e.X), int(e.Y))
			switch {
			case p.In(layout.Toolbar):
				prev := hover
				hover = -1
				for i, btn := range buttons {
					if p.In(btn.Rect()) {
						hover = i
						if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
							btn.Activate()
						}
						break
					}
				}
				if hover != prev {
					w.Send(paint.Event{})
				}
			case p.In(layout.Topics):
				topics := se.Topics.Topics()
				i := topicIndexAt(layout.Topics, p.Y, len(topics))
				if e.Direction == mouse.DirPress && i >= 0 {
					switch e.Button {
					case mouse.ButtonLeft:
						se.Topics.Toggle(topics[i])
					case mouse.ButtonRight:
						se.Topics.Delete(topics[i])
					}
				}
				if i != hoverTopic || e.Direction == mouse.DirPress {
					hoverTopic = i
					w.Send(paint.Event{})
				}
			}

			inArea := p.In(layout.Area)
			switch {
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress && inArea:
				dragging = ed.PointerDown(toLogical(e))
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease && dragging:
				ed.PointerUp(toLogical(e))
				dragging = false
			case e.Direction == mouse.DirNone && dragging:
				if !inArea {
					ed.PointerLeave()
					dragging = false
				} else {
					ed.PointerMove(toLogical(e))
				}
			default:
				continue
			}
			w.Send(paint.Event{})
		case key.Event:
			name, idx, ok := lookupAction(e)
			if !ok {
				continue
			}
			switch name {
			case "color":
				if idx < len(palette) {
					st := ed.Style()
					st.Color = palette[idx].Color
					ed.SetStyle(st)
					w.Send(paint.Event{})
				}
			case actionQuit:
				return
			default:
				run(name)
			}
		case error:
			a.log.Error("window", zap.Error(e))
		}
	}
}

func (a *AppState) drawTopics(dst *image.RGBA, panel image.Rectangle, hover int) {
	th := a.theme
	se := a.Session
	draw.Draw(dst, panel, image.NewUniform(th.ToolbarBackground), image.Point{}, draw.Src)
	topics := se.Topics.Topics()
	title := "Topics (A: analyze)"
	if len(topics) > 0 {
		title = fmt.Sprintf("Topics %d/%d (G: lesson)", len(se.Topics.Selected()), len(topics))
	}
	drawLabel(dst, panel.Min.X+6, panel.Min.Y+16, title, th.Foreground)
	for i, t := range topics {
		row := image.Rect(panel.Min.X+4, panel.Min.Y+rowHeight*(i+1), panel.Max.X-4, panel.Min.Y+rowHeight*(i+2)-2)
		if row.Max.Y > panel.Max.Y {
			break
		}
		bg := th.ButtonBackground
		if i == hover {
			bg = th.ButtonBackgroundHover
		}
		if se.Topics.IsSelected(t) {
			bg = th.ButtonActive
		}
		draw.Draw(dst, row, image.NewUniform(bg), image.Point{}, draw.Src)
		drawLabel(dst, row.Min.X+4, row.Min.Y+15, truncate(t, row.Dx()-8), th.ButtonText)
	}
}
