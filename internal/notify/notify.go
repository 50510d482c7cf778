// Package notify turns application events into desktop notifications.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/visionlearn/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventCapture fires when a screen capture becomes the source.
	EventCapture Event = "capture"
	// EventSave fires when an image or lesson page is written to disk.
	EventSave Event = "save"
	// EventCopy fires when the canvas is copied to the clipboard.
	EventCopy Event = "copy"
	// EventNotice carries guidance after a refused paste or capture.
	EventNotice Event = "notice"
)

// Preferences holds the notification title and the body template of each
// event. Templates take the event detail as their single %s.
type Preferences struct {
	Title     string
	Templates map[Event]string
}

// DefaultPreferences returns the built-in title and templates.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: platform.DefaultAppName,
		Templates: map[Event]string{
			EventCapture: "Captured %s",
			EventSave:    "Saved %s",
			EventCopy:    "Copied %s to clipboard",
			EventNotice:  "%s",
		},
	}
}

var templateEnv = map[Event]string{
	EventCapture: "VISIONLEARN_NOTIFY_CAPTURE_TEXT",
	EventSave:    "VISIONLEARN_NOTIFY_SAVE_TEXT",
	EventCopy:    "VISIONLEARN_NOTIFY_COPY_TEXT",
	EventNotice:  "VISIONLEARN_NOTIFY_NOTICE_TEXT",
}

// LoadPreferences applies VISIONLEARN_NOTIFY_TITLE and the per-event
// VISIONLEARN_NOTIFY_*_TEXT overrides to the defaults.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("VISIONLEARN_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for event, key := range templateEnv {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			prefs.Templates[event] = v
		}
	}
	return prefs
}

// noticeQuiet is how long an identical notice is suppressed.
const noticeQuiet = 5 * time.Second

var (
	sendFn = platform.Notify
	nowFn  = time.Now
)

// message is one notification waiting to be formatted and sent.
type message struct {
	event   Event
	detail  string
	icon    string
	preview image.Image
	urgency platform.Urgency
}

// Notifier sends desktop notifications for the events that were enabled.
// A nil Notifier is valid and sends nothing.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	log     *zap.Logger

	lastNotice   string
	lastNoticeAt time.Time
}

// New returns a Notifier with every event disabled. A nil logger discards
// delivery failures.
func New(prefs Preferences, log *zap.Logger) *Notifier {
	n := &Notifier{
		prefs:   Preferences{Title: prefs.Title, Templates: make(map[Event]string, len(prefs.Templates))},
		enabled: make(map[Event]bool),
		log:     log,
	}
	for k, v := range prefs.Templates {
		n.prefs.Templates[k] = v
	}
	if n.log == nil {
		n.log = zap.NewNop()
	}
	return n
}

// Enable switches notifications for event on or off.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.enabled[event] = enabled
}

// Capture reports a screen capture, with img as the preview icon.
func (n *Notifier) Capture(detail string, img image.Image) {
	n.post(message{event: EventCapture, detail: detail, preview: img, urgency: platform.UrgencyLow})
}

// Save reports a written file. PNG files double as the icon.
func (n *Notifier) Save(path string) {
	m := message{event: EventSave, detail: strings.TrimSpace(path), urgency: platform.UrgencyNormal}
	if abs, err := filepath.Abs(path); err == nil {
		m.detail = abs
		if strings.EqualFold(filepath.Ext(abs), ".png") {
			if _, err := os.Stat(abs); err == nil {
				m.icon = abs
			}
		}
	}
	n.post(m)
}

// Copy reports a clipboard write.
func (n *Notifier) Copy(detail string) {
	if strings.TrimSpace(detail) == "" {
		detail = "image"
	}
	n.post(message{event: EventCopy, detail: detail, urgency: platform.UrgencyLow})
}

// Notice shows guidance the user has to act on. The same text is not
// repeated within a few seconds.
func (n *Notifier) Notice(text string) {
	if !n.enabledFor(EventNotice) {
		return
	}
	text = strings.TrimSpace(text)
	now := nowFn()
	if text == n.lastNotice && now.Sub(n.lastNoticeAt) < noticeQuiet {
		n.log.Debug("notice suppressed", zap.String("text", text))
		return
	}
	n.lastNotice, n.lastNoticeAt = text, now
	n.post(message{event: EventNotice, detail: text, urgency: platform.UrgencyCritical})
}

func (n *Notifier) enabledFor(event Event) bool {
	return n != nil && n.enabled[event]
}

func (n *Notifier) post(m message) {
	if !n.enabledFor(m.event) {
		return
	}
	body := n.format(m)
	if body == "" {
		return
	}
	opts := platform.Options{IconPath: m.icon, Urgency: m.urgency, Category: category(m.event)}
	if m.preview != nil {
		path, cleanup, err := writePreview(m.preview)
		if err != nil {
			n.log.Warn("notification preview", zap.Error(err))
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	if err := sendFn(n.prefs.Title, body, opts); err != nil {
		n.log.Info("notification not delivered", zap.String("event", string(m.event)), zap.Error(err))
	}
}

func (n *Notifier) format(m message) string {
	tmpl := strings.TrimSpace(n.prefs.Templates[m.event])
	if tmpl == "" {
		return ""
	}
	detail := strings.TrimSpace(m.detail)
	if !strings.Contains(tmpl, "%s") {
		return tmpl
	}
	return strings.TrimSpace(fmt.Sprintf(tmpl, detail))
}

func category(e Event) string {
	switch e {
	case EventNotice:
		return "im.error"
	case EventSave, EventCopy:
		return "transfer.complete"
	}
	return ""
}

func writePreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "visionlearn-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	err = png.Encode(f, img)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}
