// Package history keeps the most recent generated lessons.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/visionlearn/internal/config"
)

// DefaultLimit is the number of entries kept when no limit is configured.
const DefaultLimit = 50

// ErrNotFound is returned when an entry ID is unknown.
var ErrNotFound = errors.New("history entry not found")

var (
	nowFn   = time.Now
	newIDFn = uuid.NewString
)

// Entry is one generated lesson.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Topics    []string  `json:"topics"`
	HTML      string    `json:"html"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Type      string    `json:"type"`
}

// NewEntry stamps a lesson with a fresh ID and the current time.
func NewEntry(topics []string, html, thumbnail, lessonType string) Entry {
	return Entry{
		ID:        newIDFn(),
		Timestamp: nowFn(),
		Topics:    append([]string(nil), topics...),
		HTML:      html,
		Thumbnail: thumbnail,
		Type:      lessonType,
	}
}

// Store persists entries newest first and drops the oldest beyond its
// limit.
type Store interface {
	Add(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Close() error
}

// Open returns the store selected by cfg.
func Open(cfg *config.Config, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	h := cfg.History
	limit := h.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	switch h.Backend {
	case "", "file":
		return NewFileStore(cfg.HistoryPath(), limit, log), nil
	case "redis":
		return NewRedisStore(h.RedisAddr, h.RedisDB, h.RedisKey, limit, log), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", h.Backend)
	}
}

func find(entries []Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
