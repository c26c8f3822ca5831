package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is a transient user-visible message (a toast)
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives user-visible notifications
type Notifier interface {
	Notify(level Level, message string)
}

// Log writes notifications to the logger only
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(level Level, message string) {
	if level == LevelError {
		l.logger.Warn("User notification", zap.String("level", string(level)), zap.String("message", message))
		return
	}
	l.logger.Info("User notification", zap.String("level", string(level)), zap.String("message", message))
}

// Recorder keeps the most recent notifications so a UI can poll and drain them
type Recorder struct {
	mu    sync.Mutex
	limit int
	items []Notification
	next  Notifier
}

// NewRecorder keeps up to limit notifications and forwards each one to next when set
func NewRecorder(limit int, next Notifier) *Recorder {
	if limit < 1 {
		limit = 1
	}
	return &Recorder{limit: limit, next: next}
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	r.items = append(r.items, Notification{Level: level, Message: message, At: time.Now()})
	if len(r.items) > r.limit {
		r.items = r.items[len(r.items)-r.limit:]
	}
	r.mu.Unlock()

	if r.next != nil {
		r.next.Notify(level, message)
	}
}

// Drain returns the pending notifications oldest first and forgets them
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}
