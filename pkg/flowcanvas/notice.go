package flowcanvas

import (
	"context"
	"log/slog"
	"sync"
)

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel string

// Notice levels.
const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a message for the user. Blocking notices must be acknowledged
// before the user continues (a modal alert rather than a toast).
type Notice struct {
	Level    NoticeLevel
	Title    string
	Message  string
	Blocking bool
	FlowID   string
	Category string
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

// LogNotifier writes notices to a logger. Used when no UI is attached.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l LogNotifier) Notify(n Notice) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if n.Level == NoticeError {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, n.Title,
		slog.String("message", n.Message),
		slog.Bool("blocking", n.Blocking),
		slog.String("flow_id", n.FlowID),
	)
}

// NoticeLog keeps every notice. Useful for tests and headless sessions.
type NoticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier.
func (l *NoticeLog) Notify(n Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

// Notices returns a copy of the recorded notices.
func (l *NoticeLog) Notices() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Notice, len(l.notices))
	copy(out, l.notices)
	return out
}
