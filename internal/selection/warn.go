package selection

import (
	"context"
	"fmt"
	"log/slog"
)

// onceLogger emits each distinct advisory message (text plus attributes) a single
// time per session.
type onceLogger struct {
	log  *slog.Logger
	seen map[string]struct{}
}

func newOnceLogger(l *slog.Logger) *onceLogger {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	return &onceLogger{log: l, seen: make(map[string]struct{})}
}

func (o *onceLogger) warn(msg string, args ...any) {
	o.emit(slog.LevelWarn, msg, args...)
}

func (o *onceLogger) error(msg string, args ...any) {
	o.emit(slog.LevelError, msg, args...)
}

func (o *onceLogger) emit(level slog.Level, msg string, args ...any) {
	key := msg + fmt.Sprint(args...)
	if _, ok := o.seen[key]; ok {
		return
	}
	o.seen[key] = struct{}{}
	o.log.Log(context.Background(), level, msg, args...)
}
