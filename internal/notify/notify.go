// notify - пользовательские уведомления (тосты в UI, строка в stderr для CLI).
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// MsgLoginRequired - уведомление о завершении сессии.
const MsgLoginRequired = "please log in to continue"

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notice - одно уведомление.
type Notice struct {
	Level   Level
	Message string
}

// Notifier доставляет уведомления пользователю.
//
//go:generate mockgen -destination=../mocks/notifier.go -package=mocks github.com/pribylovaa/go-taskboard/internal/notify Notifier
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Writer печатает уведомления построчно: "[warn] please log in to continue".
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

func (n *Writer) Notify(_ context.Context, notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, _ = fmt.Fprintf(n.w, "[%s] %s\n", notice.Level, notice.Message)
}

// Log пишет уведомления в slog (для сред без терминала).
type Log struct {
	log *slog.Logger
}

func NewLog(l *slog.Logger) *Log {
	if l == nil {
		l = slog.Default()
	}

	return &Log{log: l}
}

func (n *Log) Notify(ctx context.Context, notice Notice) {
	lvl := slog.LevelInfo
	switch notice.Level {
	case LevelWarn:
		lvl = slog.LevelWarn
	case LevelError:
		lvl = slog.LevelError
	}

	n.log.LogAttrs(ctx, lvl, "user_notice", slog.String("message", notice.Message))
}

// Multi рассылает уведомление в несколько Notifier по порядку.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, notice Notice) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, notice)
		}
	}
}

// Nop игнорирует уведомления.
type Nop struct{}

func (Nop) Notify(context.Context, Notice) {}
