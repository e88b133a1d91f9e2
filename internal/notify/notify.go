// Package notify holds the outbound alert channels.
package notify

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans one alert out to every configured channel. All channels are
// attempted; their errors are combined.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var combined error
	for _, n := range m {
		if n == nil {
			continue
		}
		combined = multierr.Append(combined, n.Send(ctx, title, text))
	}
	return combined
}

// Log writes alerts to the structured log. Always configured, so every
// alert is visible even with no external channel set up.
type Log struct {
	Logger *zap.Logger
}

func NewLog(l *zap.Logger) *Log {
	if l == nil {
		l = zap.NewNop()
	}
	return &Log{Logger: l}
}

func (l *Log) Send(ctx context.Context, title, text string) error {
	l.Logger.Warn("alert",
		zap.String("title", title),
		zap.String("text", text),
	)
	return nil
}
