// Package oblog builds the structured logger every ObjectLite component is
// constructed with, adapted from the teacher's internal/logging package: a
// multiHandler fanning records out to a text console handler and, when
// reachable, a Seq handler, with the level and destination now driven by
// Options instead of being hardwired.
package oblog

import (
	"context"
	"log/slog"
	"os"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

// Level is the set of log levels spec §6 recognizes. "Default" and
// "Notice" both normalize to slog.LevelInfo.
type Level int

const (
	LevelDefault Level = iota
	LevelDebug
	LevelInfo
	LevelNotice
	LevelWarn
	LevelError
	LevelNone
)

// ParseLevel maps one of spec §6's level names onto a Level, defaulting to
// LevelDefault for an empty or unrecognized string so CLI flags never hard
// fail on a typo.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "notice":
		return LevelNotice
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "none":
		return LevelNone
	default:
		return LevelDefault
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// multiHandler forwards every record to each of its handlers, the same
// fan-out shape the teacher's logging package uses for console+Seq.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// New builds a logger writing to logFile (stderr when empty) at the given
// level, additionally fanning out to a local Seq instance when one answers;
// it returns a cleanup function that must be called on database close.
func New(level Level, logFile string) (*slog.Logger, func(), error) {
	if level == LevelNone {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}

	dest := os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		dest = f
	}

	consoleHandler := slog.NewTextHandler(dest, &slog.HandlerOptions{
		Level: level.slogLevel(),
	})

	_, seqHandler := slogseq.NewLogger(
		"http://localhost:5341",
		slogseq.WithBatchSize(1),
		slogseq.WithFlushInterval(500*time.Millisecond),
		slogseq.WithHandlerOptions(&slog.HandlerOptions{Level: level.slogLevel()}),
	)

	closeFn := func() {
		if dest != os.Stderr {
			dest.Close()
		}
	}

	if seqHandler == nil {
		return slog.New(consoleHandler), closeFn, nil
	}

	multi := &multiHandler{handlers: []slog.Handler{consoleHandler, seqHandler}}
	return slog.New(multi), func() {
		seqHandler.Close()
		closeFn()
	}, nil
}
