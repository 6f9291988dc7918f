// Package logging builds the process-wide structured logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Options selects level and output format.
type Options struct {
	Level  string // debug, info, warn, error or off
	Format string // text or json
}

// New creates a logger writing to w. Level "off" returns a logger that drops everything.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	level, off, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if off {
		return Nop(), nil
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(opts.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
}

// ParseLevel maps a config string to a slog level. off reports an explicit disable.
func ParseLevel(s string) (level slog.Level, off bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, false, nil
	case "", "info":
		return slog.LevelInfo, false, nil
	case "warn", "warning":
		return slog.LevelWarn, false, nil
	case "error":
		return slog.LevelError, false, nil
	case "off", "none", "disabled":
		return 0, true, nil
	}
	return 0, false, fmt.Errorf("unknown log level %q", s)
}

// Nop returns a logger that discards all records
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

// OrNop returns l, or a discarding logger when l is nil
func OrNop(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Nop()
	}
	return l
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
