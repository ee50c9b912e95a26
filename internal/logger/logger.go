// Package logger provides structured logging built on log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// Level represents the minimum log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// LoggerInterface is the logging contract used across the application.
// All methods take a context first so handlers can extract trace IDs.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) LoggerInterface
}

// Logger implements LoggerInterface on top of slog.
type Logger struct {
	log *slog.Logger
}

// New creates a Logger writing JSON to w at the given level.
// service is attached to every record; attrs are optional extra attributes.
func New(w io.Writer, level Level, service string, attrs []slog.Attr) *Logger {
	opts := &slog.HandlerOptions{Level: toSlogLevel(level)}
	handler := slog.NewJSONHandler(w, opts)

	log := slog.New(handler.WithAttrs(attrs)).With("service", service)
	return &Logger{log: log}
}

func toSlogLevel(l Level) slog.Level {
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

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log.DebugContext(ctx, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log.InfoContext(ctx, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log.WarnContext(ctx, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log.ErrorContext(ctx, msg, args...)
}

// With returns a Logger carrying additional key/value attributes.
func (l *Logger) With(args ...any) LoggerInterface {
	return &Logger{log: l.log.With(args...)}
}
