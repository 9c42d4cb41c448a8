// Package logger holds the process-wide structured logger shared by every engine package.
// By default nothing is logged; hosts opt in with SetLogger.
package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that discards every record. Enabled returns false so
// callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger for the engine and all of its sub-packages.
// Passing nil restores the silent default. Safe for concurrent use.
//
// Log levels used by the engine:
//   - [slog.LevelDebug]: per-frame diagnostics (dispatch sizes, skipped passes)
//   - [slog.LevelInfo]: lifecycle events (volume initialized, resources released)
//   - [slog.LevelWarn]: degraded behavior (unsupported sky, missing debug mesh)
//   - [slog.LevelError]: failed readbacks and GPU resource errors
//
// Parameters:
//   - l: the logger to install, or nil to disable logging
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current engine logger.
//
// Returns:
//   - *slog.Logger: the active logger, never nil
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// For returns the engine logger tagged with a component attribute, which replaces the
// bracketed "[Component]" prefixes of plain log output.
//
// Parameters:
//   - component: the subsystem name, e.g. "ddgi" or "renderer"
//
// Returns:
//   - *slog.Logger: a child logger carrying the component attribute
func For(component string) *slog.Logger {
	return Logger().With(slog.String("component", component))
}
