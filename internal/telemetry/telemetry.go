// Package telemetry is the single seam through which ParserCraft's core
// reports progress and recoverable anomalies: a grammar rule that can
// never match anything, an incremental re-parse's reuse counts, a
// successful parse's memo size. Per spec.md §7 the core itself never
// fails or blocks because of logging — Logger is always safe to call with
// a nil receiver, or before Configure is called, in which case every
// method is a no-op.
//
// Built directly on go.uber.org/zap, the structured logger the teacher's
// own log-adapters/zap package exists to feed. A Logger never constructs
// its own zap.Logger; it writes only to one attached with Configure. The
// Loggers the core packages create are unexported and nothing calls
// Configure on them, so their entries are discarded.
package telemetry

import (
	"context"

	"go.uber.org/zap"
)

// Logger emits structured log entries for one ParserCraft component. The
// zero value discards everything; use New to create one and Configure to
// attach a *zap.Logger.
type Logger struct {
	component string
	zl        *zap.Logger
}

// New returns a Logger tagging every entry with component (e.g.
// "grammar.build", "incremental.apply_edit", "backend.c"). It discards
// everything until Configure attaches a sink.
func New(component string) *Logger {
	return &Logger{component: component}
}

// Configure points l at a concrete *zap.Logger and returns l. Host
// applications call this once during startup; ParserCraft never
// constructs its own zap.Logger so it never competes with the host over
// sinks or encoders.
func (l *Logger) Configure(zl *zap.Logger) *Logger {
	if l == nil {
		return nil
	}
	l.zl = zl
	return l
}

func (l *Logger) fields(kvs []Label) []zap.Field {
	out := make([]zap.Field, 0, len(kvs)+1)
	out = append(out, zap.String("component", l.component))
	for _, kv := range kvs {
		out = append(out, kv.field)
	}
	return out
}

// Debug logs a debug-level event, e.g. a packrat memo hit count.
func (l *Logger) Debug(ctx context.Context, msg string, kvs ...Label) {
	if l == nil || l.zl == nil {
		return
	}
	l.zl.Debug(msg, l.fields(kvs)...)
}

// Info logs an info-level event, e.g. "grammar built" with a rule count.
func (l *Logger) Info(ctx context.Context, msg string, kvs ...Label) {
	if l == nil || l.zl == nil {
		return
	}
	l.zl.Info(msg, l.fields(kvs)...)
}

// Warn logs a warning-level event that does not abort the calling
// operation, e.g. an empty rule body in a freshly built grammar.
func (l *Logger) Warn(ctx context.Context, msg string, kvs ...Label) {
	if l == nil || l.zl == nil {
		return
	}
	l.zl.Warn(msg, l.fields(kvs)...)
}

// Label is a single structured key-value pair attached to a log entry.
type Label struct {
	field zap.Field
}

// String builds a string-valued Label.
func String(key, value string) Label { return Label{zap.String(key, value)} }

// Int builds an int-valued Label.
func Int(key string, value int) Label { return Label{zap.Int(key, value)} }

// Bool builds a bool-valued Label.
func Bool(key string, value bool) Label { return Label{zap.Bool(key, value)} }
