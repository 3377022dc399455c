// Package obslog provides the logging convention used across the engine.
//
// It is a thin wrapper over log/slog that standardizes operation-boundary
// logging: Begin/End pairs with automatic duration measurement, plus
// level-gated convenience wrappers that no-op on a nil logger. A nil
// *slog.Logger is always valid and disables logging with near-zero
// overhead — every exported function checks for it first.
//
// Operation names follow the convention stof.<package>.<operation>, e.g.
// stof.graphstore.add_node, stof.process.tick, stof.library.http.fetch.
package obslog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Enabled reports whether logging at the given level is enabled.
// Returns false if logger is nil.
func Enabled(ctx context.Context, logger *slog.Logger, level slog.Level) bool {
	if logger == nil {
		return false
	}
	return logger.Enabled(ctx, level)
}

// Debug logs a message at Debug level if the logger is non-nil and enabled.
func Debug(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	log(ctx, logger, slog.LevelDebug, msg, attrs)
}

// Info logs a message at Info level if the logger is non-nil and enabled.
func Info(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	log(ctx, logger, slog.LevelInfo, msg, attrs)
}

// Warn logs a message at Warn level if the logger is non-nil and enabled.
func Warn(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	log(ctx, logger, slog.LevelWarn, msg, attrs)
}

// Error logs a message at Error level if the logger is non-nil and enabled.
func Error(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	log(ctx, logger, slog.LevelError, msg, attrs)
}

func log(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, attrs []slog.Attr) {
	if logger == nil || !logger.Enabled(ctx, level) {
		return
	}
	logger.LogAttrs(ctx, level, msg, attrs...)
}

// Op represents a running operation with automatic start/end logging.
//
// Create via Begin. It is safe to call methods on a nil *Op, so callers
// never need to check the fast-path result before deferring op.End.
type Op struct {
	ctx       context.Context //nolint:containedctx // needed to log cancellation state at End
	logger    *slog.Logger
	name      string
	startTime time.Time
	ended     atomic.Bool
}

// Begin starts a new operation and logs at Debug level.
//
// Returns nil when logging is disabled (logger is nil or Debug is not
// enabled), so the common case allocates nothing.
func Begin(ctx context.Context, logger *slog.Logger, name string, attrs ...slog.Attr) *Op {
	if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
		return nil
	}
	op := &Op{ctx: ctx, logger: logger, name: name, startTime: time.Now()}
	logger.LogAttrs(ctx, slog.LevelDebug, name+".start", attrs...)
	return op
}

// End logs the operation's completion, including duration and any error.
// Safe to call on a nil *Op, and safe to call more than once (only the
// first call logs).
func (op *Op) End(err error) {
	if op == nil || !op.ended.CompareAndSwap(false, true) {
		return
	}
	attrs := []slog.Attr{slog.Duration("duration", time.Since(op.startTime))}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		op.logger.LogAttrs(op.ctx, slog.LevelDebug, op.name+".end", attrs...)
		return
	}
	if cerr := op.ctx.Err(); cerr != nil {
		attrs = append(attrs, slog.String("cancel", cerr.Error()))
	}
	op.logger.LogAttrs(op.ctx, slog.LevelDebug, op.name+".end", attrs...)
}
