package bcache

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with bcache-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithDevice adds a device id field to the logger.
func (l *Logger) WithDevice(dev uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("dev", dev),
	}
}

// WithBlock adds device id and block number fields to the logger.
func (l *Logger) WithBlock(dev, blockno uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("dev", dev, "blockno", blockno),
	}
}

// LogInit logs cache construction.
func (l *Logger) LogInit(ctx context.Context, buffers, buckets, blockSize, devices int) {
	l.InfoContext(ctx, "buffer cache initialized",
		"buffers", buffers,
		"buckets", buckets,
		"block_size", blockSize,
		"devices", devices,
	)
}

// LogEviction logs the reassignment of a buffer to a new block.
func (l *Logger) LogEviction(ctx context.Context, oldDev, oldBlock, dev, blockno uint32) {
	l.DebugContext(ctx, "buffer evicted",
		"old_dev", oldDev,
		"old_blockno", oldBlock,
		"dev", dev,
		"blockno", blockno,
	)
}

// LogTransfer logs a device transfer.
func (l *Logger) LogTransfer(ctx context.Context, write bool, dev, blockno uint32, d time.Duration, err error) {
	op := "read"
	if write {
		op = "write"
	}
	if err != nil {
		l.ErrorContext(ctx, "block "+op+" failed",
			"dev", dev,
			"blockno", blockno,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "block "+op+" completed",
			"dev", dev,
			"blockno", blockno,
			"duration", d,
		)
	}
}

// LogFatal logs a fatal condition just before the cache panics.
func (l *Logger) LogFatal(ctx context.Context, op string, err error) {
	l.ErrorContext(ctx, "fatal buffer cache error",
		"op", op,
		"error", err,
	)
}

// LogClose logs cache shutdown.
func (l *Logger) LogClose(ctx context.Context, err error) {
	if err != nil {
		l.WarnContext(ctx, "buffer cache closed with errors",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "buffer cache closed")
	}
}
