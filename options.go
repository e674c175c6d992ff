package bcache

import (
	"log/slog"

	"github.com/hupe1980/bcache/device"
	"github.com/hupe1980/bcache/resource"
)

const (
	// DefaultBuffers is the pool size used when WithBuffers is not given.
	DefaultBuffers = 30
	// DefaultBuckets is the hash table size used when WithBuckets is not given.
	DefaultBuckets = 13
	// DefaultBlockSize is the block size used when WithBlockSize is not given.
	DefaultBlockSize = 1024
)

type options struct {
	buffers          int
	buckets          int
	blockSize        int
	devices          map[uint32]device.Device
	metricsCollector MetricsCollector
	logger           *Logger
	rc               *resource.Controller
}

func defaultOptions() options {
	return options{
		buffers:          DefaultBuffers,
		buckets:          DefaultBuckets,
		blockSize:        DefaultBlockSize,
		devices:          make(map[uint32]device.Device),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}

// Option configures a Cache.
type Option func(*options)

// WithBuffers sets the number of buffers in the pool.
//
// The pool never grows. It must be at least as large as the number of
// buffers callers hold or pin at the same time, or misses panic with
// ErrNoBuffers.
func WithBuffers(n int) Option {
	return func(o *options) {
		o.buffers = n
	}
}

// WithBuckets sets the number of hash buckets.
// A prime number spreads sequential block numbers best.
func WithBuckets(n int) Option {
	return func(o *options) {
		o.buckets = n
	}
}

// WithBlockSize sets the size of one block in bytes.
// Every registered device must use the same block size.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithDevice registers dev under the given id.
// Registering the same id twice keeps the last device.
func WithDevice(id uint32, dev device.Device) Option {
	return func(o *options) {
		o.devices[id] = dev
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &bcache.BasicMetricsCollector{}
//	c, _ := bcache.New(bcache.WithDevice(1, dev), bcache.WithMetricsCollector(metrics))
//	// ... use c ...
//	stats := metrics.GetStats()
//	fmt.Printf("Hits: %d, Misses: %d\n", stats.Hits, stats.Misses)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := bcache.NewJSONLogger(slog.LevelDebug)
//	c, _ := bcache.New(bcache.WithDevice(1, dev), bcache.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController charges the pool's buffer memory against rc.
// New fails when the controller's memory limit cannot cover the pool.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}
