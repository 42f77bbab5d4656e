package registry

import (
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/conduit-lang/typecache/internal/registry"

// Option configures Build
type Option func(*options)

type options struct {
	logger  *zap.Logger
	tracer  trace.Tracer
	workers int
	scope   *Scope
}

func defaultOptions() *options {
	return &options{
		logger:  zap.NewNop(),
		tracer:  otel.Tracer(tracerName),
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithLogger sets the build logger
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer sets the tracer used for phase spans
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithWorkers bounds the parallel phases. Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithScope registers the registry in s once it is sealed
func WithScope(s *Scope) Option {
	return func(o *options) { o.scope = s }
}
