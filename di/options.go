package di

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/resolvekit/compiler"
	"github.com/kbukum/resolvekit/config"
	"github.com/kbukum/resolvekit/logger"
	"github.com/kbukum/resolvekit/observability"
	"github.com/kbukum/resolvekit/scope"
)

// Option configures a Container.
type Option func(*options)

type options struct {
	engine         Engine
	compileAfter   int
	lockMode       scope.LockMode
	telemetry      compiler.Telemetry
	metrics        *observability.Metrics
	tracerProvider trace.TracerProvider
	log            *logger.Logger
	cfg            *config.ResolverConfig
}

func defaultOptions() options {
	return options{
		engine:       EngineDynamic,
		compileAfter: 2,
		lockMode:     scope.LockScope,
		log:          logger.Get("resolver.container"),
	}
}

// WithEngine selects the realization engine.
func WithEngine(e Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithCompileAfter sets the resolution count at which the dynamic engine
// compiles a call site. Values below 1 are treated as 1.
func WithCompileAfter(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.compileAfter = n
	}
}

// WithLockMode sets the resolution lock granularity of every scope.
func WithLockMode(mode scope.LockMode) Option {
	return func(o *options) { o.lockMode = mode }
}

// WithConfig applies a resolver configuration. It is validated by
// NewContainer and overrides WithEngine, WithCompileAfter and WithLockMode.
func WithConfig(cfg config.ResolverConfig) Option {
	return func(o *options) { o.cfg = &cfg }
}

// WithTelemetry sets the sink notified after each published compilation.
func WithTelemetry(t compiler.Telemetry) Option {
	return func(o *options) { o.telemetry = t }
}

// WithMetrics records compilations and resolutions on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracerProvider sets the provider compile and resolve spans come from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithLogger sets the logger shared by the container, its scopes and engines.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func (o *options) applyConfig() error {
	if o.cfg == nil {
		return nil
	}
	cfg := *o.cfg
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	engine, err := ParseEngine(cfg.Engine)
	if err != nil {
		return err
	}
	mode, err := scope.ParseLockMode(cfg.LockGranularity)
	if err != nil {
		return err
	}
	o.engine = engine
	o.compileAfter = cfg.CompileAfter
	o.lockMode = mode
	return nil
}

// compileSink fans a compilation out to the configured sink and metrics.
func (o *options) compileSink() compiler.Telemetry {
	switch {
	case o.telemetry == nil && o.metrics == nil:
		return nil
	case o.metrics == nil:
		return o.telemetry
	case o.telemetry == nil:
		return o.metrics
	}
	sinks := []compiler.Telemetry{o.metrics, o.telemetry}
	return compiler.TelemetryFunc(func(ctx context.Context, serviceType string, cost int, d time.Duration) {
		for _, s := range sinks {
			s.RecordCompile(ctx, serviceType, cost, d)
		}
	})
}
