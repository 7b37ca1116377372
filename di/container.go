package di

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/resolvekit/callsite"
	"github.com/kbukum/resolvekit/compiler"
	"github.com/kbukum/resolvekit/errors"
	"github.com/kbukum/resolvekit/interpreter"
	"github.com/kbukum/resolvekit/logger"
	"github.com/kbukum/resolvekit/observability"
	"github.com/kbukum/resolvekit/scope"
	"github.com/kbukum/resolvekit/version"
)

const tracerName = "github.com/kbukum/resolvekit/di"

// Container owns the root scope and realizes call sites through the
// configured engine. It is safe for concurrent use.
type Container struct {
	root         *scope.Scope
	interp       *interpreter.Interpreter
	comp         *compiler.Compiler
	engine       Engine
	compileAfter int
	metrics      *observability.Metrics
	tracer       trace.Tracer
	log          *logger.Logger

	sites sync.Map // callsite.CallSite -> *realization

	mu         sync.Mutex
	closed     bool
	background sync.WaitGroup
}

// realization is the per-call-site state of the container.
type realization struct {
	site      callsite.CallSite
	calls     atomic.Int64
	compiling atomic.Bool
	resolver  atomic.Pointer[compiler.Compiled]
}

// NewContainer creates a container with a fresh root scope.
func NewContainer(opts ...Option) (*Container, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.applyConfig(); err != nil {
		return nil, err
	}

	root := scope.NewRoot(
		scope.WithLockMode(o.lockMode),
		scope.WithLogger(o.log.WithComponent("scope")),
	)
	interp := interpreter.New(interpreter.WithLogger(o.log.WithComponent("interpreter")))

	compOpts := []compiler.Option{
		compiler.WithLogger(o.log.WithComponent("compiler")),
		compiler.WithTelemetry(o.compileSink()),
	}
	tracer := observability.Tracer(tracerName)
	if o.tracerProvider != nil {
		compOpts = append(compOpts, compiler.WithTracerProvider(o.tracerProvider))
		tracer = o.tracerProvider.Tracer(tracerName)
	}

	c := &Container{
		root:         root,
		interp:       interp,
		comp:         compiler.New(root, interp, compOpts...),
		engine:       o.engine,
		compileAfter: o.compileAfter,
		metrics:      o.metrics,
		tracer:       tracer,
		log:          o.log,
	}

	c.log.Debug("container created", logger.Fields(
		logger.FieldEngine, c.engine.String(),
		"compile_after", c.compileAfter,
		"lock_mode", o.lockMode.String(),
		logger.FieldScopeID, root.ID(),
		"version", version.Short(),
	))
	return c, nil
}

// Root returns the root scope.
func (c *Container) Root() *scope.Scope { return c.root }

// Compiler returns the compiler shared by every call site of the container.
func (c *Container) Compiler() *compiler.Compiler { return c.comp }

// CreateScope creates a child scope of the root.
func (c *Container) CreateScope() *scope.Scope { return c.root.NewChild() }

// Resolve produces the instance described by site for scope s. A nil s
// resolves against the root scope.
//
// Errors returned by constructors and factories are passed through unchanged.
// A panic raised by one is returned as a RESOLUTION_PANIC error.
func (c *Container) Resolve(ctx context.Context, site callsite.CallSite, s *scope.Scope) (v any, err error) {
	if s == nil {
		s = c.root
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if err := callsite.Check(site); err != nil {
		return nil, err
	}

	r := c.realization(site)
	engine := c.engineOf(r)
	ctx, op := observability.StartResolve(ctx, c.tracer, site.ServiceType().String(), engine.String(), c.metrics)
	defer func() {
		if rec := recover(); rec != nil {
			v, err = nil, errors.ResolutionPanic(site.ServiceType(), rec)
			c.log.Error("resolution panicked", logger.Fields(
				logger.FieldServiceType, site.ServiceType().String(),
				logger.FieldEngine, engine.String(),
				logger.FieldError, fmt.Sprint(rec),
			))
		}
		op.End(ctx, err, errorCode(err))
	}()

	return c.resolve(ctx, r, s)
}

func (c *Container) resolve(ctx context.Context, r *realization, s *scope.Scope) (any, error) {
	if resolver := r.resolver.Load(); resolver != nil {
		return resolver.Invoke(ctx, s)
	}

	switch c.engine {
	case EngineInterpreted:
		return c.interp.Resolve(ctx, r.site, s)
	case EngineCompiled:
		resolver, err := c.comp.Compile(ctx, r.site)
		if err != nil {
			return nil, err
		}
		r.resolver.CompareAndSwap(nil, resolver)
		return resolver.Invoke(ctx, s)
	default:
		if r.calls.Add(1) >= int64(c.compileAfter) && r.compiling.CompareAndSwap(false, true) {
			c.compileInBackground(r)
		}
		return c.interp.Resolve(ctx, r.site, s)
	}
}

// compileInBackground compiles r off the resolving goroutine. It starts from
// a fresh context so no resolution lock held by the caller is considered
// held by the compilation. A failed compilation leaves r interpreted.
func (c *Container) compileInBackground(r *realization) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		defer func() {
			if rec := recover(); rec != nil {
				c.log.Warn("background compilation panicked", logger.Fields(
					logger.FieldServiceType, r.site.ServiceType().String(),
					logger.FieldError, fmt.Sprint(rec),
				))
			}
		}()

		resolver, err := c.comp.Compile(context.Background(), r.site)
		if err != nil {
			c.log.Warn("background compilation failed", logger.Fields(
				logger.FieldServiceType, r.site.ServiceType().String(),
				logger.FieldError, err.Error(),
			))
			return
		}
		r.resolver.Store(resolver)
		c.log.Debug("switched to compiled resolver", logger.Fields(
			logger.FieldServiceType, r.site.ServiceType().String(),
			"calls", r.calls.Load(),
		))
	}()
}

func (c *Container) realization(site callsite.CallSite) *realization {
	if r, ok := c.sites.Load(site); ok {
		return r.(*realization)
	}
	r, _ := c.sites.LoadOrStore(site, &realization{site: site})
	return r.(*realization)
}

func (c *Container) engineOf(r *realization) Engine {
	if r.resolver.Load() != nil {
		return EngineCompiled
	}
	if c.engine == EngineCompiled {
		return EngineCompiled
	}
	return EngineInterpreted
}

// Engine reports how site is currently realized: EngineCompiled once a
// compiled resolver serves it, EngineInterpreted otherwise.
func (c *Container) Engine(site callsite.CallSite) Engine {
	r, ok := c.sites.Load(site)
	if !ok || r.(*realization).resolver.Load() == nil {
		return EngineInterpreted
	}
	return EngineCompiled
}

// Wait blocks until every background compilation started so far has finished.
func (c *Container) Wait() {
	c.background.Wait()
}

// Close waits for background compilations and closes the root scope.
// Closing twice is a no-op.
func (c *Container) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.background.Wait()
	err := c.root.Close()
	c.log.Debug("container closed", logger.Fields(
		logger.FieldScopeID, c.root.ID(),
		"compiled", c.comp.CacheLen(),
	))
	return err
}

func errorCode(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return ""
}
