package compiler

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/resolvekit/callsite"
	"github.com/kbukum/resolvekit/logger"
	"github.com/kbukum/resolvekit/observability"
	"github.com/kbukum/resolvekit/scope"
)

const tracerName = "github.com/kbukum/resolvekit/compiler"

// Interpreter is the tree-walking resolver used to bake root-cached nodes and
// to serve scope-cached resolvers invoked against the root scope.
type Interpreter interface {
	Resolve(ctx context.Context, site callsite.CallSite, s *scope.Scope) (any, error)
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the compiler logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTelemetry sets the sink notified after each compilation.
func WithTelemetry(t Telemetry) Option {
	return func(c *Compiler) { c.telemetry = t }
}

// WithTracerProvider sets the provider compile spans are started from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Compiler) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// Compiler turns call-site trees into *Compiled resolvers. One Compiler
// serves one root scope and is safe for concurrent use.
type Compiler struct {
	root      *scope.Scope
	interp    Interpreter
	cache     scopeCache
	telemetry Telemetry
	tracer    trace.Tracer
	log       *logger.Logger

	compiles  atomic.Int64
	discarded atomic.Int64
}

// New creates a Compiler bound to root.
func New(root *scope.Scope, interp Interpreter, opts ...Option) *Compiler {
	c := &Compiler{
		root:   root,
		interp: interp,
		tracer: observability.Tracer(tracerName),
		log:    logger.Get("resolver.compiler"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the root scope the compiler bakes root-cached nodes into.
func (c *Compiler) Root() *scope.Scope { return c.root }

// Compile produces a resolver for site. Scope-cached sites return the
// resolver published for their cache key, compiling it first if needed.
//
// Root-cached nodes anywhere in the tree are constructed during Compile, so
// construction errors surface here and nothing is published for the tree.
func (c *Compiler) Compile(ctx context.Context, site callsite.CallSite) (*Compiled, error) {
	if err := callsite.Check(site); err != nil {
		return nil, err
	}
	if site.Cache().Location == callsite.LocationScope {
		return c.compileScoped(ctx, site)
	}
	compiled, err := c.build(ctx, site, false)
	if err != nil {
		return nil, err
	}
	c.emit(ctx, compiled)
	return compiled, nil
}

// Cached returns the resolver published for key, if any.
func (c *Compiler) Cached(key scope.Key) (*Compiled, bool) {
	return c.cache.load(key)
}

// CacheLen returns the number of published scope-cached resolvers.
func (c *Compiler) CacheLen() int { return c.cache.len() }

// Compilations returns how many trees have been fully compiled, including
// scope-cached resolvers that lost the publication race.
func (c *Compiler) Compilations() int64 { return c.compiles.Load() }

// Discarded returns how many compiled resolvers lost the publication race.
func (c *Compiler) Discarded() int64 { return c.discarded.Load() }

func (c *Compiler) compileScoped(ctx context.Context, site callsite.CallSite) (*Compiled, error) {
	key := site.Cache().Key
	if compiled, ok := c.cache.load(key); ok {
		return compiled, nil
	}

	compiled, err := c.build(ctx, site, true)
	if err != nil {
		return nil, err
	}

	actual, published := c.cache.publish(key, compiled)
	if !published {
		c.discarded.Add(1)
		c.log.Debug("discarded duplicate resolver", logger.Fields(
			logger.FieldCacheKey, key.String(),
		))
		return actual, nil
	}
	c.emit(ctx, actual)
	return actual, nil
}

func (c *Compiler) build(ctx context.Context, site callsite.CallSite, scoped bool) (*Compiled, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "resolver.compile", trace.WithAttributes(
		attribute.String(logger.FieldServiceType, site.ServiceType().String()),
		attribute.String(logger.FieldLocation, site.Cache().Location.String()),
	))
	defer span.End()

	u := &unit{c: c, env: &Env{}}
	var (
		body erasedFn
		err  error
	)
	if scoped {
		body, err = u.scoped(ctx, site)
	} else {
		var e expr
		if e, err = u.visit(ctx, site); err == nil {
			body = u.erase(e)
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	u.env.seal()
	u.stats.Slots = u.env.Len()
	compiled := &Compiled{
		site:     site,
		env:      u.env,
		body:     body,
		stats:    u.stats,
		duration: time.Since(start),
	}
	c.compiles.Add(1)

	span.SetAttributes(attribute.Int(logger.FieldCost, compiled.Cost()))
	c.log.Debug("compiled resolver", logger.Fields(
		logger.FieldServiceType, site.ServiceType().String(),
		logger.FieldLocation, site.Cache().Location.String(),
		logger.FieldCost, compiled.Cost(),
		"slots", compiled.stats.Slots,
		logger.FieldDuration, compiled.duration.Milliseconds(),
	))
	return compiled, nil
}
