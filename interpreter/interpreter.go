package interpreter

import (
	"context"
	"reflect"

	"github.com/kbukum/resolvekit/callsite"
	"github.com/kbukum/resolvekit/logger"
	"github.com/kbukum/resolvekit/scope"
)

// Interpreter walks call-site trees. It holds no per-tree state and is safe
// for concurrent use.
type Interpreter struct {
	log *logger.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the interpreter logger.
func WithLogger(l *logger.Logger) Option {
	return func(i *Interpreter) {
		if l != nil {
			i.log = l
		}
	}
}

// New creates an Interpreter.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{log: logger.Get("resolver.interpreter")}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Resolve produces the instance described by site for scope s.
func (i *Interpreter) Resolve(ctx context.Context, site callsite.CallSite, s *scope.Scope) (any, error) {
	if err := callsite.Check(site); err != nil {
		return nil, err
	}

	switch site.Cache().Location {
	case callsite.LocationRoot:
		return i.resolveCached(ctx, site, s.Root())
	case callsite.LocationScope:
		return i.resolveCached(ctx, site, s)
	default:
		v, err := i.build(ctx, site, s)
		if err != nil {
			return nil, err
		}
		if site.CaptureDisposal() {
			if err := s.CaptureDisposal(v); err != nil {
				return nil, err
			}
		}
		return v, nil
	}
}

func (i *Interpreter) resolveCached(ctx context.Context, site callsite.CallSite, s *scope.Scope) (any, error) {
	key := site.Cache().Key
	ctx, release := s.Lock(ctx, key)
	defer release()

	return s.LoadOrBuild(key, func() (any, error) {
		v, err := i.build(ctx, site, s)
		if err != nil {
			return nil, err
		}
		if site.CaptureDisposal() {
			if err := s.CaptureDisposal(v); err != nil {
				return nil, err
			}
		}

		i.log.Debug("cached instance created", logger.Fields(
			logger.FieldCacheKey, key.String(),
			logger.FieldLocation, site.Cache().Location.String(),
			logger.FieldScopeID, s.ID(),
		))
		return v, nil
	})
}

func (i *Interpreter) build(ctx context.Context, site callsite.CallSite, s *scope.Scope) (any, error) {
	switch n := site.(type) {
	case *callsite.Constant:
		return n.Value, nil
	case *callsite.Factory:
		return n.Func(ctx, s)
	case *callsite.Self:
		return s, nil
	case *callsite.Enumerable:
		return i.buildEnumerable(ctx, n, s)
	case *callsite.Constructor:
		return i.buildConstructor(ctx, n, s)
	}
	// unreachable: Check rejects unknown kinds
	return nil, callsite.Check(site)
}

func (i *Interpreter) buildEnumerable(ctx context.Context, n *callsite.Enumerable, s *scope.Scope) (any, error) {
	if len(n.Items) == 0 {
		return callsite.EmptySequence(n.ItemType), nil
	}

	items := reflect.MakeSlice(n.ServiceType(), len(n.Items), len(n.Items))
	for idx, item := range n.Items {
		v, err := i.Resolve(ctx, item, s)
		if err != nil {
			return nil, err
		}
		rv, err := callsite.Narrow(v, n.ItemType)
		if err != nil {
			return nil, err
		}
		items.Index(idx).Set(rv)
	}
	return items.Interface(), nil
}

func (i *Interpreter) buildConstructor(ctx context.Context, n *callsite.Constructor, s *scope.Scope) (any, error) {
	ft := n.Func.Type()
	args := make([]reflect.Value, len(n.Args))
	for idx, arg := range n.Args {
		v, err := i.Resolve(ctx, arg, s)
		if err != nil {
			return nil, err
		}
		if args[idx], err = callsite.Narrow(v, ft.In(idx)); err != nil {
			return nil, err
		}
	}

	out := n.Func.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}
