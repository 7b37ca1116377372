package compiler

import (
	"context"
	"reflect"

	"github.com/kbukum/resolvekit/callsite"
	"github.com/kbukum/resolvekit/errors"
	"github.com/kbukum/resolvekit/scope"
)

// unit is the state of one compilation: the Env being filled and the
// statistics of the resolver being built.
type unit struct {
	c     *Compiler
	env   *Env
	stats Stats
}

func (u *unit) visit(ctx context.Context, site callsite.CallSite) (expr, error) {
	if err := callsite.Check(site); err != nil {
		return expr{}, err
	}

	switch site.Cache().Location {
	case callsite.LocationRoot:
		return u.visitRoot(ctx, site)
	case callsite.LocationScope:
		return u.visitScoped(ctx, site)
	}

	e, err := u.visitNoCache(ctx, site)
	if err != nil {
		return expr{}, err
	}
	if site.CaptureDisposal() && mayDispose(e.typ) {
		e = captureDisposal(e)
	}
	return e, nil
}

// visitRoot bakes a root-cached node: the instance is resolved now, against
// the root scope, and embedded as a constant.
func (u *unit) visitRoot(ctx context.Context, site callsite.CallSite) (expr, error) {
	u.stats.Nodes++
	v, err := u.c.interp.Resolve(ctx, site, u.c.root)
	if err != nil {
		return expr{}, err
	}
	return u.constant(site.ServiceType(), v), nil
}

// visitScoped references the shared resolver for a scope-cached subtree.
func (u *unit) visitScoped(ctx context.Context, site callsite.CallSite) (expr, error) {
	u.stats.Nodes++
	nested, err := u.c.compileScoped(ctx, site)
	if err != nil {
		return expr{}, err
	}
	u.stats.Nested++
	idx := u.env.add(SlotResolver, nested)
	env := u.env
	return erasedExpr(site.ServiceType(), func(ctx context.Context, s *scope.Scope) (any, error) {
		return env.slots[idx].resolver.Invoke(ctx, s)
	}), nil
}

func (u *unit) visitNoCache(ctx context.Context, site callsite.CallSite) (expr, error) {
	u.stats.Nodes++
	switch n := site.(type) {
	case *callsite.Constant:
		return u.constant(n.Service, n.Value), nil
	case *callsite.Factory:
		return u.factory(n), nil
	case *callsite.Self:
		return u.self(n), nil
	case *callsite.Enumerable:
		return u.enumerable(ctx, n)
	case *callsite.Constructor:
		return u.constructor(ctx, n)
	}
	return expr{}, errors.MalformedCallSite(site.ServiceType(), "unsupported node "+site.Kind().String())
}

func (u *unit) constant(service reflect.Type, v any) expr {
	idx := u.env.add(SlotConstant, v)
	env := u.env
	if v == nil {
		return erasedExpr(service, func(context.Context, *scope.Scope) (any, error) {
			return nil, nil
		})
	}
	return concreteExpr(reflect.TypeOf(v), func(context.Context, *scope.Scope) (reflect.Value, error) {
		return env.slots[idx].value, nil
	})
}

func (u *unit) factory(n *callsite.Factory) expr {
	idx := u.env.add(SlotFactory, n.Func)
	env := u.env
	return erasedExpr(n.Service, func(ctx context.Context, s *scope.Scope) (any, error) {
		return env.slots[idx].factory(ctx, s)
	})
}

func (u *unit) self(n *callsite.Self) expr {
	if n.Service == scope.Type {
		return concreteExpr(scope.Type, func(_ context.Context, s *scope.Scope) (reflect.Value, error) {
			return reflect.ValueOf(s), nil
		})
	}
	// requested through an interface the scope satisfies
	target := n.Service
	return concreteExpr(target, func(_ context.Context, s *scope.Scope) (reflect.Value, error) {
		return reflect.ValueOf(s).Convert(target), nil
	})
}

func (u *unit) enumerable(ctx context.Context, n *callsite.Enumerable) (expr, error) {
	if len(n.Items) == 0 {
		empty := reflect.ValueOf(callsite.EmptySequence(n.ItemType))
		return concreteExpr(empty.Type(), func(context.Context, *scope.Scope) (reflect.Value, error) {
			return empty, nil
		}), nil
	}

	items := make([]valueFn, len(n.Items))
	for i, item := range n.Items {
		e, err := u.visit(ctx, item)
		if err != nil {
			return expr{}, err
		}
		if items[i], err = u.valueOf(e, n.ItemType); err != nil {
			return expr{}, err
		}
	}

	sliceType := reflect.SliceOf(n.ItemType)
	return concreteExpr(sliceType, func(ctx context.Context, s *scope.Scope) (reflect.Value, error) {
		out := reflect.MakeSlice(sliceType, len(items), len(items))
		for i, item := range items {
			v, err := item(ctx, s)
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(v)
		}
		return out, nil
	}), nil
}

func (u *unit) constructor(ctx context.Context, n *callsite.Constructor) (expr, error) {
	ft := n.Func.Type()
	args := make([]valueFn, len(n.Args))
	for i, arg := range n.Args {
		e, err := u.visit(ctx, arg)
		if err != nil {
			return expr{}, err
		}
		if args[i], err = u.valueOf(e, ft.In(i)); err != nil {
			return expr{}, err
		}
	}

	fn := n.Func
	returnsErr := n.ReturnsError()
	return concreteExpr(ft.Out(0), func(ctx context.Context, s *scope.Scope) (reflect.Value, error) {
		in := make([]reflect.Value, len(args))
		for i, arg := range args {
			v, err := arg(ctx, s)
			if err != nil {
				return reflect.Value{}, err
			}
			in[i] = v
		}
		out := fn.Call(in)
		if returnsErr && !out[1].IsNil() {
			return reflect.Value{}, out[1].Interface().(error)
		}
		return out[0], nil
	}), nil
}

// captureDisposal hands every produced instance to the executing scope.
func captureDisposal(e expr) expr {
	if e.repr == ReprErased {
		inner := e.erased
		return erasedExpr(e.typ, func(ctx context.Context, s *scope.Scope) (any, error) {
			v, err := inner(ctx, s)
			if err != nil {
				return nil, err
			}
			if err := s.CaptureDisposal(v); err != nil {
				return nil, err
			}
			return v, nil
		})
	}

	inner := e.concrete
	return concreteExpr(e.typ, func(ctx context.Context, s *scope.Scope) (reflect.Value, error) {
		v, err := inner(ctx, s)
		if err != nil {
			return reflect.Value{}, err
		}
		if err := s.CaptureDisposal(v.Interface()); err != nil {
			return reflect.Value{}, err
		}
		return v, nil
	})
}
