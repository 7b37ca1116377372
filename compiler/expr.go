package compiler

import (
	"context"
	"reflect"

	"github.com/kbukum/resolvekit/callsite"
	"github.com/kbukum/resolvekit/errors"
	"github.com/kbukum/resolvekit/scope"
)

// Repr is the static result representation of a compiled expression.
type Repr uint8

const (
	// ReprErased yields the result as an interface value.
	ReprErased Repr = iota
	// ReprConcrete yields a reflect.Value whose type is the expression type.
	ReprConcrete
)

func (r Repr) String() string {
	if r == ReprConcrete {
		return "concrete"
	}
	return "erased"
}

type erasedFn func(ctx context.Context, s *scope.Scope) (any, error)

type valueFn func(ctx context.Context, s *scope.Scope) (reflect.Value, error)

// expr is one lowered call site. Exactly one of erased and concrete is set,
// matching repr.
type expr struct {
	typ      reflect.Type
	repr     Repr
	erased   erasedFn
	concrete valueFn
}

func erasedExpr(typ reflect.Type, fn erasedFn) expr {
	return expr{typ: typ, repr: ReprErased, erased: fn}
}

func concreteExpr(typ reflect.Type, fn valueFn) expr {
	return expr{typ: typ, repr: ReprConcrete, concrete: fn}
}

// valueOf adapts e to a slot of type target, inserting a narrowing or
// widening step when the representations differ.
func (u *unit) valueOf(e expr, target reflect.Type) (valueFn, error) {
	if e.repr == ReprErased {
		u.countNarrowing(target)
		inner := e.erased
		return func(ctx context.Context, s *scope.Scope) (reflect.Value, error) {
			v, err := inner(ctx, s)
			if err != nil {
				return reflect.Value{}, err
			}
			return callsite.Narrow(v, target)
		}, nil
	}

	inner := e.concrete
	switch {
	case e.typ == target:
		return inner, nil
	case target.Kind() == reflect.Interface && e.typ.Kind() != reflect.Interface && e.typ.Implements(target):
		u.stats.Widening++
		return func(ctx context.Context, s *scope.Scope) (reflect.Value, error) {
			v, err := inner(ctx, s)
			if err != nil {
				return reflect.Value{}, err
			}
			return v.Convert(target), nil
		}, nil
	case e.typ.AssignableTo(target):
		return inner, nil
	case e.typ.Kind() == reflect.Interface:
		// the static type is an interface; only the dynamic value can tell
		u.countNarrowing(target)
		return func(ctx context.Context, s *scope.Scope) (reflect.Value, error) {
			v, err := inner(ctx, s)
			if err != nil {
				return reflect.Value{}, err
			}
			return callsite.Narrow(v.Interface(), target)
		}, nil
	default:
		return nil, errors.TypeMismatch(target, e.typ)
	}
}

// countNarrowing records an unboxing step. Reference-kinded targets are
// reached by a plain type assertion and are not counted.
func (u *unit) countNarrowing(target reflect.Type) {
	if isValueType(target) {
		u.stats.Narrowing++
	}
}

func isValueType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return false
	}
	return true
}

// erase adapts e to the erased representation.
func (u *unit) erase(e expr) erasedFn {
	if e.repr == ReprErased {
		return e.erased
	}
	u.stats.Widening++
	inner := e.concrete
	return func(ctx context.Context, s *scope.Scope) (any, error) {
		v, err := inner(ctx, s)
		if err != nil {
			return nil, err
		}
		return v.Interface(), nil
	}
}

// mayDispose reports whether values of typ can implement scope.Disposable.
// A nil type means the node only knows at run time.
func mayDispose(typ reflect.Type) bool {
	if typ == nil || typ.Kind() == reflect.Interface {
		return true
	}
	return typ.Implements(scope.DisposableType)
}
