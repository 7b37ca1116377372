package callsite

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kbukum/resolvekit/scope"
)

// Kind identifies the shape of a call-site node.
type Kind byte

const (
	KindConstant Kind = iota + 1
	KindFactory
	KindSelf
	KindEnumerable
	KindConstructor
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindFactory:
		return "factory"
	case KindSelf:
		return "self"
	case KindEnumerable:
		return "enumerable"
	case KindConstructor:
		return "constructor"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// CallSite is a node of the call-site tree.
type CallSite interface {
	Kind() Kind
	// ServiceType is the type the node was requested as.
	ServiceType() reflect.Type
	// ImplementationType is the concrete type produced, or nil when unknown
	// before the node runs.
	ImplementationType() reflect.Type
	Cache() ResultCache
	// CaptureDisposal reports whether produced instances must be handed to
	// the executing scope for disposal.
	CaptureDisposal() bool
}

// FactoryFunc produces an instance for the scope it is invoked against.
type FactoryFunc func(ctx context.Context, s *scope.Scope) (any, error)

// Base holds the fields shared by every node kind.
type Base struct {
	Service        reflect.Type
	Implementation reflect.Type
	Result         ResultCache
	Dispose        bool
}

func (b Base) ServiceType() reflect.Type        { return b.Service }
func (b Base) ImplementationType() reflect.Type { return b.Implementation }
func (b Base) Cache() ResultCache               { return b.Result }
func (b Base) CaptureDisposal() bool            { return b.Dispose }

// Constant returns a fixed value.
type Constant struct {
	Base
	Value any
}

func (*Constant) Kind() Kind { return KindConstant }

// Factory invokes a user delegate on every execution.
type Factory struct {
	Base
	Func FactoryFunc
}

func (*Factory) Kind() Kind { return KindFactory }

// Self returns the executing scope handle.
type Self struct {
	Base
}

func (*Self) Kind() Kind { return KindSelf }

// Enumerable aggregates sibling call sites into a slice of ItemType.
type Enumerable struct {
	Base
	ItemType reflect.Type
	Items    []CallSite
}

func (*Enumerable) Kind() Kind { return KindEnumerable }

// Constructor calls Func with the values produced by Args, in order.
type Constructor struct {
	Base
	Func reflect.Value
	Args []CallSite
}

func (*Constructor) Kind() Kind { return KindConstructor }

// ReturnsError reports whether Func has a trailing error result.
func (c *Constructor) ReturnsError() bool {
	return c.Func.Type().NumOut() == 2
}

// Option annotates a node while it is built.
type Option func(*nodeOptions)

type nodeOptions struct {
	location Location
	slot     int
	dispose  *bool
}

// Lifetime sets the cache location of the node.
func Lifetime(loc Location) Option {
	return func(o *nodeOptions) { o.location = loc }
}

// Slot sets the cache slot of the node. Slot 0 is the default registration.
func Slot(slot int) Option {
	return func(o *nodeOptions) { o.slot = slot }
}

// Disposal overrides whether produced instances are captured for disposal.
func Disposal(capture bool) Option {
	return func(o *nodeOptions) { o.dispose = &capture }
}

func newBase(service, impl reflect.Type, dispose bool, opts []Option) Base {
	o := nodeOptions{location: LocationNone}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dispose != nil {
		dispose = *o.dispose
	}
	return Base{
		Service:        service,
		Implementation: impl,
		Result:         ResultCache{Location: o.location, Key: scope.NewKey(service, o.slot)},
		Dispose:        dispose,
	}
}

// NewConstant returns a node that always yields value.
func NewConstant(serviceType reflect.Type, value any, opts ...Option) *Constant {
	return &Constant{
		Base:  newBase(serviceType, reflect.TypeOf(value), false, opts),
		Value: value,
	}
}

// NewFactory returns a node that invokes fn. Results are checked for
// disposability at run time.
func NewFactory(serviceType reflect.Type, fn FactoryFunc, opts ...Option) *Factory {
	return &Factory{
		Base: newBase(serviceType, nil, true, opts),
		Func: fn,
	}
}

// NewSelf returns a node yielding the executing scope as serviceType.
func NewSelf(serviceType reflect.Type, opts ...Option) *Self {
	return &Self{Base: newBase(serviceType, scope.Type, false, opts)}
}

// NewEnumerable returns a node producing a []itemType from items.
func NewEnumerable(itemType reflect.Type, items []CallSite, opts ...Option) *Enumerable {
	sliceType := reflect.SliceOf(itemType)
	return &Enumerable{
		Base:     newBase(sliceType, sliceType, false, opts),
		ItemType: itemType,
		Items:    items,
	}
}

// NewConstructor returns a node calling fn, which must have the shape
// func(args...) T or func(args...) (T, error), with one argument per call site.
func NewConstructor(serviceType reflect.Type, fn any, args []CallSite, opts ...Option) (*Constructor, error) {
	v := reflect.ValueOf(fn)
	if err := checkConstructorFunc(serviceType, v, len(args)); err != nil {
		return nil, err
	}
	impl := v.Type().Out(0)
	dispose := impl.Kind() == reflect.Interface || impl.Implements(scope.DisposableType)
	return &Constructor{
		Base: newBase(serviceType, impl, dispose, opts),
		Func: v,
		Args: args,
	}, nil
}

// MustConstructor is like NewConstructor but panics on error.
func MustConstructor(serviceType reflect.Type, fn any, args []CallSite, opts ...Option) *Constructor {
	c, err := NewConstructor(serviceType, fn, args, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
