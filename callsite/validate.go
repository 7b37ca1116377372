package callsite

import (
	"fmt"
	"reflect"

	"github.com/kbukum/resolvekit/errors"
	"github.com/kbukum/resolvekit/scope"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Check validates a single node, not its children. Engines call it on every
// node they visit, so a malformed tree fails before anything is published.
func Check(site CallSite) error {
	if isNil(site) {
		return errors.MalformedCallSite(nil, "nil call site")
	}
	service := site.ServiceType()
	if service == nil {
		return errors.MalformedCallSite(nil, fmt.Sprintf("%s node without service type", site.Kind()))
	}

	cache := site.Cache()
	switch cache.Location {
	case LocationNone:
	case LocationRoot, LocationScope:
		if cache.Key.IsZero() {
			return errors.MalformedCallSite(service, fmt.Sprintf("%s-cached node without cache key", cache.Location))
		}
	default:
		return errors.MalformedCallSite(service, fmt.Sprintf("unknown cache location %s", cache.Location))
	}

	switch n := site.(type) {
	case *Constant:
		if n.Value != nil && !reflect.TypeOf(n.Value).AssignableTo(service) {
			return errors.TypeMismatch(service, reflect.TypeOf(n.Value))
		}
	case *Factory:
		if n.Func == nil {
			return errors.MalformedCallSite(service, "factory without delegate")
		}
	case *Self:
		if !scope.Type.AssignableTo(service) {
			return errors.TypeMismatch(service, scope.Type)
		}
	case *Enumerable:
		if n.ItemType == nil {
			return errors.MalformedCallSite(service, "enumerable without item type")
		}
		if service != reflect.SliceOf(n.ItemType) {
			return errors.TypeMismatch(service, reflect.SliceOf(n.ItemType))
		}
		for i, item := range n.Items {
			if isNil(item) {
				return errors.MalformedCallSite(service, fmt.Sprintf("nil item at index %d", i))
			}
		}
	case *Constructor:
		if err := checkConstructorFunc(service, n.Func, len(n.Args)); err != nil {
			return err
		}
		for i, arg := range n.Args {
			if isNil(arg) {
				return errors.MalformedCallSite(service, fmt.Sprintf("nil argument at index %d", i))
			}
		}
	default:
		return errors.MalformedCallSite(service, fmt.Sprintf("unsupported node %T", site))
	}
	return nil
}

func checkConstructorFunc(service reflect.Type, fn reflect.Value, args int) error {
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return errors.MalformedCallSite(service, "constructor must be a function")
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		return errors.MalformedCallSite(service, "variadic constructors are not supported")
	}
	if ft.NumIn() != args {
		return errors.MalformedCallSite(service,
			fmt.Sprintf("constructor takes %d arguments, call site has %d", ft.NumIn(), args))
	}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return errors.MalformedCallSite(service, "second constructor result must be error")
		}
	default:
		return errors.MalformedCallSite(service, "constructor must return (instance) or (instance, error)")
	}
	if service != nil && !ft.Out(0).AssignableTo(service) {
		return errors.TypeMismatch(service, ft.Out(0))
	}
	return nil
}

func isNil(site CallSite) bool {
	if site == nil {
		return true
	}
	v := reflect.ValueOf(site)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
