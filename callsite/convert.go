package callsite

import (
	"reflect"

	"github.com/kbukum/resolvekit/errors"
)

// Narrow turns an erased value into a reflect.Value usable where target is
// expected. A nil value becomes the zero value of target when target can
// hold nil.
func Narrow(v any, target reflect.Type) (reflect.Value, error) {
	if v == nil {
		if !nilable(target) {
			return reflect.Value{}, errors.TypeMismatch(target, nil)
		}
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(target) {
		return reflect.Value{}, errors.TypeMismatch(target, rv.Type())
	}
	return rv, nil
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}
