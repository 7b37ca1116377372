package callsite

import (
	"reflect"
	"sync"
)

var emptySequences sync.Map // reflect.Type -> any

// EmptySequence returns the process-wide shared empty []itemType.
func EmptySequence(itemType reflect.Type) any {
	if v, ok := emptySequences.Load(itemType); ok {
		return v
	}
	v, _ := emptySequences.LoadOrStore(itemType,
		reflect.MakeSlice(reflect.SliceOf(itemType), 0, 0).Interface())
	return v
}
