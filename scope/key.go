package scope

import (
	"fmt"
	"reflect"
)

// Key identifies a cached instance: the service type plus a slot that tells
// apart several registrations of the same type.
type Key struct {
	Type reflect.Type
	Slot int
}

// NewKey returns the key for typ at slot.
func NewKey(typ reflect.Type, slot int) Key {
	return Key{Type: typ, Slot: slot}
}

// IsZero reports whether k carries no type.
func (k Key) IsZero() bool { return k.Type == nil }

func (k Key) String() string {
	if k.Type == nil {
		return fmt.Sprintf("<nil>#%d", k.Slot)
	}
	return fmt.Sprintf("%s#%d", k.Type, k.Slot)
}

// flightID is unique per Key within the process. Type names alone can
// collide across packages, so the type's identity is part of it.
func (k Key) flightID() string {
	if k.Type == nil {
		return fmt.Sprintf("<nil>#%d", k.Slot)
	}
	return fmt.Sprintf("%s@%x#%d", k.Type, reflect.ValueOf(k.Type).Pointer(), k.Slot)
}
