package compiler

import (
	"fmt"
	"reflect"

	"github.com/kbukum/resolvekit/callsite"
)

// SlotKind is what a captured slot holds.
type SlotKind uint8

const (
	SlotConstant SlotKind = iota
	SlotFactory
	SlotResolver
)

func (k SlotKind) String() string {
	switch k {
	case SlotConstant:
		return "constant"
	case SlotFactory:
		return "factory"
	case SlotResolver:
		return "resolver"
	default:
		return fmt.Sprintf("SlotKind(%d)", uint8(k))
	}
}

func (k SlotKind) prefix() string {
	switch k {
	case SlotFactory:
		return "f"
	case SlotResolver:
		return "r"
	default:
		return "c"
	}
}

// Slot is one captured value of a compiled resolver.
type Slot struct {
	Name  string
	Kind  SlotKind
	Value any
}

type envSlot struct {
	Slot
	value    reflect.Value
	factory  callsite.FactoryFunc
	resolver *Compiled
}

// Env is the captured state of one compiled resolver: embedded constants,
// factory delegates and nested resolvers, in the order the compiler met them.
// It is filled during compilation and read-only afterwards.
type Env struct {
	slots  []envSlot
	sealed bool
}

// Len returns the number of slots.
func (e *Env) Len() int { return len(e.slots) }

// Slot returns the i-th slot.
func (e *Env) Slot(i int) Slot { return e.slots[i].Slot }

// Slots returns a copy of all slots.
func (e *Env) Slots() []Slot {
	out := make([]Slot, len(e.slots))
	for i := range e.slots {
		out[i] = e.slots[i].Slot
	}
	return out
}

func (e *Env) add(kind SlotKind, v any) int {
	if e.sealed {
		panic("compiler: slot added to a sealed environment")
	}
	idx := len(e.slots)
	slot := envSlot{Slot: Slot{Name: fmt.Sprintf("%s%d", kind.prefix(), idx), Kind: kind, Value: v}}
	switch kind {
	case SlotConstant:
		if v != nil {
			slot.value = reflect.ValueOf(v)
		}
	case SlotFactory:
		slot.factory = v.(callsite.FactoryFunc)
	case SlotResolver:
		slot.resolver = v.(*Compiled)
	}
	e.slots = append(e.slots, slot)
	return idx
}

func (e *Env) seal() { e.sealed = true }
