package compiler

import (
	"sync"

	"github.com/kbukum/resolvekit/scope"
)

// scopeCache maps cache keys to published resolvers. Entries are never
// replaced or removed.
type scopeCache struct {
	m sync.Map // scope.Key -> *Compiled
}

func (c *scopeCache) load(key scope.Key) (*Compiled, bool) {
	v, ok := c.m.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Compiled), true
}

// publish stores compiled under key unless another resolver got there first.
// It returns the resolver now visible for key and whether it is compiled.
func (c *scopeCache) publish(key scope.Key, compiled *Compiled) (*Compiled, bool) {
	actual, loaded := c.m.LoadOrStore(key, compiled)
	return actual.(*Compiled), !loaded
}

func (c *scopeCache) len() int {
	n := 0
	c.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
