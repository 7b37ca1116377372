package compiler

import (
	"context"
	"time"

	"github.com/kbukum/resolvekit/callsite"
	"github.com/kbukum/resolvekit/scope"
)

// Stats describes the shape of a compiled resolver.
type Stats struct {
	// Nodes is the number of call-site nodes lowered into this resolver.
	// Scope-cached subtrees count once, as the reference to their resolver.
	Nodes int
	// Slots is the number of captured Env slots.
	Slots int
	// Nested is the number of scope-cached resolvers referenced.
	Nested int
	// Narrowing is the number of erased-to-value-type conversions emitted.
	Narrowing int
	// Widening is the number of concrete-to-erased conversions emitted.
	Widening int
}

// Compiled is a reusable resolver for one call-site tree. Resolvers for
// the same scope-cache key are the same pointer.
type Compiled struct {
	site     callsite.CallSite
	env      *Env
	body     erasedFn
	stats    Stats
	duration time.Duration
}

// Invoke constructs the service for scope s.
func (c *Compiled) Invoke(ctx context.Context, s *scope.Scope) (any, error) {
	return c.body(ctx, s)
}

// CallSite returns the tree the resolver was compiled from.
func (c *Compiled) CallSite() callsite.CallSite { return c.site }

// Env returns the captured state of the resolver.
func (c *Compiled) Env() *Env { return c.env }

// Stats returns the shape of the resolver.
func (c *Compiled) Stats() Stats { return c.stats }

// Duration returns how long the compilation took.
func (c *Compiled) Duration() time.Duration { return c.duration }

// Cost is a rough size measure reported to telemetry.
func (c *Compiled) Cost() int {
	return c.stats.Nodes + c.stats.Narrowing + c.stats.Widening
}
