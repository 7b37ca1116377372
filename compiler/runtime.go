package compiler

import (
	"context"

	"github.com/kbukum/resolvekit/callsite"
	"github.com/kbukum/resolvekit/scope"
)

// scoped lowers a scope-cached tree into its published resolver body: the
// node's own construction wrapped in the per-scope lookup protocol.
func (u *unit) scoped(ctx context.Context, site callsite.CallSite) (erasedFn, error) {
	e, err := u.visitNoCache(ctx, site)
	if err != nil {
		return nil, err
	}
	build := u.erase(e)

	key := site.Cache().Key
	dispose := site.CaptureDisposal() && mayDispose(site.ImplementationType())
	interp := u.c.interp

	return func(ctx context.Context, s *scope.Scope) (any, error) {
		// the root scope is served by the interpreter so root-cached and
		// scope-cached instances of the root share one store
		if s.IsRoot() {
			return interp.Resolve(ctx, site, s)
		}

		ctx, release := s.Lock(ctx, key)
		defer release()

		return s.LoadOrBuild(key, func() (any, error) {
			v, err := build(ctx, s)
			if err != nil {
				return nil, err
			}
			if dispose {
				if err := s.CaptureDisposal(v); err != nil {
					return nil, err
				}
			}
			return v, nil
		})
	}, nil
}
