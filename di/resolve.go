package di

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kbukum/resolvekit/callsite"
	"github.com/kbukum/resolvekit/errors"
	"github.com/kbukum/resolvekit/scope"
)

// Resolve resolves site with type safety, returns error on failure.
//
// Example:
//
//	repo, err := di.Resolve[*orders.Repo](ctx, c, repoSite, requestScope)
//	if err != nil {
//	    return fmt.Errorf("failed to get order repository: %w", err)
//	}
func Resolve[T any](ctx context.Context, c *Container, site callsite.CallSite, s *scope.Scope) (T, error) {
	var zero T
	instance, err := c.Resolve(ctx, site, s)
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}
	result, ok := instance.(T)
	if !ok {
		return zero, errors.TypeMismatch(callsite.TypeOf[T](), reflect.TypeOf(instance))
	}
	return result, nil
}

// MustResolve resolves site with type safety, panics on error.
//
// Example:
//
//	clock := di.MustResolve[Clock](ctx, c, clockSite, nil)
func MustResolve[T any](ctx context.Context, c *Container, site callsite.CallSite, s *scope.Scope) T {
	result, err := Resolve[T](ctx, c, site, s)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %s: %v", callsite.TypeOf[T](), err))
	}
	return result
}

// TryResolve resolves site, returns zero value and false on any failure.
// Use this when a dependency is optional.
//
// Example:
//
//	if metrics, ok := di.TryResolve[MetricsClient](ctx, c, metricsSite, s); ok {
//	    metrics.RecordEvent(...)
//	}
func TryResolve[T any](ctx context.Context, c *Container, site callsite.CallSite, s *scope.Scope) (T, bool) {
	result, err := Resolve[T](ctx, c, site, s)
	if err != nil {
		var zero T
		return zero, false
	}
	return result, true
}
