package scope

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// LockMode selects the granularity of the resolution lock.
type LockMode int

const (
	// LockScope uses one lock for the whole scope.
	LockScope LockMode = iota
	// LockKey uses one lock per Key, created on first use.
	LockKey
)

func (m LockMode) String() string {
	switch m {
	case LockScope:
		return "scope"
	case LockKey:
		return "key"
	default:
		return fmt.Sprintf("LockMode(%d)", int(m))
	}
}

// ParseLockMode parses "scope" or "key".
func ParseLockMode(s string) (LockMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "scope":
		return LockScope, nil
	case "key":
		return LockKey, nil
	default:
		return LockScope, fmt.Errorf("unknown lock mode %q", s)
	}
}

// resolutionLock is a mutex that can be re-entered by holders of a context
// returned from acquire.
type resolutionLock struct {
	mu sync.Mutex
}

type heldLockKey struct{ l *resolutionLock }

func (l *resolutionLock) acquire(ctx context.Context) (context.Context, func()) {
	if ctx.Value(heldLockKey{l}) != nil {
		return ctx, func() {}
	}
	l.mu.Lock()
	return context.WithValue(ctx, heldLockKey{l}, struct{}{}), l.mu.Unlock
}

func (l *resolutionLock) heldBy(ctx context.Context) bool {
	return ctx.Value(heldLockKey{l}) != nil
}
