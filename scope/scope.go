package scope

import (
	"context"
	stderrors "errors"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kbukum/resolvekit/errors"
	"github.com/kbukum/resolvekit/logger"
)

// Disposable is implemented by instances the scope must close when it ends.
type Disposable interface {
	Close() error
}

// DisposableType is the reflect.Type of Disposable.
var DisposableType = reflect.TypeOf((*Disposable)(nil)).Elem()

// Type is the reflect.Type of *Scope.
var Type = reflect.TypeOf((*Scope)(nil))

// Option configures a root scope.
type Option func(*options)

type options struct {
	mode LockMode
	log  *logger.Logger
}

// WithLockMode sets the resolution lock granularity for the root and every child.
func WithLockMode(mode LockMode) Option {
	return func(o *options) { o.mode = mode }
}

// WithLogger sets the logger used for disposal diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Scope is a unit-of-work container for resolved instances.
// A Scope is safe for concurrent use.
type Scope struct {
	id     string
	isRoot bool
	root   *Scope
	mode   LockMode
	log    *logger.Logger

	scopeLock resolutionLock
	keyLocks  sync.Map // Key -> *resolutionLock
	flight    singleflight.Group

	mu          sync.Mutex
	instances   map[Key]any
	disposables []Disposable
	disposed    bool
}

// NewRoot creates the long-lived root scope.
func NewRoot(opts ...Option) *Scope {
	o := options{mode: LockScope}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("resolver.scope")
	}

	s := newScope(o.mode, o.log, true)
	s.root = s
	return s
}

// NewChild creates a scope parented to the root of s.
func (s *Scope) NewChild() *Scope {
	child := newScope(s.mode, s.log, false)
	child.root = s.root
	return child
}

func newScope(mode LockMode, log *logger.Logger, isRoot bool) *Scope {
	return &Scope{
		id:        uuid.NewString(),
		isRoot:    isRoot,
		mode:      mode,
		log:       log,
		instances: make(map[Key]any),
	}
}

// ID returns the unique identifier of the scope.
func (s *Scope) ID() string { return s.id }

// IsRoot reports whether s is the root scope.
func (s *Scope) IsRoot() bool { return s.isRoot }

// Root returns the root scope s belongs to.
func (s *Scope) Root() *Scope { return s.root }

// LockMode returns the lock granularity of s.
func (s *Scope) LockMode() LockMode { return s.mode }

// Lock acquires the resolution lock guarding key and returns a context that
// marks it as held together with the release function. If ctx already holds
// the lock, Lock returns immediately and release is a no-op.
func (s *Scope) Lock(ctx context.Context, key Key) (context.Context, func()) {
	return s.lockFor(key).acquire(ctx)
}

// Holds reports whether ctx holds the resolution lock guarding key.
func (s *Scope) Holds(ctx context.Context, key Key) bool {
	return s.lockFor(key).heldBy(ctx)
}

func (s *Scope) lockFor(key Key) *resolutionLock {
	if s.mode != LockKey {
		return &s.scopeLock
	}
	if l, ok := s.keyLocks.Load(key); ok {
		return l.(*resolutionLock)
	}
	l, _ := s.keyLocks.LoadOrStore(key, &resolutionLock{})
	return l.(*resolutionLock)
}

// Lookup returns the instance stored under key.
func (s *Scope) Lookup(key Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.instances[key]
	return v, ok
}

// Store records v under key unless an instance is already stored there.
// It returns the instance held under key afterwards and whether v was stored.
func (s *Scope) Store(key Key, v any) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.instances[key]; ok {
		return existing, false
	}
	s.instances[key] = v
	return v, true
}

// LoadOrBuild returns the instance stored under key, calling build to create
// it when absent. Callers racing on the same key share a single build, even
// when they pass the resolution lock through a shared context. A closed
// scope yields SCOPE_DISPOSED. A failed build stores nothing.
func (s *Scope) LoadOrBuild(key Key, build func() (any, error)) (any, error) {
	if err := s.Err(); err != nil {
		return nil, err
	}
	if v, ok := s.Lookup(key); ok {
		return v, nil
	}

	v, err, _ := s.flight.Do(key.flightID(), func() (any, error) {
		if v, ok := s.Lookup(key); ok {
			return v, nil
		}
		if err := s.Err(); err != nil {
			return nil, err
		}
		v, err := build()
		if err != nil {
			return nil, err
		}
		actual, _ := s.Store(key, v)
		return actual, nil
	})
	return v, err
}

// Len returns the number of stored instances.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.instances)
}

// CaptureDisposal registers v to be closed when s ends. Values that do not
// implement Disposable are ignored. If s is already closed, v is closed
// immediately and a SCOPE_DISPOSED error is returned.
func (s *Scope) CaptureDisposal(v any) error {
	d, ok := v.(Disposable)
	if !ok {
		return nil
	}
	if other, isScope := v.(*Scope); isScope && other == s {
		return nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil
	}

	s.mu.Lock()
	if !s.disposed {
		s.disposables = append(s.disposables, d)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	err := errors.ScopeDisposed(s.id)
	if closeErr := d.Close(); closeErr != nil {
		err = err.WithCause(closeErr)
	}
	return err
}

// Disposables returns the number of instances waiting to be closed.
func (s *Scope) Disposables() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.disposables)
}

// Err returns a SCOPE_DISPOSED error once s has been closed.
func (s *Scope) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return errors.ScopeDisposed(s.id)
	}
	return nil
}

// Close closes every captured instance exactly once, most recent first.
// Closing an already closed scope is a no-op.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	disposables := s.disposables
	s.disposables = nil
	s.mu.Unlock()

	var errs []error
	for i := len(disposables) - 1; i >= 0; i-- {
		if err := disposables[i].Close(); err != nil {
			s.log.Warn("disposable close failed", logger.Fields(
				logger.FieldScopeID, s.id,
				logger.FieldError, err.Error(),
			))
			errs = append(errs, err)
		}
	}

	s.log.Debug("scope closed", logger.Fields(
		logger.FieldScopeID, s.id,
		"closed", len(disposables),
		"root", s.isRoot,
	))
	return stderrors.Join(errs...)
}
