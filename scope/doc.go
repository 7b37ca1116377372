// Package scope holds resolved instances for one unit of work.
//
// A Scope owns an instance map keyed by Key, a resolution lock that guards
// first-time construction, and the list of instances it must close when the
// scope ends. Every container has one long-lived root scope; request-sized
// scopes are created from it with NewChild.
//
//	root := scope.NewRoot()
//	defer root.Close()
//
//	req := root.NewChild()
//	defer req.Close()
//
// # Locking
//
// By default a scope serializes first-time construction with a single
// scope-wide lock (LockScope). LockKey trades that for one lock per Key.
// In both modes the lock is re-entrant along a resolution chain: Lock returns
// a context that marks the lock as held, and a nested Lock call made with
// that context does not block. Goroutines started by a builder may share its
// context; LoadOrBuild still runs one build per Key, and late callers wait
// for it and receive the same instance.
package scope
