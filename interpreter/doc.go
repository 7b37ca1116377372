// Package interpreter resolves call-site trees by walking them on every call.
//
// It is the reference implementation of the caching rules: root-cached
// nodes live in the root scope, scope-cached nodes in the executing scope,
// and uncached disposable results are captured by the executing scope as
// soon as they are produced. The compiler uses it to bake root-cached values
// at compile time and as the fallback when a scoped resolver runs against
// the root scope.
package interpreter
