// Package compiler lowers call-site trees into reusable resolvers.
//
// Compile walks a tree once and returns a *Compiled whose Invoke constructs
// the service without revisiting the tree: constants and factory delegates
// are captured in the resolver's Env, root-cached nodes are resolved once at
// compile time and embedded as constants, and scope-cached subtrees are
// compiled once per cache key and shared by every resolver that reaches them.
//
//	c := compiler.New(root, interpreter.New())
//	resolver, err := c.Compile(ctx, site)
//	if err != nil {
//	    return err
//	}
//	svc, err := resolver.Invoke(ctx, requestScope)
//
// Each compiled sub-expression carries its static representation: erased
// (an interface value) or concrete (a reflect.Value of a known type).
// Conversions between the two are inserted only where a consumer needs the
// other form; Stats reports how many of each were emitted.
//
// Compiling the same scope-cached key from several goroutines may do the work
// more than once, but only the first result is ever published.
package compiler
