// Package di is the container facade over the call-site engines.
//
// A Container owns the root scope and realizes call-site trees either by
// interpreting them, by compiling them once into reusable resolvers, or
// dynamically: interpreted until a call site has been resolved CompileAfter
// times, then compiled in the background.
//
//	c, err := di.NewContainer(di.WithConfig(cfg.Resolver))
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	s := c.CreateScope()
//	defer s.Close()
//
//	repo, err := di.Resolve[*orders.Repo](ctx, c, repoSite, s)
package di
