// Package callsite defines the call-site tree: an immutable description of how
// to produce one service instance.
//
// A tree is made of five node kinds (Constant, Factory, Self, Enumerable and
// Constructor). Every node carries a ResultCache telling the engine where the
// produced instance lives: nowhere (LocationNone), in the root scope for the
// container's lifetime (LocationRoot), or once per scope (LocationScope).
//
//	clock := callsite.NewConstant(callsite.TypeOf[Clock](), systemClock{})
//	repo := callsite.MustConstructor(callsite.TypeOf[*Repo](), NewRepo,
//		[]callsite.CallSite{clock}, callsite.Lifetime(callsite.LocationScope))
//
// Trees are built once and only read afterwards, so they can be shared
// freely between goroutines.
package callsite
