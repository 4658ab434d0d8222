package model

// Provider is the implementation-provider collaborator: it enumerates
// candidate implementations for an interface, in its own preferred
// order, and decides whether a dependency is active under the
// current scope (e.g. a feed's use="testing" filter). Ranking,
// rejection bookkeeping, and platform filtering are the provider's
// responsibility, not the solver core's.
type Provider interface {
	// GetImplementations returns the implementations on offer for
	// iface, in preference order (most preferred first), and,
	// optionally, a replacement interface this one has been
	// superseded by.
	GetImplementations(iface Interface) (replacement *Interface, impls []*Implementation)

	// IsDepNeeded reports whether dep should contribute clauses to
	// the problem at all. A provider typically says no for
	// dependencies gated by a <use> filter the current scope does
	// not satisfy.
	IsDepNeeded(dep *Dependency) bool
}
