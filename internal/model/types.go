// Package model holds the data types the solver core observes on the
// implementation-provider side of the boundary: interfaces,
// implementations, commands, dependencies and bindings. Feed parsing,
// the XML/attribute layer, and provider ranking policy are explicitly
// out of scope (they live on the caller's side of
// ImplementationProvider); this package only names the shapes the
// solver needs to reason about.
package model

import (
	"fmt"

	"github.com/blang/semver/v4"
)

// Interface is the opaque identifier (URI, in the real system) of an
// abstract component. It is the key of both candidate caches.
type Interface string

func (i Interface) String() string { return string(i) }

// Importance classifies how strongly a Dependency constrains a
// solution.
type Importance int

const (
	// Essential dependencies must be satisfied by a compatible,
	// non-failing candidate whenever the depending implementation
	// or command is selected.
	Essential Importance = iota
	// Recommended dependencies are best-effort: a failing
	// candidate must not be selected for the target interface, but
	// the interface may otherwise go unused.
	Recommended
	// Restricts dependencies contribute no selection/command
	// obligation at all; they only narrow which candidates of the
	// target interface are acceptable.
	Restricts
)

func (i Importance) String() string {
	switch i {
	case Essential:
		return "essential"
	case Recommended:
		return "recommended"
	case Restricts:
		return "restricts"
	default:
		return "unknown"
	}
}

// Restriction narrows the set of acceptable candidates for a
// Dependency's target interface.
type Restriction interface {
	// MeetsRestriction reports whether impl satisfies this
	// restriction. The dummy implementation always satisfies every
	// restriction.
	MeetsRestriction(impl *Implementation) bool
	fmt.Stringer
}

// VersionRestriction is the common case: the target implementation's
// version must fall within [Min, Max) (either bound may be nil to
// mean unbounded).
type VersionRestriction struct {
	Min, Max *semver.Version
}

func (r VersionRestriction) MeetsRestriction(impl *Implementation) bool {
	if impl.IsDummy() {
		return true
	}
	if impl.Version == nil {
		return false
	}
	if r.Min != nil && impl.Version.LT(*r.Min) {
		return false
	}
	if r.Max != nil && !impl.Version.LT(*r.Max) {
		return false
	}
	return true
}

func (r VersionRestriction) String() string {
	switch {
	case r.Min != nil && r.Max != nil:
		return fmt.Sprintf(">=%s, <%s", r.Min, r.Max)
	case r.Min != nil:
		return fmt.Sprintf(">=%s", r.Min)
	case r.Max != nil:
		return fmt.Sprintf("<%s", r.Max)
	default:
		return "any version"
	}
}

// ArchRestriction rejects any implementation whose Machine tag is set
// and does not equal one of the accepted machine names.
type ArchRestriction struct {
	Accepted []string
}

func (r ArchRestriction) MeetsRestriction(impl *Implementation) bool {
	if impl.IsDummy() || impl.Machine == nil {
		return true
	}
	for _, a := range r.Accepted {
		if a == *impl.Machine {
			return true
		}
	}
	return false
}

func (r ArchRestriction) String() string {
	return fmt.Sprintf("machine in %v", r.Accepted)
}

// Dependency is a directed link from an implementation or command to
// a target interface.
type Dependency struct {
	Target           Interface
	Importance       Importance
	Restrictions     []Restriction
	RequiredCommands []string
	// Use carries a feed-defined filter tag (e.g. "testing"); the
	// implementation provider's IsDepNeeded decides whether a
	// dependency bearing it contributes to the problem at all.
	Use string
	// Node is the opaque XML fragment this dependency was parsed
	// from. Result assembly copies it back verbatim for every
	// dependency it decides is actually in use.
	Node XMLFragment
}

// MeetsAll reports whether impl satisfies every restriction attached
// to the dependency.
func (d *Dependency) MeetsAll(impl *Implementation) bool {
	for _, r := range d.Restrictions {
		if !r.MeetsRestriction(impl) {
			return false
		}
	}
	return true
}

// Binding is an environmental injection a user of a selection must
// apply. The Node is an opaque XML fragment copied verbatim into
// result selections; only Command, naming a command in the same
// implementation this binding is attached to, is meaningful to the
// solver.
type Binding struct {
	Node    XMLFragment
	Command *string
}

// Command is a named invocation entry point exported by an
// implementation.
type Command struct {
	Name         string
	Node         XMLFragment
	Dependencies []*Dependency
	Bindings     []*Binding
}

// ImplMode distinguishes implementations that can be used as-is from
// ones that must first be compiled from a companion source
// implementation.
type ImplMode interface {
	isImplMode()
}

// Immediate implementations are ready to run without a compile step.
type Immediate struct{}

func (Immediate) isImplMode() {}

// RequiresCompilation implementations must be built from Source
// before use. Source is forced at most once (sync.Once semantics are
// the caller's responsibility; see providertest.LazySource for a
// ready-made memoizing helper) because provider lookups may be
// expensive and the same reference can be walked more than once while
// the problem builder discovers the graph.
type RequiresCompilation struct {
	Source func() *Implementation
}

func (RequiresCompilation) isImplMode() {}

// DummyVersionSentinel marks the synthetic "dummy" implementation
// injected only in diagnostic (closest-match) mode.
const DummyVersionSentinel = "dummy"

// Implementation is a concrete, installable version of an interface.
type Implementation struct {
	ID      string
	Version *semver.Version
	OS      *string
	Machine *string

	Attrs        map[string]string
	Dependencies []*Dependency
	Commands     map[string]*Command
	Bindings     []*Binding

	// ManifestDigest is copied verbatim into a selection when set; it
	// is nil for implementations with no recorded digest (always nil
	// for the dummy implementation).
	ManifestDigest *XMLFragment

	Mode ImplMode
}

const dummyImplementationID = "/dummy"

// IsDummy reports whether this is the synthetic dummy implementation
// added only in diagnostic mode.
func (impl *Implementation) IsDummy() bool {
	return impl.ID == dummyImplementationID
}

// NewDummyImplementation returns the sentinel implementation used
// only in diagnostic mode: it satisfies every restriction and offers
// any requested command via a dummy command node.
func NewDummyImplementation() *Implementation {
	return &Implementation{
		ID:      dummyImplementationID,
		Version: &dummyVersion,
		Attrs:   map[string]string{"from-feed": dummyImplementationID},
		Mode:    Immediate{},
	}
}

// dummyVersion is never compared by value, only ever referenced
// through NewDummyImplementation; its string form is "0.0.0-" followed
// by DummyVersionSentinel.
var dummyVersion = semver.Version{Pre: []semver.PRVersion{{VersionStr: DummyVersionSentinel}}}

// DummyCommand returns a command record satisfied unconditionally by
// the dummy implementation.
func DummyCommand(name string) *Command {
	return &Command{Name: name}
}

// XMLFragment is an opaque subtree copied verbatim by result
// assembly. The Element/attribute data model that would parse and
// produce these lives with an external collaborator, not here.
type XMLFragment struct {
	// Raw holds pre-serialized XML as produced by the (external)
	// feed layer. It is copied byte-for-byte into selection output.
	Raw []byte
}
