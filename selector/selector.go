// Package selector is the public surface of the component selection
// core: given an implementation provider and a set of requirements, it
// produces a selections document describing one consistent set of
// implementations satisfying them. Everything underneath
// (internal/sat, internal/cache, internal/build, internal/decide,
// internal/assemble) is an implementation detail of Solve.
package selector

import (
	"context"

	"github.com/deploysync/selectcore/internal/assemble"
	"github.com/deploysync/selectcore/internal/driver"
	"github.com/deploysync/selectcore/internal/model"
	"github.com/deploysync/selectcore/internal/sat"
)

// ImplementationProvider enumerates implementation candidates and
// decides which dependencies are active. Callers supply one; this
// package never constructs implementations on its own.
type ImplementationProvider = model.Provider

// Requirements describes what to select.
type Requirements = driver.Requirements

// Interface is the opaque identifier of an abstract component.
type Interface = model.Interface

// Implementation is a concrete, installable version of an interface.
type Implementation = model.Implementation

// Restriction narrows the acceptable candidates of a dependency or an
// extra requirements-level restriction.
type Restriction = model.Restriction

// VersionRestriction and ArchRestriction are the two restriction kinds
// this package ships.
type VersionRestriction = model.VersionRestriction
type ArchRestriction = model.ArchRestriction

// Selections is the produced document: one Selection per participating
// interface (plus a source Selection for a compiled implementation), in
// lexicographic interface order.
type Selections = assemble.Selections

// Selection is a single interface's chosen implementation.
type Selection = assemble.Selection

// ImplementationStatus pairs a reached interface with its selected
// implementation and governing literal.
type ImplementationStatus = driver.ImplementationStatus

// Reason is a node in a diagnostic explanation tree.
type Reason = sat.Reason

// Result is everything a solve produced.
type Result = driver.Result

// Solve runs the two-pass solve_for algorithm: try a normal solve
// first, and fall back to a diagnostic (closest-match) solve, which
// always succeeds, only if the normal pass is unsatisfiable.
// Result.Ok reports which pass actually produced the document.
func Solve(ctx context.Context, provider ImplementationProvider, reqs Requirements) (*Result, error) {
	return driver.Solve(ctx, provider, reqs)
}

// SolveAll runs Solve once per requirement, aggregating every
// independent failure into a single error instead of aborting on the
// first one.
func SolveAll(ctx context.Context, provider ImplementationProvider, reqs []Requirements) ([]*Result, error) {
	return driver.SolveAll(ctx, provider, reqs)
}
