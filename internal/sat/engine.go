package sat

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	unsatisfiable = -1
	unknown       = 0
	satisfiable   = 1
)

// Incomplete is returned by RunSolver if ctx is done before search
// could establish satisfiability either way. The engine itself never
// suspends mid-search; this only fires on the single check made at
// the start of RunSolver.
var Incomplete = errors.New("sat: cancelled before a solution could be found")

// AppliedConstraint names one clause that contributed to an
// unsatisfiable result.
type AppliedConstraint struct {
	Lit    Lit
	Reason string
}

func (a AppliedConstraint) String() string {
	return a.Reason
}

// NotSatisfiable is a minimal set of applied constraints sufficient
// to make a solution impossible.
type NotSatisfiable []AppliedConstraint

func (e NotSatisfiable) Error() string {
	const msg = "constraints not satisfiable"
	if len(e) == 0 {
		return msg
	}
	s := make([]string, len(e))
	for i, a := range e {
		s[i] = a.String()
	}
	return fmt.Sprintf("%s: %s", msg, strings.Join(s, ", "))
}

// Decider chooses the next literal to assign true, or reports that no
// further decisions remain by returning ok == false. RunSolver calls
// Next repeatedly, in a depth-first fashion, backtracking through the
// engine's own trial (Test/Untest) mechanism whenever a choice leads
// to conflict. This is the seam that keeps domain knowledge out of the
// engine: the engine knows nothing about interfaces, commands, or
// dependency graphs, and the decider knows nothing about CNF.
type Decider interface {
	Next() (lit Lit, ok bool)
}

// DeciderFunc adapts a plain function to Decider.
type DeciderFunc func() (Lit, bool)

func (f DeciderFunc) Next() (Lit, bool) { return f() }

// Assignment is a satisfying truth assignment. Value reports the
// truth value most recently found for m; it is only meaningful after
// a successful RunSolver call and before any further mutation of the
// Engine.
type Assignment struct {
	e *Engine
}

// Value reports whether m is true in this assignment.
func (a Assignment) Value(m Lit) bool {
	return a.e.g.Value(m)
}

// compile freezes all variables and clauses added so far into CNF.
// Mirrors resolver/solver/dict.go's AddConstraints, called exactly
// once, right before the first solve.
func (e *Engine) compile() {
	if e.compiled {
		return
	}
	e.compiled = true
	e.c.ToCnf(e.g)
}

// RunSolver drives the search for a satisfying assignment, consulting
// decider at every decision point. It returns Incomplete if ctx is
// already done, NotSatisfiable if the problem has no solution, or a
// satisfying Assignment otherwise.
func (e *Engine) RunSolver(ctx context.Context, decider Decider) (*Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, Incomplete
	}
	if len(e.impossible) > 0 {
		return nil, NotSatisfiable{{Reason: e.impossible[0]}}
	}

	e.compile()

	for _, nc := range e.named {
		e.g.Assume(nc.lit)
	}
	outcome, buf := e.g.Test(e.buf)
	e.buf = buf
	e.pushTrail(buf)

	if outcome != satisfiable && outcome != unsatisfiable {
		outcome = e.search(decider)
	}

	switch outcome {
	case satisfiable:
		return &Assignment{e: e}, nil
	case unsatisfiable:
		return nil, e.conflicts()
	default:
		return nil, Incomplete
	}
}

// search implements the recursive assume/test/untest loop shared with
// resolver/solver/solve.go's searcher.search: ask the decider for the
// next literal, assume it, test under unit propagation, and recurse;
// on conflict, undo the assumption and ask the decider again (its own
// next call will observe the newly-learned unit clauses through
// GetSelected/GetBestUndecided and steer around the failure).
func (e *Engine) search(decider Decider) int {
	lit, ok := decider.Next()
	if !ok {
		return e.g.Solve()
	}

	e.g.Assume(lit)
	outcome, buf := e.g.Test(e.buf)
	e.buf = buf
	e.pushTrail(buf)

	if outcome != satisfiable && outcome != unsatisfiable {
		outcome = e.search(decider)
	}

	switch outcome {
	case satisfiable:
		e.g.Untest()
		e.popTrail()
		return satisfiable
	case unsatisfiable:
		e.popTrail()
		if e.g.Untest() == unsatisfiable {
			return unsatisfiable
		}
		return e.search(decider)
	default:
		panic("sat: search returned an unexpected outcome")
	}
}

// GetSelected returns the literal in h currently assigned true, if
// any.
func (e *Engine) GetSelected(h *ClauseHandle) (Lit, bool) {
	for _, m := range h.Lits() {
		if e.assignedTrue[m] {
			return m, true
		}
	}
	var zero Lit
	return zero, false
}

// GetBestUndecided returns the first literal in h, in insertion
// order, that is neither forced true nor forced false under the
// engine's current trial scope.
func (e *Engine) GetBestUndecided(h *ClauseHandle) (Lit, bool) {
	for _, m := range h.Lits() {
		if e.assignedTrue[m] || e.assignedTrue[m.Not()] {
			continue
		}
		return m, true
	}
	var zero Lit
	return zero, false
}

type trailFrame struct {
	added []Lit
}

func (e *Engine) pushTrail(out []Lit) {
	var added []Lit
	for _, m := range out {
		if !e.assignedTrue[m] {
			e.assignedTrue[m] = true
			added = append(added, m)
		}
	}
	e.trailStack = append(e.trailStack, trailFrame{added: added})
}

func (e *Engine) popTrail() {
	n := len(e.trailStack) - 1
	frame := e.trailStack[n]
	for _, m := range frame.added {
		delete(e.assignedTrue, m)
	}
	e.trailStack = e.trailStack[:n]
}

// conflicts translates gini's failed-assumption trace into the
// caller's own clause reasons, mirroring
// resolver/solver/dict.go: Conflicts.
func (e *Engine) conflicts() NotSatisfiable {
	whys := e.g.Why(nil)
	reasons := make(map[Lit]string, len(e.named))
	for _, nc := range e.named {
		reasons[nc.lit] = nc.reason
	}
	out := make(NotSatisfiable, 0, len(whys))
	for _, m := range whys {
		if reason, ok := reasons[m]; ok {
			out = append(out, AppliedConstraint{Lit: m, Reason: reason})
		}
	}
	return out
}
