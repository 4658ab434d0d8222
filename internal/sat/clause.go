package sat

import (
	"fmt"
	"strings"
)

// ClauseHandle identifies an at-most-one clause previously registered
// with AtMostOne. It remembers the literals in the order they were
// supplied so that GetSelected/GetBestUndecided can honour insertion
// order, which is what makes the branch heuristic prefer the
// implementation provider's own ordering.
type ClauseHandle struct {
	lits   []Lit
	reason string
}

// Empty reports whether the clause handle governs zero literals (no
// governing at-most-one clause exists in that case).
func (h *ClauseHandle) Empty() bool {
	return h == nil || len(h.lits) == 0
}

// Lits returns the literals governed by this clause handle, in
// insertion order. Callers must not mutate the returned slice.
func (h *ClauseHandle) Lits() []Lit {
	if h == nil {
		return nil
	}
	return h.lits
}

// AtMostOne asserts that at most one of lits is true in any
// assignment and returns a handle for later queries against the
// clause. If lits is empty, a nil-valued (Empty) handle is returned
// and no constraint is added.
//
// The clause is realized as a cardinality sorting network capped at
// 1, exactly the construction resolver/solver/dict.go's
// CardinalityConstrainer uses for its own optimization pass; here it
// is used directly as the clause shape itself rather than as a
// post-hoc optimizer.
func (e *Engine) AtMostOne(lits []Lit) *ClauseHandle {
	if len(lits) == 0 {
		return nil
	}
	cp := make([]Lit, len(lits))
	copy(cp, lits)
	h := &ClauseHandle{lits: cp}
	if len(lits) > 1 {
		m := e.c.CardSort(cp).Leq(1)
		h.reason = fmt.Sprintf("at most one of %s", joinLits(cp))
		e.named = append(e.named, namedClause{lit: m, reason: h.reason})
	}
	return h
}

// AtLeastOne asserts the disjunction of lits, attaching reason for
// use by ExplainReason/NotSatisfiable if this clause turns out to be
// why a problem is unsatisfiable.
func (e *Engine) AtLeastOne(lits []Lit, reason string) {
	if len(lits) == 0 {
		// An empty disjunction can never be satisfied. Record it
		// directly rather than asking the circuit to compile a
		// vacuous clause, so RunSolver can report it as the sole
		// reason for unsatisfiability without a wasted solve.
		e.impossible = append(e.impossible, reason)
		return
	}
	m := e.c.Ors(lits...)
	e.named = append(e.named, namedClause{lit: m, reason: reason})
}

// Implies asserts a -> (b1 v ... v bn).
func (e *Engine) Implies(a Lit, bs []Lit, reason string) {
	lits := make([]Lit, 0, len(bs)+1)
	lits = append(lits, a.Not())
	lits = append(lits, bs...)
	m := e.c.Ors(lits...)
	e.named = append(e.named, namedClause{lit: m, reason: reason})
}

func joinLits(lits []Lit) string {
	s := make([]string, len(lits))
	for i, m := range lits {
		s[i] = m.String()
	}
	return strings.Join(s, ", ")
}
