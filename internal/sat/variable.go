// Package sat is a boolean satisfiability engine: labelled variables,
// at-most-one / at-least-one / implication clauses, a
// decision-assignment search driven by a caller-supplied heuristic,
// and enough bookkeeping to explain why a literal ended up false. It
// is built around
// github.com/go-air/gini, wrapped the way
// resolver/solver/{dict,lit_mapping,solve}.go wrap it: a logic.C
// circuit compiles clauses to CNF once, gini.Gini's incremental
// Assume/Test/Untest trial mechanism drives search, and g.Why/
// g.Reasons answer "why" queries after an unsatisfiable result.
package sat

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// Lit is a SAT literal. The zero value is not a valid literal; use
// the value returned by Engine.AddVariable or Engine.Neg.
type Lit = z.Lit

// Engine owns one SAT problem: its variables, clauses, and the
// incremental solver state built while searching for a satisfying
// assignment.
type Engine struct {
	c *logic.C

	payload  map[Lit]any
	order    []Lit
	compiled bool

	named       []namedClause
	impossible  []string

	g            *gini.Gini
	trailStack   []trailFrame
	assignedTrue map[Lit]bool
	buf          []Lit
}

// namedClause records a driving literal for an AtMostOne, AtLeastOne or
// Implies clause together with the diagnostic reason supplied by the caller,
// mirroring how resolver/solver/dict.go keeps an
// AppliedConstraint per compiled clause literal so that g.Why can be
// translated back into something human-readable.
type namedClause struct {
	lit    Lit
	reason string
}

// NewEngine returns an empty Engine ready to accept variables and
// clauses.
func NewEngine() *Engine {
	return &Engine{
		c:            logic.NewC(),
		payload:      make(map[Lit]any),
		assignedTrue: make(map[Lit]bool),
		g:            gini.New(),
	}
}

// AddVariable creates a new SAT variable carrying the given payload
// (one of the ImplElem/CommandElem/MachineGroup/Interface labels from
// the caller's perspective; this package does not interpret it) and
// returns its positive literal.
func (e *Engine) AddVariable(payload any) Lit {
	m := e.c.Lit()
	e.payload[m] = payload
	e.order = append(e.order, m)
	return m
}

// GetUserData returns the payload attached to m's variable via
// AddVariable. It looks up the positive form of m, so either polarity
// of a literal yields the same payload.
func (e *Engine) GetUserData(m Lit) (any, bool) {
	p, ok := e.payload[m.Var().Pos()]
	return p, ok
}

// Neg returns the negation of m.
func (e *Engine) Neg(m Lit) Lit {
	return m.Not()
}
