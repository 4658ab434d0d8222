package sat

// Reason is a node in the tree returned by ExplainReason: m is forced
// false, and Because lists the (recursively explained) literals whose
// being true is what forces it, via a single clause each. This walks
// gini's implication graph (g.Reasons), which is only meaningful
// after a diagnostic-mode solve where every variable is decided one
// way or another.
type Reason struct {
	Lit     Lit
	Label   string
	Because []*Reason
}

// ExplainReason returns a tree of reasons explaining why m is forced
// false under the engine's current assignment.
func (e *Engine) ExplainReason(m Lit) *Reason {
	return e.explain(m.Not(), make(map[Lit]bool))
}

func (e *Engine) explain(forcedTrue Lit, seen map[Lit]bool) *Reason {
	r := &Reason{Lit: forcedTrue, Label: e.labelOf(forcedTrue)}
	if seen[forcedTrue] {
		return r
	}
	seen[forcedTrue] = true

	for _, ante := range e.g.Reasons(nil, forcedTrue) {
		r.Because = append(r.Because, e.explain(ante, seen))
	}
	return r
}

func (e *Engine) labelOf(m Lit) string {
	if payload, ok := e.GetUserData(m); ok {
		if s, ok := payload.(interface{ String() string }); ok {
			return s.String()
		}
	}
	for _, nc := range e.named {
		if nc.lit == m || nc.lit == m.Not() {
			return nc.reason
		}
	}
	return m.String()
}
