// Package decide implements the branch heuristic the SAT engine
// consults at every decision point: a depth-first walk of the
// "current" (partially decided) solution that prefers the earliest
// unresolved interface's highest-ranked undecided candidate. The
// engine itself knows nothing about requirement graphs, so this
// package walks one explicitly via the candidate caches rather than
// carrying an internal variable deque.
package decide

import (
	"github.com/deploysync/selectcore/internal/build"
	"github.com/deploysync/selectcore/internal/cache"
	"github.com/deploysync/selectcore/internal/model"
	"github.com/deploysync/selectcore/internal/sat"
)

// Heuristic adapts the requirement-graph walk to sat.Decider.
type Heuristic struct {
	engine   *sat.Engine
	ifaces   *cache.Interfaces
	commands *cache.Commands
	root     build.Requirement
}

// New returns a Heuristic that starts its search from root each time
// Next is called, using ifaces and commands to resolve a requirement
// to its candidate set.
func New(engine *sat.Engine, ifaces *cache.Interfaces, commands *cache.Commands, root build.Requirement) *Heuristic {
	return &Heuristic{engine: engine, ifaces: ifaces, commands: commands, root: root}
}

var _ sat.Decider = (*Heuristic)(nil)

// Next implements sat.Decider by re-running find_undecided from the
// root on every call: cheap relative to a single SAT decision, and it
// means Next never needs to remember where the previous call left off
// — the current assignment is the only state that matters.
func (h *Heuristic) Next() (sat.Lit, bool) {
	seen := make(map[build.Requirement]bool)
	return h.findUndecided(h.root, seen)
}

func (h *Heuristic) findUndecided(req build.Requirement, seen map[build.Requirement]bool) (sat.Lit, bool) {
	if seen[req] {
		return 0, false
	}
	seen[req] = true

	switch r := req.(type) {
	case build.ReqIface:
		return h.fromInterface(r, seen)
	case build.ReqCommand:
		return h.fromCommand(r, seen)
	default:
		return 0, false
	}
}

func (h *Heuristic) fromInterface(r build.ReqIface, seen map[build.Requirement]bool) (sat.Lit, bool) {
	e, ok := h.ifaces.Lookup(r.Iface)
	if !ok || e.Handle.Empty() {
		return 0, false
	}

	if selected, ok := h.engine.GetSelected(e.Handle); ok {
		idx := litIndex(e.Vars, selected)
		if idx < 0 {
			return 0, false
		}
		return h.walkDependencies(e.Impls[idx].Dependencies, seen)
	}

	if lit, ok := h.engine.GetBestUndecided(e.Handle); ok {
		return lit, true
	}
	return 0, false
}

func (h *Heuristic) fromCommand(r build.ReqCommand, seen map[build.Requirement]bool) (sat.Lit, bool) {
	e, ok := h.commands.Lookup(build.CommandKey(r.Name, r.Iface))
	if !ok || e.Handle.Empty() {
		return 0, false
	}

	if selected, ok := h.engine.GetSelected(e.Handle); ok {
		idx := litIndex(e.Vars, selected)
		if idx < 0 {
			return 0, false
		}
		if lit, ok := h.walkDependencies(e.Cmds[idx].Dependencies, seen); ok {
			return lit, true
		}
		// A selected command still obliges its owning implementation
		// to be decided, exactly as the pseudocode's trailing
		// "req is ReqCommand(_, iface): recurse into ReqIface(iface)".
		return h.findUndecided(build.ReqIface{Iface: r.Iface}, seen)
	}

	if lit, ok := h.engine.GetBestUndecided(e.Handle); ok {
		return lit, true
	}
	return 0, false
}

// walkDependencies recurses into the target interface (and any
// required commands) of every dependency that actually obliges a
// choice: a restricts dependency is a version-only filter with nothing
// left to decide, and a dependency whose target interface was never
// populated in the cache was one the problem builder skipped outright
// (provider.IsDepNeeded said no), so there is nothing to walk into
// either way.
func (h *Heuristic) walkDependencies(deps []*model.Dependency, seen map[build.Requirement]bool) (sat.Lit, bool) {
	for _, dep := range deps {
		if dep.Importance == model.Restricts {
			continue
		}
		if _, ok := h.ifaces.Lookup(dep.Target); !ok {
			continue
		}

		if lit, ok := h.findUndecided(build.ReqIface{Iface: dep.Target}, seen); ok {
			return lit, true
		}
		for _, cmdName := range dep.RequiredCommands {
			if lit, ok := h.findUndecided(build.ReqCommand{Name: cmdName, Iface: dep.Target}, seen); ok {
				return lit, true
			}
		}
	}
	return 0, false
}

func litIndex(vars []sat.Lit, target sat.Lit) int {
	for i, v := range vars {
		if v == target {
			return i
		}
	}
	return -1
}
