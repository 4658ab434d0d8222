// Package driver wires internal/build, internal/decide, internal/sat,
// and internal/assemble into the two-pass solve a caller actually
// invokes: try a normal solve first, and only fall back to a
// diagnostic (closest-match) solve, which always succeeds because of
// the dummy implementation, if the normal pass comes back
// unsatisfiable.
package driver

import (
	"context"

	"github.com/pkg/errors"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/deploysync/selectcore/internal/assemble"
	"github.com/deploysync/selectcore/internal/build"
	"github.com/deploysync/selectcore/internal/cache"
	"github.com/deploysync/selectcore/internal/decide"
	"github.com/deploysync/selectcore/internal/model"
	"github.com/deploysync/selectcore/internal/sat"
)

// Requirements is the caller-supplied description of what to select:
// an interface, an optional command on it, and the restrictions that
// narrow the candidate set before solving starts.
type Requirements struct {
	Interface         model.Interface
	Command           string
	ExtraRestrictions map[model.Interface][]model.Restriction
	Source            bool
}

// Root turns Requirements into the single root requirement the
// problem builder starts its walk from.
func (r Requirements) Root() build.Requirement {
	if r.Command != "" {
		return build.ReqCommand{Name: r.Command, Iface: r.Interface}
	}
	return build.ReqIface{Iface: r.Interface}
}

// Result is everything a solve produced: the document, the frozen
// caches and assignment needed to answer Selected/Implementations/
// Explain, and the inputs that produced it.
type Result struct {
	Ok           bool
	Documents    *assemble.Selections
	Snapshot     *cache.Snapshot
	Assignment   *sat.Assignment
	Engine       *sat.Engine
	ProviderUsed model.Provider
	Reqs         Requirements
	Root         build.Requirement
}

// Selections returns the produced document.
func (r *Result) Selections() *assemble.Selections { return r.Documents }

// Selected returns the non-dummy implementation chosen for iface, if
// any was reached by the solve.
func (r *Result) Selected(iface model.Interface) (*model.Implementation, bool) {
	entry, ok := r.Snapshot.Interfaces[iface]
	if !ok {
		return nil, false
	}
	for i, v := range entry.Vars {
		if r.Assignment.Value(v) && !entry.Impls[i].IsDummy() {
			return entry.Impls[i], true
		}
	}
	return nil, false
}

// ImplementationStatus is one entry of Implementations: for an
// interface that ended up with a selected candidate (the dummy
// implementation included), that candidate's literal and
// implementation. Interfaces the solve reached without selecting any
// candidate get no entry, and the order of entries is not defined.
type ImplementationStatus struct {
	Interface model.Interface
	Lit       sat.Lit
	Impl      *model.Implementation
}

func (r *Result) Implementations() []ImplementationStatus {
	var out []ImplementationStatus
	for iface, entry := range r.Snapshot.Interfaces {
		for i, v := range entry.Vars {
			if r.Assignment.Value(v) {
				out = append(out, ImplementationStatus{Interface: iface, Lit: v, Impl: entry.Impls[i]})
				break
			}
		}
	}
	return out
}

// Provider returns the implementation provider the solve consulted.
func (r *Result) Provider() model.Provider { return r.ProviderUsed }

// Requirements returns the requirements the solve was given.
func (r *Result) Requirements() Requirements { return r.Reqs }

// Explain returns the reason tree for why m is forced false, only
// meaningful against a diagnostic-mode result.
func (r *Result) Explain(m sat.Lit) *sat.Reason {
	return r.Engine.ExplainReason(m)
}

// Solve runs solve_for: a normal pass, then, only if that comes back
// unsatisfiable, a diagnostic pass that is guaranteed to succeed. Ok
// on the returned Result is true only for a first-pass success.
func Solve(ctx context.Context, provider model.Provider, reqs Requirements) (*Result, error) {
	root := reqs.Root()

	result, err := attempt(ctx, provider, reqs, root, false)
	if err == nil {
		result.Ok = true
		return result, nil
	}
	if _, unsat := err.(sat.NotSatisfiable); !unsat {
		return nil, errors.Wrapf(err, "solving for interface %s", reqs.Interface)
	}

	result, err = attempt(ctx, provider, reqs, root, true)
	if err != nil {
		return nil, errors.Wrapf(err, "diagnostic solve for interface %s must always succeed", reqs.Interface)
	}
	result.Ok = false
	return result, nil
}

func attempt(ctx context.Context, provider model.Provider, reqs Requirements, root build.Requirement, diagnostic bool) (*Result, error) {
	engine := sat.NewEngine()
	ifaces := cache.NewInterfaces(nil)
	commands := cache.NewCommands()

	var opts []build.Option
	if diagnostic {
		opts = append(opts, build.Diagnostic())
	}
	bld := build.New(engine, scopedProvider(provider, reqs.ExtraRestrictions), ifaces, commands, opts...)
	if err := bld.Build(root); err != nil {
		return nil, errors.Wrapf(err, "building requirement graph for %s", reqs.Interface)
	}

	h := decide.New(engine, ifaces, commands, root)
	asn, err := engine.RunSolver(ctx, h)
	if err != nil {
		return nil, err
	}

	snap := cache.Freeze(ifaces, commands)
	doc, err := assemble.Assemble(snap, asn, root)
	if err != nil {
		return nil, errors.Wrap(err, "assembling selections document")
	}

	return &Result{
		Documents:    doc,
		Snapshot:     snap,
		Assignment:   asn,
		Engine:       engine,
		ProviderUsed: provider,
		Reqs:         reqs,
		Root:         root,
	}, nil
}

// SolveAll runs Solve once per requirement and aggregates every
// failure into a single error, the way independent per-subscription
// solver failures are aggregated rather than letting the first one
// abort the batch.
func SolveAll(ctx context.Context, provider model.Provider, reqs []Requirements) ([]*Result, error) {
	var results []*Result
	var errs []error
	for _, r := range reqs {
		res, err := Solve(ctx, provider, r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	if len(errs) > 0 {
		return results, utilerrors.NewAggregate(errs)
	}
	return results, nil
}

// scopedProvider narrows down candidates with extra version
// restrictions the requirements carried in, without the underlying
// provider needing to know about them.
type scoped struct {
	model.Provider
	extra map[model.Interface][]model.Restriction
}

func scopedProvider(p model.Provider, extra map[model.Interface][]model.Restriction) model.Provider {
	if len(extra) == 0 {
		return p
	}
	return &scoped{Provider: p, extra: extra}
}

func (s *scoped) GetImplementations(iface model.Interface) (*model.Interface, []*model.Implementation) {
	replacement, impls := s.Provider.GetImplementations(iface)
	restrictions, ok := s.extra[iface]
	if !ok {
		return replacement, impls
	}

	kept := make([]*model.Implementation, 0, len(impls))
	for _, impl := range impls {
		passes := true
		for _, r := range restrictions {
			if !r.MeetsRestriction(impl) {
				passes = false
				break
			}
		}
		if passes {
			kept = append(kept, impl)
		}
	}
	return replacement, kept
}
