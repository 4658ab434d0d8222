package build

import (
	"context"
	"testing"

	"github.com/blang/semver/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploysync/selectcore/internal/cache"
	"github.com/deploysync/selectcore/internal/model"
	"github.com/deploysync/selectcore/internal/sat"
	"github.com/deploysync/selectcore/providertest"
)

func version(s string) *semver.Version {
	v := semver.MustParse(s)
	return &v
}

// solve is a minimal end-to-end harness: build the problem, then drive
// the engine with the simplest possible decider (first undecided
// literal of the root's own candidate set), enough to exercise the
// builder without pulling in the real branch heuristic package.
func solve(t *testing.T, provider model.Provider, root Requirement) (*sat.Assignment, *Builder) {
	t.Helper()
	engine := sat.NewEngine()
	ifaces := cache.NewInterfaces(nil)
	commands := cache.NewCommands()
	b := New(engine, provider, ifaces, commands)

	require.NoError(t, b.Build(root))

	var rootHandle *sat.ClauseHandle
	switch r := root.(type) {
	case ReqIface:
		e, _ := ifaces.Lookup(r.Iface)
		rootHandle = e.Handle
	case ReqCommand:
		e, _ := commands.Lookup(CommandKey(r.Name, r.Iface))
		rootHandle = e.Handle
	}

	decider := sat.DeciderFunc(func() (sat.Lit, bool) {
		if _, ok := engine.GetSelected(rootHandle); ok {
			return 0, false
		}
		return engine.GetBestUndecided(rootHandle)
	})

	asn, err := engine.RunSolver(context.Background(), decider)
	require.NoError(t, err)
	return asn, b
}

func TestTrivialSolve(t *testing.T) {
	p := providertest.NewMapProvider()
	a1 := &model.Implementation{ID: "a1", Version: version("1.0.0"), Mode: model.Immediate{}}
	p.Add("A", a1)

	asn, b := solve(t, p, ReqIface{Iface: "A"})
	entry, ok := b.ifaces.Lookup("A")
	require.True(t, ok)
	require.Len(t, entry.Vars, 1)
	assert.True(t, asn.Value(entry.Vars[0]))
}

func TestChainOfEssentialDependency(t *testing.T) {
	p := providertest.NewMapProvider()
	b1 := &model.Implementation{ID: "b1", Version: version("1.0.0"), Mode: model.Immediate{}}
	p.Add("B", b1)
	a1 := &model.Implementation{
		ID: "a1", Version: version("1.0.0"), Mode: model.Immediate{},
		Dependencies: []*model.Dependency{{Target: "B", Importance: model.Essential}},
	}
	p.Add("A", a1)

	engine := sat.NewEngine()
	ifaces := cache.NewInterfaces(nil)
	commands := cache.NewCommands()
	bld := New(engine, p, ifaces, commands)
	require.NoError(t, bld.Build(ReqIface{Iface: "A"}))

	aEntry, _ := ifaces.Lookup("A")
	bEntry, _ := ifaces.Lookup("B")
	require.Len(t, aEntry.Vars, 1)
	require.Len(t, bEntry.Vars, 1)

	decider := sat.DeciderFunc(func() (sat.Lit, bool) {
		if _, ok := engine.GetSelected(aEntry.Handle); !ok {
			return engine.GetBestUndecided(aEntry.Handle)
		}
		if _, ok := engine.GetSelected(bEntry.Handle); !ok {
			return engine.GetBestUndecided(bEntry.Handle)
		}
		return 0, false
	})

	asn, err := engine.RunSolver(context.Background(), decider)
	require.NoError(t, err)
	assert.True(t, asn.Value(aEntry.Vars[0]))
	assert.True(t, asn.Value(bEntry.Vars[0]))
}

func TestVersionRestrictionPicksSatisfyingCandidate(t *testing.T) {
	p := providertest.NewMapProvider()
	b1 := &model.Implementation{ID: "b1", Version: version("1.0.0"), Mode: model.Immediate{}}
	b2 := &model.Implementation{ID: "b2", Version: version("2.0.0"), Mode: model.Immediate{}}
	p.Add("B", b1).Add("B", b2)

	min := version("2.0.0")
	a1 := &model.Implementation{
		ID: "a1", Version: version("1.0.0"), Mode: model.Immediate{},
		Dependencies: []*model.Dependency{{
			Target:       "B",
			Importance:   model.Essential,
			Restrictions: []model.Restriction{model.VersionRestriction{Min: min}},
		}},
	}
	p.Add("A", a1)

	engine := sat.NewEngine()
	ifaces := cache.NewInterfaces(nil)
	commands := cache.NewCommands()
	bld := New(engine, p, ifaces, commands)
	require.NoError(t, bld.Build(ReqIface{Iface: "A"}))

	aEntry, _ := ifaces.Lookup("A")
	bEntry, _ := ifaces.Lookup("B")

	decider := sat.DeciderFunc(func() (sat.Lit, bool) {
		if _, ok := engine.GetSelected(aEntry.Handle); !ok {
			return engine.GetBestUndecided(aEntry.Handle)
		}
		if _, ok := engine.GetSelected(bEntry.Handle); !ok {
			return engine.GetBestUndecided(bEntry.Handle)
		}
		return 0, false
	})

	asn, err := engine.RunSolver(context.Background(), decider)
	require.NoError(t, err)

	selected, ok := engine.GetSelected(bEntry.Handle)
	require.True(t, ok)
	label, _ := engine.GetUserData(selected)
	impl := label.(ImplElem).Impl
	assert.Equal(t, "b2", impl.ID)
	assert.True(t, asn.Value(selected))
}

func TestUnsatWithoutDummyThenClosestMatchSucceeds(t *testing.T) {
	p := providertest.NewMapProvider()
	a1 := &model.Implementation{
		ID: "a1", Version: version("1.0.0"), Mode: model.Immediate{},
		Dependencies: []*model.Dependency{{Target: "B", Importance: model.Essential}},
	}
	p.Add("A", a1)
	// B has no implementations at all.

	engine := sat.NewEngine()
	ifaces := cache.NewInterfaces(nil)
	commands := cache.NewCommands()
	bld := New(engine, p, ifaces, commands)
	require.NoError(t, bld.Build(ReqIface{Iface: "A"}))

	aEntry, _ := ifaces.Lookup("A")
	decider := sat.DeciderFunc(func() (sat.Lit, bool) {
		return engine.GetBestUndecided(aEntry.Handle)
	})
	_, err := engine.RunSolver(context.Background(), decider)
	require.Error(t, err, "A's only impl essentially depends on B, which has no candidates")

	diagEngine := sat.NewEngine()
	diagIfaces := cache.NewInterfaces(nil)
	diagCommands := cache.NewCommands()
	diagBld := New(diagEngine, p, diagIfaces, diagCommands, Diagnostic())
	require.NoError(t, diagBld.Build(ReqIface{Iface: "A"}))

	diagAEntry, _ := diagIfaces.Lookup("A")
	diagBEntry, _ := diagIfaces.Lookup("B")
	require.NotNil(t, diagBEntry, "B must materialise in diagnostic mode via the dummy implementation")

	diagDecider := sat.DeciderFunc(func() (sat.Lit, bool) {
		if _, ok := diagEngine.GetSelected(diagAEntry.Handle); !ok {
			return diagEngine.GetBestUndecided(diagAEntry.Handle)
		}
		if _, ok := diagEngine.GetSelected(diagBEntry.Handle); !ok {
			return diagEngine.GetBestUndecided(diagBEntry.Handle)
		}
		return 0, false
	})
	_, err = diagEngine.RunSolver(context.Background(), diagDecider)
	require.NoError(t, err, "diagnostic mode must always succeed: the dummy implementation satisfies everything")
}
