package driver

import (
	"context"
	"testing"

	"github.com/blang/semver/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploysync/selectcore/internal/model"
	"github.com/deploysync/selectcore/providertest"
)

func version(s string) *semver.Version {
	v := semver.MustParse(s)
	return &v
}

func TestSolveTrivial(t *testing.T) {
	p := providertest.NewMapProvider()
	p.Add("A", &model.Implementation{ID: "a1", Version: version("1.0.0"), Mode: model.Immediate{}})

	res, err := Solve(context.Background(), p, Requirements{Interface: "A"})
	require.NoError(t, err)
	assert.True(t, res.Ok)

	impl, ok := res.Selected("A")
	require.True(t, ok)
	assert.Equal(t, "a1", impl.ID)
}

func TestSolveFallsBackToDiagnosticOnUnsat(t *testing.T) {
	p := providertest.NewMapProvider()
	p.Add("A", &model.Implementation{
		ID: "a1", Version: version("1.0.0"), Mode: model.Immediate{},
		Dependencies: []*model.Dependency{{Target: "B", Importance: model.Essential}},
	})
	// B has no candidates: first pass must fail, second pass must succeed via the dummy impl.

	res, err := Solve(context.Background(), p, Requirements{Interface: "A"})
	require.NoError(t, err, "diagnostic mode must always find a solution")
	assert.False(t, res.Ok, "ok must be false when only the diagnostic pass succeeded")

	_, found := res.Selected("B")
	assert.False(t, found, "Selected never returns the dummy implementation")

	var bSelection bool
	for _, sel := range res.Selections().Selections {
		if sel.Interface == "B" {
			bSelection = true
		}
	}
	assert.True(t, bSelection, "the document still records a dummy selection for B")
}

func TestSolveExtraRestrictionNarrowsCandidates(t *testing.T) {
	p := providertest.NewMapProvider()
	p.Add("B", &model.Implementation{ID: "b1", Version: version("1.0.0"), Mode: model.Immediate{}})
	p.Add("B", &model.Implementation{ID: "b2", Version: version("2.0.0"), Mode: model.Immediate{}})

	min := version("2.0.0")
	reqs := Requirements{
		Interface: "B",
		ExtraRestrictions: map[model.Interface][]model.Restriction{
			"B": {model.VersionRestriction{Min: min}},
		},
	}
	res, err := Solve(context.Background(), p, reqs)
	require.NoError(t, err)
	assert.True(t, res.Ok)

	impl, ok := res.Selected("B")
	require.True(t, ok)
	assert.Equal(t, "b2", impl.ID)
}

func TestSolveCommandRoot(t *testing.T) {
	p := providertest.NewMapProvider()
	runCmd := &model.Command{Name: "run", Node: model.XMLFragment{Raw: []byte(`<command name="run"/>`)}}
	p.Add("A", &model.Implementation{
		ID: "a1", Version: version("1.0.0"), Mode: model.Immediate{},
		Commands: map[string]*model.Command{"run": runCmd},
	})

	res, err := Solve(context.Background(), p, Requirements{Interface: "A", Command: "run"})
	require.NoError(t, err)
	assert.Equal(t, "run", res.Selections().Command)
	assert.Equal(t, "A", res.Selections().Interface)
}

func TestSolveAllAggregatesFailures(t *testing.T) {
	p := providertest.NewMapProvider()
	p.Add("A", &model.Implementation{ID: "a1", Version: version("1.0.0"), Mode: model.Immediate{}})
	p.Add("B", &model.Implementation{ID: "b1", Version: version("1.0.0"), Mode: model.Immediate{}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SolveAll(ctx, p, []Requirements{
		{Interface: "A"},
		{Interface: "B"},
	})
	// A cancelled context makes every attempt fail with sat.Incomplete,
	// which is not a NotSatisfiable and so is never retried in
	// diagnostic mode; both failures should surface, aggregated.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestSolveReplacementConflictFallsBackWithOneRealSide(t *testing.T) {
	p := providertest.NewMapProvider()
	p.Add("X", &model.Implementation{
		ID: "x1", Version: version("1.0.0"), Mode: model.Immediate{},
		Dependencies: []*model.Dependency{
			{Target: "A", Importance: model.Essential},
			{Target: "B", Importance: model.Essential},
		},
	})
	p.Add("B", &model.Implementation{
		ID: "b1", Version: version("1.0.0"), Mode: model.Immediate{},
		Dependencies: []*model.Dependency{
			{Target: "Aprime", Importance: model.Essential},
		},
	})
	p.Add("A", &model.Implementation{ID: "a1", Version: version("1.0.0"), Mode: model.Immediate{}})
	p.Add("Aprime", &model.Implementation{ID: "a1prime", Version: version("1.0.0"), Mode: model.Immediate{}})
	p.ReplacedBy("A", "Aprime")

	res, err := Solve(context.Background(), p, Requirements{Interface: "X"})
	require.NoError(t, err, "diagnostic mode must always find a solution")
	assert.False(t, res.Ok, "the replacement conflict makes the normal pass unsatisfiable")

	_, aReal := res.Selected("A")
	_, aPrimeReal := res.Selected("Aprime")
	assert.NotEqual(t, aReal, aPrimeReal, "exactly one side of the replacement pair contributes a real selection")
}

func TestImplementationsListsEveryReachedInterface(t *testing.T) {
	p := providertest.NewMapProvider()
	p.Add("B", &model.Implementation{ID: "b1", Version: version("1.0.0"), Mode: model.Immediate{}})
	p.Add("A", &model.Implementation{
		ID: "a1", Version: version("1.0.0"), Mode: model.Immediate{},
		Dependencies: []*model.Dependency{{Target: "B", Importance: model.Essential}},
	})

	res, err := Solve(context.Background(), p, Requirements{Interface: "A"})
	require.NoError(t, err)
	require.True(t, res.Ok)

	seen := map[model.Interface]string{}
	for _, s := range res.Implementations() {
		seen[s.Interface] = s.Impl.ID
	}
	assert.Equal(t, "a1", seen["A"])
	assert.Equal(t, "b1", seen["B"])
}
