package driver

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/deploysync/selectcore/internal/model"
	"github.com/deploysync/selectcore/providertest"
)

// chainProvider builds a fresh, identically-ordered provider each call,
// standing in for a deterministic feed source queried twice.
func chainProvider() *providertest.MapProvider {
	p := providertest.NewMapProvider()
	p.Add("runtime", &model.Implementation{ID: "runtime1", Version: version("2.0.0"), Mode: model.Immediate{}})
	p.Add("runtime", &model.Implementation{ID: "runtime2", Version: version("1.0.0"), Mode: model.Immediate{}})
	p.Add("app", &model.Implementation{
		ID: "app1", Version: version("1.0.0"), Mode: model.Immediate{},
		Dependencies: []*model.Dependency{{Target: "runtime", Importance: model.Essential}},
	})
	return p
}

// TestSolveIsDeterministicGivenDeterministicProvider exercises the
// determinism invariant: solving the same requirements against two
// independently built, identically-ordered providers produces
// structurally identical selections documents.
func TestSolveIsDeterministicGivenDeterministicProvider(t *testing.T) {
	reqs := Requirements{Interface: "app"}

	res1, err := Solve(context.Background(), chainProvider(), reqs)
	require.NoError(t, err)

	res2, err := Solve(context.Background(), chainProvider(), reqs)
	require.NoError(t, err)

	if diff := cmp.Diff(res1.Selections(), res2.Selections()); diff != "" {
		t.Errorf("two solves of the same deterministic input produced different documents:\n%s", diff)
	}
}
