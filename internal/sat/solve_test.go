package sat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearDecider offers lits in order, skipping any already decided;
// it is the simplest possible Decider and is enough to exercise the
// engine directly without pulling in the cache/build/decide packages.
func linearDecider(e *Engine, h *ClauseHandle) Decider {
	return DeciderFunc(func() (Lit, bool) {
		if _, ok := e.GetSelected(h); ok {
			return 0, false
		}
		return e.GetBestUndecided(h)
	})
}

func TestAtMostOneSelectsFirstAvailable(t *testing.T) {
	e := NewEngine()
	a := e.AddVariable("a")
	b := e.AddVariable("b")
	h := e.AtMostOne([]Lit{a, b})
	e.AtLeastOne([]Lit{a, b}, "need one of a, b")

	asn, err := e.RunSolver(context.Background(), linearDecider(e, h))
	require.NoError(t, err)
	assert.True(t, asn.Value(a))
	assert.False(t, asn.Value(b))
}

func TestAtMostOneForbidsBoth(t *testing.T) {
	e := NewEngine()
	a := e.AddVariable("a")
	b := e.AddVariable("b")
	h := e.AtMostOne([]Lit{a, b})
	// Force both true: unsatisfiable, since AtMostOne forbids it.
	e.AtLeastOne([]Lit{a}, "need a")
	e.AtLeastOne([]Lit{b}, "need b")

	_, err := e.RunSolver(context.Background(), linearDecider(e, h))
	require.Error(t, err)
	var notSat NotSatisfiable
	require.ErrorAs(t, err, &notSat)
}

func TestImpliesForcesDependency(t *testing.T) {
	e := NewEngine()
	a := e.AddVariable("a")
	b := e.AddVariable("b")
	e.AtLeastOne([]Lit{a}, "need a")
	e.Implies(a, []Lit{b}, "a requires b")
	e.AtLeastOne([]Lit{e.Neg(b)}, "forbid b")

	h := e.AtMostOne([]Lit{a, b})
	_, err := e.RunSolver(context.Background(), linearDecider(e, h))
	require.Error(t, err, "a implies b, but b is forbidden: unsat")
}

func TestEmptyAtLeastOneIsImmediatelyUnsatisfiable(t *testing.T) {
	e := NewEngine()
	e.AtLeastOne(nil, "nothing can satisfy this")
	_, err := e.RunSolver(context.Background(), DeciderFunc(func() (Lit, bool) {
		t.Fatal("decider should not be consulted when already impossible")
		return 0, false
	}))
	require.Error(t, err)
}

func TestContextCancelledBeforeStart(t *testing.T) {
	e := NewEngine()
	e.AddVariable("a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.RunSolver(ctx, DeciderFunc(func() (Lit, bool) { return 0, false }))
	assert.ErrorIs(t, err, Incomplete)
}

func TestGetUserData(t *testing.T) {
	e := NewEngine()
	a := e.AddVariable("payload-a")
	got, ok := e.GetUserData(a)
	require.True(t, ok)
	assert.Equal(t, "payload-a", got)

	_, ok = e.GetUserData(e.Neg(a))
	require.True(t, ok, "payload is keyed by the positive literal regardless of polarity queried")
}
