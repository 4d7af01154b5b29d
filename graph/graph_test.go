package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tq struct{ Name string }

func TestReverseEdgeConsistency(t *testing.T) {
	g := New()

	g.Put(tq{"a"}, Success(1), nil)
	g.Put(tq{"b"}, Success(2), []Query{tq{"a"}})
	g.Put(tq{"c"}, Success(3), []Query{tq{"a"}, tq{"b"}})

	for _, dependent := range []Query{tq{"b"}, tq{"c"}} {
		for _, dep := range g.Deps(dependent) {
			assert.Contains(t, g.Rev(dep), dependent)
		}
	}
	assert.ElementsMatch(t, g.Rev(tq{"a"}), []Query{tq{"b"}, tq{"c"}})
}

func TestRemove(t *testing.T) {
	g := New()
	g.Put(tq{"a"}, Success(1), nil)
	g.Put(tq{"b"}, Success(2), []Query{tq{"a"}})

	g.Remove(tq{"a"})

	_, ok := g.Get(tq{"a"})
	assert.False(t, ok)
	assert.Equal(t, StronglyInvalid, g.Validity(tq{"a"}))
	assert.Equal(t, StronglyInvalid, g.Validity(tq{"b"}))
}

func TestPutUnchangedDoesNotRegressDependents(t *testing.T) {
	g := New()
	g.Put(tq{"a"}, Success(1), nil)
	g.Put(tq{"b"}, Success(2), []Query{tq{"a"}})
	require.True(t, g.ValidateWeak(tq{"b"}) || g.Validity(tq{"b"}) == Valid)

	g.Put(tq{"a"}, Success(1), nil)

	assert.Equal(t, Valid, g.Validity(tq{"b"}))
}

func TestPutChangedPropagates(t *testing.T) {
	g := New()
	g.Put(tq{"a"}, Success(1), nil)
	g.Put(tq{"b"}, Success(2), []Query{tq{"a"}})
	g.Put(tq{"c"}, Success(3), []Query{tq{"b"}})

	g.Put(tq{"a"}, Success(99), nil)

	assert.Equal(t, StronglyInvalid, g.Validity(tq{"b"}))
	assert.Equal(t, WeaklyInvalid, g.Validity(tq{"c"}))
}

func TestInvalidateNeverDowngradesStrong(t *testing.T) {
	g := New()
	g.Put(tq{"a"}, Success(1), nil)
	g.Put(tq{"b"}, Success(2), []Query{tq{"a"}})
	g.Put(tq{"c"}, Success(3), []Query{tq{"b"}})

	g.Put(tq{"a"}, Success(99), nil) // b -> STRONG, c -> WEAK
	g.Invalidate(tq{"a"})            // must not demote b from STRONG to WEAK

	assert.Equal(t, StronglyInvalid, g.Validity(tq{"b"}))
}

func TestValidateWeakPromotesOnlyWhenDepsValid(t *testing.T) {
	g := New()
	g.Put(tq{"a"}, Success(1), nil)
	g.Put(tq{"b"}, Success(2), []Query{tq{"a"}})

	g.Invalidate(tq{"a"})
	assert.Equal(t, WeaklyInvalid, g.Validity(tq{"b"}))
	assert.False(t, g.ValidateWeak(tq{"b"}))

	g.Put(tq{"a"}, Success(1), nil) // re-validate a
	assert.True(t, g.ValidateWeak(tq{"b"}))
	assert.Equal(t, Valid, g.Validity(tq{"b"}))
}

func TestCloneIsIndependent(t *testing.T) {
	g := New()
	g.Put(tq{"a"}, Success(1), nil)

	cp := g.Clone()
	cp.Put(tq{"a"}, Success(2), nil)

	v, _ := g.Get(tq{"a"})
	assert.Equal(t, 1, v.Value)
}

func TestTransitiveClosures(t *testing.T) {
	g := New()
	g.Put(tq{"a"}, Success(1), nil)
	g.Put(tq{"b"}, Success(2), []Query{tq{"a"}})
	g.Put(tq{"c"}, Success(3), []Query{tq{"b"}})

	assert.ElementsMatch(t, g.TransitiveDeps(tq{"c"}), []Query{tq{"a"}, tq{"b"}})
	assert.ElementsMatch(t, g.TransitiveDependents(tq{"a"}), []Query{tq{"b"}, tq{"c"}})
}

func TestTransitiveClosureToleratesCycles(t *testing.T) {
	g := New()
	g.Put(tq{"a"}, Success(1), []Query{tq{"b"}})
	g.Put(tq{"b"}, Success(2), []Query{tq{"a"}})

	assert.ElementsMatch(t, g.TransitiveDeps(tq{"a"}), []Query{tq{"a"}, tq{"b"}})
}

func TestMissingNodeReadsAsStronglyInvalid(t *testing.T) {
	g := New()
	assert.Equal(t, StronglyInvalid, g.Validity(tq{"ghost"}))
	_, ok := g.Get(tq{"ghost"})
	assert.False(t, ok)
	assert.Empty(t, g.Deps(tq{"ghost"}))
	assert.Empty(t, g.Rev(tq{"ghost"}))
}
