package serialize

import (
	"reflect"
	"testing"

	"github.com/adalundhe/qgraph/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sq struct{ N int }

func newSerializer() *Serializer {
	s := New()
	s.AddValueSerializer(reflect.TypeOf(sq{}), JSONQueryCodec[sq](), JSONValueCodec[int]())
	return s
}

func TestDumpLoadRoundTrip(t *testing.T) {
	g := graph.New()
	g.Put(sq{1}, graph.Success(1), nil)
	g.Put(sq{2}, graph.Success(2), []graph.Query{sq{1}}, graph.StronglyInvalid)
	g.Put(sq{3}, graph.Success(3), []graph.Query{sq{2}})

	s := newSerializer()
	dump, err := s.Dump(g)
	require.NoError(t, err)
	require.Len(t, dump.Entries, 3)

	loaded, err := s.Load(dump)
	require.NoError(t, err)

	for _, q := range []graph.Query{sq{1}, sq{2}, sq{3}} {
		origVal, origOk := g.Get(q)
		loadedVal, loadedOk := loaded.Get(q)
		assert.Equal(t, origOk, loadedOk)
		assert.Equal(t, origVal.Value, loadedVal.Value)
		assert.ElementsMatch(t, g.Deps(q), loaded.Deps(q))
	}
}

func TestDumpSkipsFailuresAndUnserializableDeps(t *testing.T) {
	g := graph.New()
	g.Put(sq{1}, graph.Failure(assertErr{}), nil)
	g.Put(sq{2}, graph.Success(2), []graph.Query{sq{1}})

	s := newSerializer()
	dump, err := s.Dump(g)
	require.NoError(t, err)

	// sq{1} is a failure so it is never emitted; sq{2} depends on it but
	// sq{1}'s class IS registered (query codec present), so sq{2} is still
	// emitted with sq{1} as a transient dependency.
	require.Len(t, dump.Entries, 1)
	assert.Len(t, dump.Entries[0].TransientDeps, 1)
	assert.Equal(t, graph.StronglyInvalid, dump.Entries[0].Validity)
}

func TestDumpDetectsCycle(t *testing.T) {
	g := graph.New()
	g.Put(sq{1}, graph.Success(1), []graph.Query{sq{2}})
	g.Put(sq{2}, graph.Success(2), []graph.Query{sq{1}})

	s := newSerializer()
	_, err := s.Dump(g)
	assert.ErrorIs(t, err, ErrCyclicDependency)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
