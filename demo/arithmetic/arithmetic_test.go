package arithmetic

import (
	"context"
	"testing"

	"github.com/adalundhe/qgraph/engine"
	"github.com/adalundhe/qgraph/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumCachesAndInvalidates(t *testing.T) {
	e, err := engine.NewBuilder().Register(Class(), NewHandler()).Build()
	require.NoError(t, err)

	v, err := engine.Evaluate[int](context.Background(), e, Sum{N: 4})
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	deps := e.Graph().Deps(Sum{N: 4})
	assert.Contains(t, deps, graph.Query(Sum{N: 3}))

	e.Graph().Invalidate(Sum{N: 1})
	v, err = engine.Evaluate[int](context.Background(), e, Sum{N: 4})
	require.NoError(t, err)
	assert.Equal(t, 10, v)
}
