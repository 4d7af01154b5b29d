package engine

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adalundhe/qgraph/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tquery struct{ N int }

// recursiveChainHandler implements h(n) = n<=0 ? n : evaluate(T(n-1))+n+offset,
// a recursive chain query useful for exercising caching, dedup, and
// invalidation propagation end to end.
type recursiveChainHandler struct {
	calls  atomic.Int64
	offset atomic.Int64
	delay  time.Duration
}

func (h *recursiveChainHandler) Handle(ctx context.Context, q graph.Query, ec Context) (any, error) {
	h.calls.Add(1)
	if h.delay > 0 {
		select {
		case <-time.After(h.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	t := q.(tquery)
	if t.N <= 0 {
		return t.N, nil
	}
	prevAny, err := ec.Evaluate(ctx, tquery{N: t.N - 1})
	if err != nil {
		return nil, err
	}
	return prevAny.(int) + t.N + int(h.offset.Load()), nil
}

type failingHandler struct {
	counter atomic.Int64
}

func (h *failingHandler) Handle(ctx context.Context, q graph.Query, ec Context) (any, error) {
	t := q.(tquery)
	if t.N <= 0 {
		n := h.counter.Add(1) - 1
		return nil, fmt.Errorf("Err(%d)", n)
	}
	prevAny, err := ec.Evaluate(ctx, tquery{N: t.N - 1})
	if err != nil {
		return nil, err
	}
	return prevAny.(int) + t.N, nil
}

func buildEngine(t *testing.T, h Handler) *Engine {
	t.Helper()
	e, err := NewBuilder().Register(reflect.TypeOf(tquery{}), h).Build()
	require.NoError(t, err)
	return e
}

func TestCacheHit(t *testing.T) {
	h := &recursiveChainHandler{}
	e := buildEngine(t, h)

	v, err := e.Evaluate(context.Background(), tquery{N: 5})
	require.NoError(t, err)
	assert.Equal(t, 15, v)
	assert.Equal(t, int64(6), h.calls.Load())

	v, err = e.Evaluate(context.Background(), tquery{N: 5})
	require.NoError(t, err)
	assert.Equal(t, 15, v)
	assert.Equal(t, int64(6), h.calls.Load())
}

func TestConcurrentDedup(t *testing.T) {
	h := &recursiveChainHandler{delay: 500 * time.Millisecond}
	e := buildEngine(t, h)

	var wg sync.WaitGroup
	results := make([]any, 3)
	start := time.Now()

	launch := func(i int, after time.Duration) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(after)
			v, err := e.Evaluate(context.Background(), tquery{N: 0})
			require.NoError(t, err)
			results[i] = v
		}()
	}

	launch(0, 0)
	launch(1, 0)
	launch(2, 300*time.Millisecond)
	wg.Wait()

	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 400*time.Millisecond)
	assert.LessOrEqual(t, elapsed, 800*time.Millisecond)
	for _, r := range results {
		assert.Equal(t, 0, r)
	}
	assert.Equal(t, int64(1), h.calls.Load())
}

func TestChangedInvalidation(t *testing.T) {
	h := &recursiveChainHandler{}
	e := buildEngine(t, h)

	v, err := e.Evaluate(context.Background(), tquery{N: 5})
	require.NoError(t, err)
	assert.Equal(t, 15, v)
	assert.Equal(t, int64(6), h.calls.Load())

	h.offset.Store(1)
	e.Graph().Invalidate(tquery{N: 5})

	v, err = e.Evaluate(context.Background(), tquery{N: 5})
	require.NoError(t, err)
	assert.Equal(t, 16, v)
	assert.Equal(t, int64(7), h.calls.Load())

	v, err = e.Evaluate(context.Background(), tquery{N: 5})
	require.NoError(t, err)
	assert.Equal(t, 16, v)
	assert.Equal(t, int64(7), h.calls.Load())
}

func TestUnchangedInvalidation(t *testing.T) {
	h := &recursiveChainHandler{}
	e := buildEngine(t, h)

	_, err := e.Evaluate(context.Background(), tquery{N: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(6), h.calls.Load())

	e.Graph().Invalidate(tquery{N: 5})

	v, err := e.Evaluate(context.Background(), tquery{N: 5})
	require.NoError(t, err)
	assert.Equal(t, 15, v)
	assert.Equal(t, int64(7), h.calls.Load())
}

func TestFailureMemoisation(t *testing.T) {
	h := &failingHandler{}
	e := buildEngine(t, h)

	_, err := e.Evaluate(context.Background(), tquery{N: 0})
	require.EqualError(t, err, "Err(0)")

	_, err = e.Evaluate(context.Background(), tquery{N: 0})
	require.EqualError(t, err, "Err(0)")

	e.Graph().Invalidate(tquery{N: 0})

	_, err = e.Evaluate(context.Background(), tquery{N: 0})
	require.EqualError(t, err, "Err(1)")
}

func TestQueryNotHandled(t *testing.T) {
	e, err := NewBuilder().Build()
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), tquery{N: 1})
	require.Error(t, err)
	var notHandled QueryNotHandled
	assert.ErrorAs(t, err, &notHandled)
}

func TestMultipleHandlersRejected(t *testing.T) {
	_, err := NewBuilder().
		Register(reflect.TypeOf(tquery{}), &recursiveChainHandler{}).
		Register(reflect.TypeOf(tquery{}), &recursiveChainHandler{}).
		Build()
	require.Error(t, err)
	var dup MultipleHandlers
	assert.ErrorAs(t, err, &dup)
}

type selfHandled struct{ N int }

func (q selfHandled) HandleQuery(ctx context.Context, ec Context) (any, error) {
	return q.N * 2, nil
}

func TestSelfHandlingQuery(t *testing.T) {
	e, err := NewBuilder().Build()
	require.NoError(t, err)

	v, err := e.Evaluate(context.Background(), selfHandled{N: 21})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
