package engine

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/adalundhe/qgraph/graph"
)

// future is the shared handle concurrent Evaluate callers of the same
// query await. It is written exactly once, by whichever goroutine installed
// it, before done is closed.
type future struct {
	done  chan struct{}
	value any
	err   error
}

// Engine is a demand-driven, coroutine-friendly query evaluator. It
// memoizes results in a Graph, deduplicates concurrent requests for the
// same query, reuses cached values when valid, rebuilds sparsely under the
// weakly-invalid fast path, and reacts to external change signals routed
// through observable handlers.
type Engine struct {
	id       string
	g        *graph.Graph
	handlers map[reflect.Type]Handler
	logger   *slog.Logger

	// pendingMu guards only the pending map's critical sections; it is never
	// held across an await or a handler invocation.
	pendingMu sync.Mutex
	pending   map[graph.Query]*future

	unsubMu sync.Mutex
	unsubs  []func()

	closed bool
}

// Graph returns the engine's backing graph. Useful for inspection, manual
// invalidation, and handing the graph to a Serializer.
func (e *Engine) Graph() *graph.Graph {
	return e.g
}

// ID returns the engine instance's correlation ID, assigned once at Build
// time and attached to its observable-invalidation log lines.
func (e *Engine) ID() string {
	return e.id
}

// Evaluate produces q's result, reusing a cached value when valid, probing
// and possibly rebuilding sparsely when weakly invalid, or dispatching to
// q's handler otherwise. Concurrent Evaluate calls for the same query share
// a single handler invocation and receive the same success value or the
// same failure.
func (e *Engine) Evaluate(ctx context.Context, q graph.Query) (any, error) {
	fut, owner := e.claim(q)
	if owner {
		value, err := e.evaluateInner(ctx, q)
		fut.value, fut.err = value, err
		close(fut.done)
		e.release(q)
		return value, err
	}

	select {
	case <-fut.done:
		return fut.value, fut.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// claim installs a new in-flight future for q if none exists, or returns
// the existing one. owner is true iff this call must run the evaluation.
func (e *Engine) claim(q graph.Query) (fut *future, owner bool) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()

	if existing, ok := e.pending[q]; ok {
		return existing, false
	}

	fut = &future{done: make(chan struct{})}
	e.pending[q] = fut
	return fut, true
}

// release removes q's in-flight entry once its future has resolved.
func (e *Engine) release(q graph.Query) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	delete(e.pending, q)
}

// evaluateInner implements the weak fast path, the cached-valid path, and
// the recompute path, in that order.
func (e *Engine) evaluateInner(ctx context.Context, q graph.Query) (any, error) {
	if e.g.Validity(q) == graph.WeaklyInvalid {
		e.probeDeps(ctx, q)
		if e.g.ValidateWeak(q) {
			if result, ok := e.g.Get(q); ok {
				return result.Value, result.Err
			}
		}
	}

	if e.g.Validity(q) == graph.Valid {
		if result, ok := e.g.Get(q); ok {
			return result.Value, result.Err
		}
	}

	return e.recompute(ctx, q)
}

// probeDeps re-evaluates every recorded dependency of q, stopping early if
// q itself becomes StronglyInvalid mid-probe (one of its deps changed).
// Errors from dependencies are swallowed here: the dependency's own Result
// was already cached by its own Evaluate, and will be rethrown the next
// time it is read directly.
func (e *Engine) probeDeps(ctx context.Context, q graph.Query) {
	for _, dep := range e.g.Deps(q) {
		_, _ = e.Evaluate(ctx, dep)
		if e.g.Validity(q) == graph.StronglyInvalid {
			return
		}
	}
}

// recompute dispatches q to its handler inside a capturing Context, then
// caches the outcome (success or failure) with the dependency set the
// handler actually exercised.
func (e *Engine) recompute(ctx context.Context, q graph.Query) (any, error) {
	h, err := e.resolveHandler(q)
	if err != nil {
		return nil, err
	}

	capture := &capturingContext{ctx: ctx, engine: e, deps: make(map[graph.Query]struct{})}
	value, herr := h.Handle(ctx, q, capture)

	deps := capture.depsSlice()
	if herr != nil {
		e.g.Put(q, graph.Failure(herr), deps)
		return nil, herr
	}
	e.g.Put(q, graph.Success(value), deps)
	return value, nil
}

// resolveHandler looks up the registered handler for q's class; failing
// that, it falls back to q's own self-handling default, if any.
func (e *Engine) resolveHandler(q graph.Query) (Handler, error) {
	class := graph.Class(q)
	if h, ok := e.handlers[class]; ok {
		return h, nil
	}
	if self, ok := q.(SelfHandling); ok {
		return HandlerFunc(func(ctx context.Context, q graph.Query, ec Context) (any, error) {
			return self.HandleQuery(ctx, ec)
		}), nil
	}
	return nil, QueryNotHandled{Query: q}
}

// capturingContext records every query the handler asks for as a set (the
// order of requests is not kept), and re-enters the engine (through step
// 1's dedup) for each one.
type capturingContext struct {
	ctx    context.Context
	engine *Engine
	mu     sync.Mutex
	deps   map[graph.Query]struct{}
}

func (c *capturingContext) Evaluate(ctx context.Context, q graph.Query) (any, error) {
	c.mu.Lock()
	c.deps[q] = struct{}{}
	c.mu.Unlock()
	return c.engine.Evaluate(ctx, q)
}

func (c *capturingContext) depsSlice() []graph.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]graph.Query, 0, len(c.deps))
	for q := range c.deps {
		out = append(out, q)
	}
	return out
}

// subscribeObservable wires an observable handler's change stream to
// graph.Invalidate for the engine's lifetime.
func (e *Engine) subscribeObservable(obs Observable) {
	unsubscribe := obs.Changes().Subscribe(func(q graph.Query) {
		e.g.Invalidate(q)
		e.logger.Debug("invalidated from observable signal", slog.String("engine_id", e.id), slog.Any("query", q))
	})

	e.unsubMu.Lock()
	e.unsubs = append(e.unsubs, unsubscribe)
	e.unsubMu.Unlock()
}

// Close releases every observable subscription installed at Build time.
func (e *Engine) Close() error {
	e.unsubMu.Lock()
	defer e.unsubMu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	for _, unsub := range e.unsubs {
		unsub()
	}
	return nil
}
