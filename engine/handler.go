package engine

import (
	"context"

	"github.com/adalundhe/qgraph/graph"
)

// Context is the only thing a Handler can do with the engine: recursively
// request another query. The engine records every call made through it
// during a handler's execution as that query's dependency set.
type Context interface {
	Evaluate(ctx context.Context, q graph.Query) (any, error)
}

// Handler computes the result of a query. Handlers are pure with respect to
// the engine: any I/O or mutable state lives in the handler's own fields.
// Handlers may suspend (block on ctx, channels, I/O) but must issue no more
// than one concurrent invocation per distinct query — the engine guarantees
// that by deduplicating concurrent Evaluate calls for the same query.
type Handler interface {
	Handle(ctx context.Context, q graph.Query, ec Context) (any, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, q graph.Query, ec Context) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, q graph.Query, ec Context) (any, error) {
	return f(ctx, q, ec)
}

// SelfHandling is implemented by a query type that carries its own default
// handler. The engine uses it only when the registry has no explicit
// handler for the query's class.
type SelfHandling interface {
	HandleQuery(ctx context.Context, ec Context) (any, error)
}

// ChangeStream is a single-producer, multi-subscriber push stream of
// queries whose external facts changed. Subscribing returns a disposable
// unsubscribe handle; ordering across subscribers is not specified.
type ChangeStream interface {
	Subscribe(fn func(graph.Query)) (unsubscribe func())
}

// Observable is a Handler that additionally exposes a ChangeStream. The
// engine subscribes to every registered Observable handler at build time
// and routes each emitted query to graph.Invalidate; the subscription is
// released when the engine is closed.
type Observable interface {
	Handler
	Changes() ChangeStream
}
