// Package arithmetic is the canonical toy workload used throughout this
// repo's tests and docs: a self-referential recursive sum query.
package arithmetic

import (
	"context"
	"reflect"

	"github.com/adalundhe/qgraph/engine"
	"github.com/adalundhe/qgraph/graph"
)

// Sum is the query Sum(n) = n<=0 ? n : Sum(n-1) + n. Evaluating it builds a
// chain of n dependency edges, making it a convenient fixture for exercising
// cache hits, invalidation propagation, and transitive-dependency queries.
type Sum struct {
	N int
}

// Handler computes Sum by recursively evaluating Sum(n-1) through an engine
// Context, so every call is captured as a real dependency edge rather than
// being inlined.
type Handler struct{}

// NewHandler builds the Sum handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Handle implements engine.Handler.
func (Handler) Handle(ctx context.Context, q graph.Query, ec engine.Context) (any, error) {
	s := q.(Sum)
	if s.N <= 0 {
		return s.N, nil
	}
	prev, err := ec.Evaluate(ctx, Sum{N: s.N - 1})
	if err != nil {
		return nil, err
	}
	return prev.(int) + s.N, nil
}

// Class is Sum's runtime class, for registering the Handler with a Builder.
func Class() reflect.Type {
	return reflect.TypeOf(Sum{})
}
