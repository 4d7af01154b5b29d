package engine

import "context"

// Evaluate is a generic convenience wrapper around Engine.Evaluate that
// casts the untyped result to T. The cast is safe iff every handler
// returns the type its query type advertises — enforced only by
// convention, since Go erases the binding between a query value and its
// result type at the handler-table boundary. RegisterFor's Q type
// parameter is the closest thing to a compile-time witness of that
// binding.
func Evaluate[T any](ctx context.Context, e *Engine, q any) (T, error) {
	var zero T
	v, err := e.Evaluate(ctx, q)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	return v.(T), nil
}
