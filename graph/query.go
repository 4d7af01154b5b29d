// Package graph implements the dependency graph at the core of the query
// engine: the memo table, its three-state validity lattice, and the
// invariant-preserving mutators (Put, Invalidate, Remove, ValidateWeak).
package graph

import "reflect"

// Query is an opaque value identifying a memoized computation. Two queries
// are the same node iff they are equal under Go's == operator, so a query
// type must be comparable (no slices, maps, or funcs among its fields). The
// declared result type travels with the concrete query type, not with any
// value here; the engine package recovers it at the public API boundary.
type Query = any

// Class returns the runtime type of a query, used as the handler-registry
// and serializer-registry key.
func Class(q Query) reflect.Type {
	return reflect.TypeOf(q)
}

// Result is either a success carrying a value or a failure carrying an
// error. Both are memoized identically.
type Result struct {
	Value any
	Err   error
}

// Success builds a successful Result.
func Success(v any) Result {
	return Result{Value: v}
}

// Failure builds a failing Result.
func Failure(err error) Result {
	return Result{Err: err}
}

// IsFailure reports whether r carries an error.
func (r Result) IsFailure() bool {
	return r.Err != nil
}

// equal reports structural equality between two results, used to decide
// whether Put should propagate a change to dependents. reflect.DeepEqual is
// the only thing in reach that can compare two arbitrary memoized values
// without the caller supplying an Equal method per query type.
func (r Result) equal(other Result, hasOther bool) bool {
	if !hasOther {
		return false
	}
	if (r.Err == nil) != (other.Err == nil) {
		return false
	}
	if r.Err != nil {
		return r.Err.Error() == other.Err.Error()
	}
	return reflect.DeepEqual(r.Value, other.Value)
}
