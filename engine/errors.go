package engine

import (
	"fmt"
	"reflect"

	"github.com/adalundhe/qgraph/graph"
)

// QueryNotHandled is returned by Evaluate when a query has neither a
// registered handler for its class nor a self-handling default.
type QueryNotHandled struct {
	Query graph.Query
}

func (e QueryNotHandled) Error() string {
	return fmt.Sprintf("query not handled: %s %+v", reflect.TypeOf(e.Query), e.Query)
}

// MultipleHandlers is returned at build time when two handlers are
// registered for the same query class.
type MultipleHandlers struct {
	Class reflect.Type
}

func (e MultipleHandlers) Error() string {
	return fmt.Sprintf("multiple handlers registered for query class %s", e.Class)
}
