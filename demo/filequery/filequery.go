// Package filequery is a minimal demo query over the filesystem: reading a
// file's contents as a cached, invalidatable node. Pairs with
// demo/watchquery, which turns fsnotify events into graph.Invalidate calls
// for exactly these queries.
package filequery

import (
	"context"
	"fmt"
	"os"
	"reflect"

	"github.com/adalundhe/qgraph/engine"
	"github.com/adalundhe/qgraph/graph"
)

// Contents is a query for the current bytes of a file at Path.
type Contents struct {
	Path string
}

// Handler reads Path with os.ReadFile on every (re)evaluation; it captures
// no dependencies of its own; invalidation is driven externally, typically
// by demo/watchquery.
type Handler struct{}

// NewHandler builds the Contents handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Handle implements engine.Handler.
func (Handler) Handle(_ context.Context, q graph.Query, _ engine.Context) (any, error) {
	c := q.(Contents)
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("filequery: read %s: %w", c.Path, err)
	}
	return data, nil
}

// Class is Contents' runtime class, for registering the Handler.
func Class() reflect.Type {
	return reflect.TypeOf(Contents{})
}
