package engine

import (
	"log/slog"
	"reflect"

	"github.com/adalundhe/qgraph/graph"
	"github.com/google/uuid"
)

// Builder constructs an Engine with a fluent API, mirroring the rest of this
// codebase's Builder pattern (graph.Option, cmd/qgraphctl's cobra setup).
type Builder struct {
	g        *graph.Graph
	handlers map[reflect.Type]Handler
	logger   *slog.Logger
	err      error
}

// NewBuilder creates a new, empty engine Builder.
func NewBuilder() *Builder {
	return &Builder{
		handlers: make(map[reflect.Type]Handler),
		logger:   slog.Default(),
	}
}

// WithGraph seeds the engine with a pre-populated graph. The graph is
// defensively cloned so the caller's copy and the engine's are independent.
func (b *Builder) WithGraph(g *graph.Graph) *Builder {
	b.g = g.Clone()
	return b
}

// WithLogger attaches a structured logger.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Register registers h as the handler for queries of the given runtime
// class. Registering the same class twice is rejected with
// MultipleHandlers at Build time.
func (b *Builder) Register(class reflect.Type, h Handler) *Builder {
	if b.err != nil {
		return b
	}
	if _, exists := b.handlers[class]; exists {
		b.err = MultipleHandlers{Class: class}
		return b
	}
	b.handlers[class] = h
	return b
}

// RegisterFor is a generic convenience over Register: it derives the class
// from the zero value of Q.
func RegisterFor[Q any](b *Builder, h Handler) *Builder {
	var zero Q
	return b.Register(reflect.TypeOf(zero), h)
}

// Discover registers every handler in a caller-supplied registry. Go has no
// runtime package/namespace reflection to walk an "annotated" handler set
// the way a reflective host language could, so annotation-driven discovery
// is modeled as this explicit map the caller builds however it likes: a
// package-level var, a generated table, or anything else.
func (b *Builder) Discover(registry map[reflect.Type]Handler) *Builder {
	for class, h := range registry {
		b.Register(class, h)
	}
	return b
}

// Build validates registrations and returns the assembled Engine. Every
// registered Observable handler is subscribed so its change stream drives
// graph.Invalidate for the engine's lifetime.
func (b *Builder) Build() (*Engine, error) {
	if b.err != nil {
		return nil, b.err
	}

	g := b.g
	if g == nil {
		g = graph.New()
	}

	e := &Engine{
		id:       uuid.New().String(),
		g:        g,
		handlers: b.handlers,
		pending:  make(map[graph.Query]*future),
		logger:   b.logger,
	}

	for _, h := range b.handlers {
		if obs, ok := h.(Observable); ok {
			e.subscribeObservable(obs)
		}
	}

	return e, nil
}
