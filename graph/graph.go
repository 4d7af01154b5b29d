package graph

import (
	"log/slog"
	"sync"
)

// Entry is a read-only snapshot of a single node, returned by AsMap.
type Entry struct {
	Result   Result
	HasValue bool
	Validity Validity
	Deps     []Query
}

// Option configures a Graph at construction time.
type Option func(*Graph)

// WithLogger attaches a structured logger, defaulting to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

// Graph is the dependency graph: cached results, dependency/dependent edges,
// and per-node validity. Every mutator (Put, Invalidate, Remove,
// ValidateWeak) is atomic with respect to every other mutator and reader;
// a single RWMutex over the whole table is sufficient since no mutator ever
// suspends.
type Graph struct {
	mu     sync.RWMutex
	nodes  map[Query]*node
	logger *slog.Logger
}

// New creates an empty Graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:  make(map[Query]*node),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// =============================================================================
// Read contract
// =============================================================================

// Get returns the cached result for q, if any. Missing or result-less nodes
// return ok=false.
func (g *Graph) Get(q Query) (Result, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[q]
	if !ok || !n.hasResult {
		return Result{}, false
	}
	return n.result, true
}

// Validity returns the current validity of q. A missing node reads as
// StronglyInvalid.
func (g *Graph) Validity(q Query) Validity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[q]
	if !ok {
		return StronglyInvalid
	}
	return n.validity
}

// Deps returns the dependency set recorded during q's last successful
// evaluation. A missing node returns an empty slice.
func (g *Graph) Deps(q Query) []Query {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[q]
	if !ok {
		return nil
	}
	return n.depsSlice()
}

// Rev returns the set of queries that name q as a dependency.
func (g *Graph) Rev(q Query) []Query {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[q]
	if !ok {
		return nil
	}
	return n.revSlice()
}

// TransitiveDeps returns the reachable closure over Deps, excluding q itself
// unless a cycle makes it reachable from its own dependencies.
func (g *Graph) TransitiveDeps(q Query) []Query {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bfs(q, func(n *node) []Query { return n.depsSlice() })
}

// TransitiveDependents returns the reachable closure over Rev.
func (g *Graph) TransitiveDependents(q Query) []Query {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bfs(q, func(n *node) []Query { return n.revSlice() })
}

// bfs walks the graph in the direction given by next, starting from q's
// immediate neighbours, and returns every node reached. Must hold at least a
// read lock. Iterative and visited-set guarded so it terminates on cycles.
func (g *Graph) bfs(q Query, next func(*node) []Query) []Query {
	n, ok := g.nodes[q]
	if !ok {
		return nil
	}

	visited := map[Query]struct{}{}
	queue := next(n)
	var out []Query

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}
		out = append(out, cur)

		if curNode, ok := g.nodes[cur]; ok {
			queue = append(queue, next(curNode)...)
		}
	}

	return out
}

// AsMap returns a read-only snapshot of every node in the graph.
func (g *Graph) AsMap() map[Query]Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[Query]Entry, len(g.nodes))
	for q, n := range g.nodes {
		out[q] = Entry{
			Result:   n.result,
			HasValue: n.hasResult,
			Validity: n.validity,
			Deps:     n.depsSlice(),
		}
	}
	return out
}

// Clone returns a deep copy: mutating the clone never affects the original
// and vice versa.
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cp := &Graph{
		nodes:  make(map[Query]*node, len(g.nodes)),
		logger: g.logger,
	}
	for q, n := range g.nodes {
		cp.nodes[q] = n.clone()
	}
	return cp
}

// =============================================================================
// Write contract
// =============================================================================

// Put writes q's result and dependency set. If the new result differs from
// the previously cached one (or none was cached), every direct dependent is
// marked StronglyInvalid and every further transitive dependent at least
// WeaklyInvalid (notifyChanged); STRONG always dominates WEAK. Edges are
// reconciled so Deps/Rev stay each other's exact inverse (invariant 1), then
// the supplied validity is assigned verbatim. validity defaults to Valid.
func (g *Graph) Put(q Query, result Result, deps []Query, validity ...Validity) {
	v := Valid
	if len(validity) > 0 {
		v = validity[0]
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	n, existed := g.nodes[q]
	if !existed {
		n = newNode()
		g.nodes[q] = n
	}

	changed := !n.result.equal(result, n.hasResult)

	g.reconcileEdges(q, n, deps)

	n.result = result
	n.hasResult = true
	n.validity = v

	if changed {
		g.notifyChanged(q)
	}
}

// reconcileEdges updates rev-edges so that deps(q) becomes exactly D, then
// stores D as q's dependency set.
func (g *Graph) reconcileEdges(q Query, n *node, deps []Query) {
	newSet := make(map[Query]struct{}, len(deps))
	for _, d := range deps {
		newSet[d] = struct{}{}
	}

	for d := range n.deps {
		if _, stillDep := newSet[d]; !stillDep {
			if dn, ok := g.nodes[d]; ok {
				delete(dn.rev, q)
			}
		}
	}
	for d := range newSet {
		if _, wasDep := n.deps[d]; !wasDep {
			dn, ok := g.nodes[d]
			if !ok {
				dn = newNode()
				dn.validity = StronglyInvalid
				g.nodes[d] = dn
			}
			dn.rev[q] = struct{}{}
		}
	}

	n.deps = newSet
}

// notifyChanged marks every direct dependent of q StronglyInvalid and every
// further transitive dependent at least WeaklyInvalid. A dependent already
// StronglyInvalid keeps that state (STRONG dominates WEAK). Must be called
// with the write lock held.
func (g *Graph) notifyChanged(q Query) {
	n, ok := g.nodes[q]
	if !ok {
		return
	}

	frontier := n.revSlice()
	g.markAtLeast(frontier, StronglyInvalid)

	visited := map[Query]struct{}{q: {}}
	for _, d := range frontier {
		visited[d] = struct{}{}
	}

	queue := frontier
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		curNode, ok := g.nodes[cur]
		if !ok {
			continue
		}
		for _, dep := range curNode.revSlice() {
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			g.markAtLeast([]Query{dep}, WeaklyInvalid)
			queue = append(queue, dep)
		}
	}
}

// markAtLeast raises each query's validity to at least target, never
// downgrading an existing stronger state. Must be called with the write
// lock held.
func (g *Graph) markAtLeast(qs []Query, target Validity) {
	for _, q := range qs {
		n, ok := g.nodes[q]
		if !ok {
			continue
		}
		if !n.validity.dominates(target) {
			n.validity = target
		}
	}
}

// Invalidate forces q to StronglyInvalid and every transitive dependent to
// at least WeaklyInvalid. Never downgrades an existing StronglyInvalid
// dependent to WeaklyInvalid.
func (g *Graph) Invalidate(q Query) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[q]
	if !ok {
		// Missing nodes already read as StronglyInvalid; nothing to
		// propagate since no dependent can exist for an unknown node.
		return
	}
	n.validity = StronglyInvalid

	g.markAtLeast(g.bfs(q, func(n *node) []Query { return n.revSlice() }), WeaklyInvalid)
}

// Remove deletes q's cached value, validity entry, and outgoing edges.
// Direct dependents become StronglyInvalid and further transitive
// dependents WeaklyInvalid, as after a changed Put. rev(q) entries are left
// in place (q stays behind as a result-less StronglyInvalid placeholder
// while it has dependents): dependents still record q as a dependency they
// will rediscover on recomputation.
func (g *Graph) Remove(q Query) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[q]
	if !ok {
		return
	}

	g.notifyChanged(q)

	for d := range n.deps {
		if dn, ok := g.nodes[d]; ok {
			delete(dn.rev, q)
		}
	}

	if len(n.rev) > 0 {
		n.result = Result{}
		n.hasResult = false
		n.validity = StronglyInvalid
		n.deps = make(map[Query]struct{})
		return
	}
	delete(g.nodes, q)
}

// ValidateWeak promotes q from WeaklyInvalid to Valid iff every dependency
// of q is currently Valid. It is the only upgrade path that does not go
// through Put. Returns whether q is now (or already was) Valid.
func (g *Graph) ValidateWeak(q Query) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[q]
	if !ok {
		return false
	}
	if n.validity == Valid {
		return true
	}
	if n.validity != WeaklyInvalid {
		return false
	}

	for d := range n.deps {
		dn, ok := g.nodes[d]
		if !ok || dn.validity != Valid {
			return false
		}
	}

	n.validity = Valid
	return true
}
