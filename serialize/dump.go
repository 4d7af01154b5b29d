package serialize

import (
	"github.com/adalundhe/qgraph/graph"
)

// candidate is a node eligible for emission: it has a successful, value-
// serializable result and every one of its dependencies has a registered
// query codec (so it can be referenced, locally or transiently).
type candidate struct {
	query graph.Query
	entry graph.Entry
	class string
	deps  []graph.Query
}

// Dump snapshots g into a topologically ordered Dump. Nodes whose result is
// a failure, whose class has no registered ValueCodec, or that reference a
// dependency with no registered QueryCodec are skipped from `ordered` — but
// may still surface as a TransientDep of an entry that does get emitted. A
// residual candidate queue after Kahn's algorithm implies a cycle among the
// serializable set.
func (s *Serializer) Dump(g *graph.Graph) (*Dump, error) {
	all := g.AsMap()

	candidates := make(map[graph.Query]*candidate)
	for q, e := range all {
		if !e.HasValue || e.Result.IsFailure() {
			continue
		}
		class := graph.Class(q).String()
		if !s.hasValueCodec(class) {
			continue
		}
		if !s.allDepsReferenceable(e.Deps) {
			continue
		}
		candidates[q] = &candidate{query: q, entry: e, class: class, deps: e.Deps}
	}

	order, err := s.topoSort(candidates)
	if err != nil {
		return nil, err
	}

	index := make(map[graph.Query]int, len(order))
	for i, q := range order {
		index[q] = i
	}

	entries := make([]Entry, len(order))
	for i, q := range order {
		entry, err := s.buildEntry(candidates[q], index, all)
		if err != nil {
			return nil, err
		}
		entries[i] = entry
	}

	return &Dump{Entries: entries}, nil
}

// allDepsReferenceable reports whether every dependency's class has a
// registered query codec, meaning it can appear at least as a TransientDep.
func (s *Serializer) allDepsReferenceable(deps []graph.Query) bool {
	for _, d := range deps {
		if !s.hasQueryCodec(graph.Class(d).String()) {
			return false
		}
	}
	return true
}

// topoSort runs Kahn's algorithm over the candidate set, counting in-degree
// only for edges whose source is itself a candidate (a dependency outside
// the set never blocks emission; it becomes a TransientDep instead).
func (s *Serializer) topoSort(candidates map[graph.Query]*candidate) ([]graph.Query, error) {
	inDegree := make(map[graph.Query]int, len(candidates))
	dependents := make(map[graph.Query][]graph.Query)

	for q, c := range candidates {
		degree := 0
		for _, d := range c.deps {
			if _, inSet := candidates[d]; inSet {
				degree++
				dependents[d] = append(dependents[d], q)
			}
		}
		inDegree[q] = degree
	}

	var queue []graph.Query
	for q, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, q)
		}
	}

	order := make([]graph.Query, 0, len(candidates))
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		order = append(order, q)

		for _, dep := range dependents[q] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(candidates) {
		return nil, ErrCyclicDependency
	}
	return order, nil
}

// buildEntry encodes a single candidate into a Dump Entry: its own query
// and value, its validity (demoted per the rules below), and its
// dependencies split into LocalDeps (back-references into `order`) and
// TransientDeps (inline encoded queries for dependencies outside the
// emitted set).
func (s *Serializer) buildEntry(c *candidate, index map[graph.Query]int, all map[graph.Query]graph.Entry) (Entry, error) {
	vc, _ := s.valueCodec(c.class)
	qc, _ := s.queryCodec(c.class)

	queryBytes, err := qc.EncodeQuery(c.query)
	if err != nil {
		return Entry{}, err
	}
	valueBytes, err := vc.EncodeValue(c.entry.Result.Value)
	if err != nil {
		return Entry{}, err
	}

	var localDeps []int
	var transientDeps []TransientDep
	hasTransient := false
	demoteWeak := false

	for _, d := range c.deps {
		if i, ok := index[d]; ok {
			localDeps = append(localDeps, i)
			if all[d].Validity != graph.Valid {
				demoteWeak = true
			}
			continue
		}

		hasTransient = true
		depClass := graph.Class(d).String()
		depCodec, _ := s.queryCodec(depClass)
		depBytes, err := depCodec.EncodeQuery(d)
		if err != nil {
			return Entry{}, err
		}
		transientDeps = append(transientDeps, TransientDep{Class: depClass, Query: depBytes})
	}

	validity := c.entry.Validity
	switch {
	case hasTransient:
		validity = graph.StronglyInvalid
	case demoteWeak && validity == graph.Valid:
		validity = graph.WeaklyInvalid
	}

	return Entry{
		Class:         c.class,
		Query:         queryBytes,
		Value:         valueBytes,
		Validity:      validity,
		LocalDeps:     localDeps,
		TransientDeps: transientDeps,
	}, nil
}
