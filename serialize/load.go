package serialize

import (
	"github.com/adalundhe/qgraph/graph"
)

// Load walks a Dump in order and reconstructs a Graph. For each entry: the
// query is decoded through its registered QueryCodec, then the value
// through the matching ValueCodec; if either codec is unregistered the
// entry is skipped and its index becomes a hole. LocalDeps are resolved by
// index into previously decoded queries — a dep pointing at a hole demotes
// the referencing entry to StronglyInvalid and is simply omitted from its
// dependency set, since the graph can no longer probe it.
func (s *Serializer) Load(d *Dump) (*graph.Graph, error) {
	g := graph.New()
	decoded := make([]graph.Query, len(d.Entries))
	ok := make([]bool, len(d.Entries))

	for i, entry := range d.Entries {
		q, valid := s.loadEntry(g, entry, decoded, ok)
		if valid {
			decoded[i] = q
			ok[i] = true
		}
	}

	return g, nil
}

func (s *Serializer) loadEntry(g *graph.Graph, entry Entry, decoded []graph.Query, ok []bool) (graph.Query, bool) {
	qc, hasQuery := s.queryCodec(entry.Class)
	if !hasQuery {
		return nil, false
	}
	vc, hasValue := s.valueCodec(entry.Class)
	if !hasValue {
		return nil, false
	}

	q, err := qc.DecodeQuery(entry.Query)
	if err != nil {
		return nil, false
	}
	value, err := vc.DecodeValue(entry.Value)
	if err != nil {
		return nil, false
	}

	validity := entry.Validity
	deps := make([]graph.Query, 0, len(entry.LocalDeps)+len(entry.TransientDeps))

	for _, idx := range entry.LocalDeps {
		if idx < 0 || idx >= len(ok) || !ok[idx] {
			validity = graph.StronglyInvalid
			continue
		}
		deps = append(deps, decoded[idx])
	}

	for _, td := range entry.TransientDeps {
		tc, hasCodec := s.queryCodec(td.Class)
		if !hasCodec {
			validity = graph.StronglyInvalid
			continue
		}
		tq, err := tc.DecodeQuery(td.Query)
		if err != nil {
			validity = graph.StronglyInvalid
			continue
		}
		deps = append(deps, tq)
	}

	g.Put(q, graph.Success(value), deps, validity)
	return q, true
}
