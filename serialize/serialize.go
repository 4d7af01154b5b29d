// Package serialize implements the graph serializer: it snapshots a Graph
// into a topologically ordered, self-contained Dump and reconstructs a
// Graph from one, preserving a coherent validity state.
package serialize

import (
	"reflect"
	"sync"

	"github.com/adalundhe/qgraph/graph"
)

// QueryCodec encodes and decodes a query value. Registering one for a class
// (AddQuerySerializer) lets that class's queries appear as dependencies
// (local or transient) even when no ValueCodec is registered for it.
type QueryCodec interface {
	EncodeQuery(q graph.Query) ([]byte, error)
	DecodeQuery(data []byte) (graph.Query, error)
}

// ValueCodec encodes and decodes a query's cached result value. A class
// needs both a QueryCodec and a ValueCodec (AddValueSerializer) before any
// of its nodes can be emitted as a full Dump entry.
type ValueCodec interface {
	EncodeValue(v any) ([]byte, error)
	DecodeValue(data []byte) (any, error)
}

// TransientDep is a dependency that could not be emitted as its own Entry
// (typically because its value is unserializable or it was outside a
// sparse dump) but whose query class is still serializable, so the
// dependency survives as an inline encoded query.
type TransientDep struct {
	Class string
	Query []byte
}

// Entry is one node of a Dump.
type Entry struct {
	Class         string
	Query         []byte
	Value         []byte
	Validity      graph.Validity
	LocalDeps     []int
	TransientDeps []TransientDep
}

// Dump is an ordered, self-contained snapshot of a Graph subset, suitable
// for persistence. Round-tripping through Dump and Load is stable modulo
// set ordering.
type Dump struct {
	Entries []Entry
}

// Serializer holds the per-class codec registrations used by Dump and Load.
type Serializer struct {
	mu               sync.RWMutex
	querySerializers map[string]QueryCodec
	valueSerializers map[string]ValueCodec
}

// New creates an empty Serializer.
func New() *Serializer {
	return &Serializer{
		querySerializers: make(map[string]QueryCodec),
		valueSerializers: make(map[string]ValueCodec),
	}
}

// AddQuerySerializer registers a query-only codec: queries of this class
// can appear as dependencies (local or transient) but are never emitted
// with a value, even if the node has a cached success.
func (s *Serializer) AddQuerySerializer(class reflect.Type, qc QueryCodec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.querySerializers[class.String()] = qc
}

// AddValueSerializer registers a full entry codec: queries of this class
// can be emitted as their own Dump entry, value included.
func (s *Serializer) AddValueSerializer(class reflect.Type, qc QueryCodec, vc ValueCodec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.querySerializers[class.String()] = qc
	s.valueSerializers[class.String()] = vc
}

func (s *Serializer) hasQueryCodec(class string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.querySerializers[class]
	return ok
}

func (s *Serializer) hasValueCodec(class string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.valueSerializers[class]
	return ok
}

func (s *Serializer) queryCodec(class string) (QueryCodec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qc, ok := s.querySerializers[class]
	return qc, ok
}

func (s *Serializer) valueCodec(class string) (ValueCodec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vc, ok := s.valueSerializers[class]
	return vc, ok
}
