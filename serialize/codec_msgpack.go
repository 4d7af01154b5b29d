package serialize

import (
	"github.com/adalundhe/qgraph/graph"
	"github.com/vmihailenco/msgpack/v5"
)

// msgpackQueryCodec is the binary QueryCodec variant, using msgpack rather
// than encoding/gob so the wire format is readable by non-Go tooling too.
type msgpackQueryCodec[Q any] struct{}

// MsgpackQueryCodec builds a binary QueryCodec for a concrete query type Q.
func MsgpackQueryCodec[Q any]() QueryCodec {
	return msgpackQueryCodec[Q]{}
}

func (msgpackQueryCodec[Q]) EncodeQuery(q graph.Query) ([]byte, error) {
	return msgpack.Marshal(q)
}

func (msgpackQueryCodec[Q]) DecodeQuery(data []byte) (graph.Query, error) {
	var q Q
	if err := msgpack.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return q, nil
}

// msgpackValueCodec is the binary ValueCodec variant.
type msgpackValueCodec[V any] struct{}

// MsgpackValueCodec builds a binary ValueCodec for a concrete value type V.
func MsgpackValueCodec[V any]() ValueCodec {
	return msgpackValueCodec[V]{}
}

func (msgpackValueCodec[V]) EncodeValue(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (msgpackValueCodec[V]) DecodeValue(data []byte) (any, error) {
	var v V
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
