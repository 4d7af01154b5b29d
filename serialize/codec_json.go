package serialize

import (
	"encoding/json"

	"github.com/adalundhe/qgraph/graph"
)

// jsonQueryCodec is the textual QueryCodec variant, backed by encoding/json.
type jsonQueryCodec[Q any] struct{}

// JSONQueryCodec builds a textual QueryCodec for a concrete query type Q.
func JSONQueryCodec[Q any]() QueryCodec {
	return jsonQueryCodec[Q]{}
}

func (jsonQueryCodec[Q]) EncodeQuery(q graph.Query) ([]byte, error) {
	return json.Marshal(q)
}

func (jsonQueryCodec[Q]) DecodeQuery(data []byte) (graph.Query, error) {
	var q Q
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return q, nil
}

// jsonValueCodec is the textual ValueCodec variant.
type jsonValueCodec[V any] struct{}

// JSONValueCodec builds a textual ValueCodec for a concrete value type V.
func JSONValueCodec[V any]() ValueCodec {
	return jsonValueCodec[V]{}
}

func (jsonValueCodec[V]) EncodeValue(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonValueCodec[V]) DecodeValue(data []byte) (any, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
