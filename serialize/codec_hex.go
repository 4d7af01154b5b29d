package serialize

import (
	"encoding/hex"

	"github.com/adalundhe/qgraph/graph"
)

// hexQueryCodec wraps another QueryCodec's bytes as a hex-textual string, a
// third encoding variant alongside plain textual and binary.
type hexQueryCodec struct {
	inner QueryCodec
}

// HexQueryCodec wraps inner so its output is hex-encoded text.
func HexQueryCodec(inner QueryCodec) QueryCodec {
	return hexQueryCodec{inner: inner}
}

func (c hexQueryCodec) EncodeQuery(q graph.Query) ([]byte, error) {
	raw, err := c.inner.EncodeQuery(q)
	if err != nil {
		return nil, err
	}
	return []byte(hex.EncodeToString(raw)), nil
}

func (c hexQueryCodec) DecodeQuery(data []byte) (graph.Query, error) {
	raw, err := hex.DecodeString(string(data))
	if err != nil {
		return nil, err
	}
	return c.inner.DecodeQuery(raw)
}

type hexValueCodec struct {
	inner ValueCodec
}

// HexValueCodec wraps inner so its output is hex-encoded text.
func HexValueCodec(inner ValueCodec) ValueCodec {
	return hexValueCodec{inner: inner}
}

func (c hexValueCodec) EncodeValue(v any) ([]byte, error) {
	raw, err := c.inner.EncodeValue(v)
	if err != nil {
		return nil, err
	}
	return []byte(hex.EncodeToString(raw)), nil
}

func (c hexValueCodec) DecodeValue(data []byte) (any, error) {
	raw, err := hex.DecodeString(string(data))
	if err != nil {
		return nil, err
	}
	return c.inner.DecodeValue(raw)
}
