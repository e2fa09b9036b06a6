package codec

import (
	"bytes"
	"encoding/gob"
)

// Gob encodes values with encoding/gob. Interface-typed fields must be
// registered with gob.Register by the caller.
type Gob[V any] struct{}

func (Gob[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return nil, wrap("gob", "encode", err)
	}
	return buf.Bytes(), nil
}

func (Gob[V]) Decode(b []byte) (V, error) {
	var v V
	err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v)
	return v, wrap("gob", "decode", err)
}
