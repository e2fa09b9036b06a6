// Package codec converts cached values to and from the bytes handed to the
// remote store and the local tier. A Codec is the operation codec of a cache:
// when none is configured, Default is used.
package codec

import "fmt"

// Codec encodes/decodes values V to []byte for storage.
// Implementations must be safe for concurrent use.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Default returns the codec used when a cache has no operation codec.
func Default[V any]() Codec[V] { return Msgpack[V]{} }

func wrap(name, op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("codec/%s: %s: %w", name, op, err)
}
