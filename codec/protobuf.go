package codec

import "google.golang.org/protobuf/proto"

// Protobuf encodes proto messages. The constructor allocates the message
// Decode fills, e.g. func() *userpb.User { return &userpb.User{} }.
type Protobuf[T proto.Message] struct {
	new func() T
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	b, err := proto.Marshal(v)
	return b, wrap("protobuf", "encode", err)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, wrap("protobuf", "decode", err)
}
