package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version   byte = 1
	kindValue byte = 1
	kindNull  byte = 2

	hdrLen = 4 + 1 + 1 + 4
)

var (
	ErrCorrupt = errors.New("tiercache: corrupt entry")
	magic4     = [...]byte{'T', 'I', 'E', 'R'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry is the decoded form of a stored frame. Null reports a cached
// application null; Payload is nil in that case.
type Entry struct {
	Null    bool
	Payload []byte
}

// Frame: magic(4) | ver(1) | kind(1=value,2=null) | vlen(u32 be) | payload(vlen)
func EncodeValue(payload []byte) []byte {
	return encode(kindValue, payload)
}

// EncodeNull returns the frame for a cached null. It never carries a payload.
func EncodeNull() []byte {
	return encode(kindNull, nil)
}

func encode(kind byte, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kind)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode parses a frame. Payload aliases b (no copy).
func Decode(b []byte) (Entry, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return Entry{}, ErrCorrupt
	}
	kind := b[5]
	if kind != kindValue && kind != kindNull {
		return Entry{}, ErrCorrupt
	}

	off := 6
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // exact framing: no short or trailing bytes
		return Entry{}, ErrCorrupt
	}

	if kind == kindNull {
		if vlen != 0 {
			return Entry{}, ErrCorrupt
		}
		return Entry{Null: true}, nil
	}
	return Entry{Payload: b[off : off+vlen]}, nil
}
