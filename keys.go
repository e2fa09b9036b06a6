package tiercache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/tiercache/internal/util"
)

const (
	// MaxKeyLength is the longest backend key, in bytes.
	MaxKeyLength = 250

	digestLen = 32 // hex MD5
	keySep    = ","
)

// PreparedKey is a key that already carries its backend subkey. The subkey is
// used verbatim: no space replacement, no hash suffix.
type PreparedKey interface {
	CacheKey() string
}

// StringKey is a PreparedKey holding a precomputed subkey.
type StringKey string

func (k StringKey) CacheKey() string { return string(k) }

// EncodeKey builds the backend key serviceID + namespace + ":" + subkey.
//
// The subkey of a PreparedKey is used as is. Any other key is stringified with
// fmt, spaces become "_", and the light hash of the original string is
// appended. When the result would exceed MaxKeyLength bytes the subkey is
// replaced by its hex MD5 digest.
func EncodeKey(serviceID, namespace string, key any) (string, error) {
	if isNil(key) {
		return "", ErrInvalidKey
	}
	var sub string
	switch k := key.(type) {
	case PreparedKey:
		sub = k.CacheKey()
	default:
		s := fmt.Sprint(k)
		sub = strings.ReplaceAll(s, " ", "_") + strconv.FormatInt(int64(util.LightHash(s)), 10)
	}

	prefix := serviceID + namespace + ":"
	if len(prefix)+len(sub) > MaxKeyLength {
		sub = util.DigestHex(sub)
	}
	return prefix + sub, nil
}

// JoinKey joins params with "," into a StringKey. nil params contribute an
// empty segment.
func JoinKey(params ...any) StringKey {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteString(keySep)
		}
		if p != nil {
			fmt.Fprint(&b, p)
		}
	}
	return StringKey(b.String())
}

// HashedKey is JoinKey with spaces replaced by "_" and the XOR of each
// param's light hash appended, so that inputs differing only in spacing or
// separators stay distinct.
func HashedKey(params ...any) StringKey {
	var (
		b    strings.Builder
		hash int32
	)
	for i, p := range params {
		if i > 0 {
			b.WriteString(keySep)
		}
		if p != nil {
			s := fmt.Sprint(p)
			b.WriteString(s)
			hash ^= util.LightHash(s)
		}
	}
	return StringKey(strings.ReplaceAll(b.String(), " ", "_") + strconv.FormatInt(int64(hash), 10))
}
