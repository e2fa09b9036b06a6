package util

import (
	"crypto/md5"
	"encoding/hex"
	"unicode/utf16"
)

// LightHash is the rolling hash appended to stringified keys: seed 7,
// multiplier 31, over UTF-16 code units with int32 wraparound.
func LightHash(s string) int32 {
	var h int32 = 7
	for _, u := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(u)
	}
	return h
}

// DigestHex returns the hex MD5 of s (32 chars).
func DigestHex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
