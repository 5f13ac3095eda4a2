// Package bytesutil provides small byte-level helpers shared by the header
// codec, the cipher suite key schedule, and the frame crypto engine.
package bytesutil

import (
	"crypto/subtle"
	"encoding/hex"
)

// ConstantTimeCompare reports whether a and b are equal. For slices of
// equal length it takes time independent of where they first differ.
// Slices of differing lengths return false immediately, so the length
// itself is not hidden.
func ConstantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// ToHex renders b as a lowercase hex string, for error messages and test
// vectors.
func ToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// FromHex decodes a hex string, for test vectors.
func FromHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// MinimalByteLength returns the fewest bytes needed to hold v in a
// big-endian unsigned encoding, with a floor of 1 (so that v == 0 still
// takes one byte).
func MinimalByteLength(v uint64) int {
	n := 1
	for v > 0xff {
		v >>= 8
		n++
	}
	return n
}

// PutUintBE writes v into dst using exactly len(dst) big-endian bytes.
// The caller must size dst to fit v; PutUintBE truncates silently like the
// stdlib binary.BigEndian helpers do for fixed-width types.
func PutUintBE(dst []byte, v uint64) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

// UintBE decodes a big-endian unsigned integer of arbitrary byte length
// (1..8 bytes, per the SFrame header's counter and extended key-id fields).
func UintBE(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
