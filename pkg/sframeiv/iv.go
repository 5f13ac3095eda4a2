// Package sframeiv builds the per-frame AEAD nonce from a sender's raw
// counter bytes and a cipher suite's derived salt, per spec §4.2.
package sframeiv

import "fmt"

// Size is the fixed IV/nonce length used by every supported cipher suite.
const Size = 12

// Build right-aligns counter into a zeroed 12-byte buffer and XORs it with
// salt. counter is the header's raw big-endian counter bytes (1..8 bytes,
// as produced by pkg/header); salt must be exactly Size bytes.
func Build(counter []byte, salt []byte) ([Size]byte, error) {
	var iv [Size]byte
	if len(salt) != Size {
		return iv, fmt.Errorf("sframeiv: salt must be %d bytes, got %d", Size, len(salt))
	}
	if len(counter) < 1 || len(counter) > 8 {
		return iv, fmt.Errorf("sframeiv: counter must be 1..8 bytes, got %d", len(counter))
	}

	copy(iv[Size-len(counter):], counter)
	for i := range iv {
		iv[i] ^= salt[i]
	}
	return iv, nil
}
