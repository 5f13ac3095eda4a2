// Package header implements the SFrame header codec: the variable-length
// key-id and counter encoding that prefixes every SFrame ciphertext.
//
// Wire layout of the leading metadata byte, most-significant bit first:
//
//	bit   0   1 2 3   4   5 6 7
//	     [R] [ LEN  ] [X] [K/KLEN]
//
// R is reserved and always emitted as 0. LEN is the counter byte-length
// minus one. X selects whether K carries a 3-bit key-id directly (X=0) or
// KLEN-1, the byte-length of an out-of-line big-endian key-id that follows
// the metadata byte (X=1). The counter, big-endian and LEN+1 bytes long,
// follows the key-id bytes (if any).
package header

import (
	"errors"
	"fmt"

	"github.com/sframe-go/sframe/internal/bytesutil"
)

// MaxKeyID is the largest key-id (and therefore sender-id) this codec will
// encode. Go's uint64 represents the draft's full 0..2^64-1 range losslessly,
// so unlike implementations built on a 53-bit-safe float this library does
// not need to clamp below the wire format's own ceiling.
const MaxKeyID = ^uint64(0)

// ErrKeyIDOutOfRange is returned by Generate when keyID exceeds MaxKeyID.
// Since MaxKeyID is the full uint64 range this can currently never trigger,
// but it is kept as the documented failure mode the draft requires
// implementations to expose (see spec §4.1 step 1 and §9's note on the
// header length ceiling).
var ErrKeyIDOutOfRange = errors.New("header: key id exceeds maximum representable value")

// ErrTruncated is returned by Parse when buf does not contain enough bytes
// for the header it claims to encode.
var ErrTruncated = errors.New("header: buffer truncated")

// Header is a parsed or generated SFrame header.
type Header struct {
	// Data is the exact byte sequence consumed (1..17 bytes): the
	// metadata byte, the optional extended key-id, and the counter.
	Data []byte
	// KeyID is the sender identity carried in this header.
	KeyID uint64
	// Counter is the per-sender frame counter.
	Counter uint64
	// RawCounter is the big-endian minimal-length encoding of Counter as
	// it appears inside Data; it is used verbatim as IV input.
	RawCounter []byte
}

// Generate builds the wire bytes for (keyID, counter) per spec §4.1.
func Generate(keyID, counter uint64) (Header, error) {
	if keyID > MaxKeyID {
		return Header{}, ErrKeyIDOutOfRange
	}

	extended := keyID > 7
	ctrBytes := bytesutil.MinimalByteLength(counter)

	var kidBytes int
	if extended {
		kidBytes = bytesutil.MinimalByteLength(keyID)
	}

	var x, k byte
	if extended {
		x = 1
		k = byte(kidBytes - 1)
	} else {
		k = byte(keyID)
	}
	meta := (byte(ctrBytes-1)&7)<<4 | (x&1)<<3 | (k & 7)

	total := 1 + kidBytes + ctrBytes
	data := make([]byte, total)
	data[0] = meta
	off := 1
	if extended {
		bytesutil.PutUintBE(data[off:off+kidBytes], keyID)
		off += kidBytes
	}
	rawCounter := data[off : off+ctrBytes]
	bytesutil.PutUintBE(rawCounter, counter)

	return Header{
		Data:       data,
		KeyID:      keyID,
		Counter:    counter,
		RawCounter: rawCounter,
	}, nil
}

// Parse reads a header from the front of buf. buf may contain trailing
// payload bytes after the header; Parse never reads past the header it
// decodes, and Header.Data slices exactly the bytes consumed so the caller
// can locate the remainder via len(header.Data).
func Parse(buf []byte) (Header, error) {
	if len(buf) < 1 {
		return Header{}, ErrTruncated
	}
	meta := buf[0]
	lenField := (meta >> 4) & 7
	x := (meta >> 3) & 1
	k := meta & 7

	ctrLen := int(lenField) + 1

	if x == 0 {
		if len(buf) < 1+ctrLen {
			return Header{}, ErrTruncated
		}
		rawCounter := buf[1 : 1+ctrLen]
		return Header{
			Data:       buf[:1+ctrLen],
			KeyID:      uint64(k),
			Counter:    bytesutil.UintBE(rawCounter),
			RawCounter: rawCounter,
		}, nil
	}

	kidLen := int(k) + 1
	if len(buf) < 1+kidLen+ctrLen {
		return Header{}, ErrTruncated
	}
	kidBytes := buf[1 : 1+kidLen]
	rawCounter := buf[1+kidLen : 1+kidLen+ctrLen]
	return Header{
		Data:       buf[:1+kidLen+ctrLen],
		KeyID:      bytesutil.UintBE(kidBytes),
		Counter:    bytesutil.UintBE(rawCounter),
		RawCounter: rawCounter,
	}, nil
}

// String renders the header for log lines and error messages.
func (h Header) String() string {
	return fmt.Sprintf("header{keyId=%d counter=%d len=%d}", h.KeyID, h.Counter, len(h.Data))
}
