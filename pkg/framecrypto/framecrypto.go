// Package framecrypto implements the AEAD encrypt/decrypt step bound to the
// SFrame header as associated data, plus the external truncated-HMAC tag
// that wraps every frame regardless of whether the underlying AEAD already
// produces its own authentication tag (spec §4.4).
package framecrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"github.com/sframe-go/sframe/internal/bytesutil"
	"github.com/sframe-go/sframe/internal/suite"
	"github.com/sframe-go/sframe/pkg/header"
	"github.com/sframe-go/sframe/pkg/sframeiv"
)

// ErrAuthenticationFailed is returned by Decrypt when the external HMAC tag
// does not match.
var ErrAuthenticationFailed = fmt.Errorf("framecrypto: authentication tag mismatch")

// ErrAEADFailed is returned by Decrypt when the AEAD primitive itself
// rejects the ciphertext (a native GCM tag mismatch, or CTR keystream
// generation failure).
var ErrAEADFailed = fmt.Errorf("framecrypto: AEAD decryption failed")

// Encrypt implements spec §4.4 Encrypt. skip bytes of leading space are
// reserved in the output but left zeroed; the caller (Sender) is
// responsible for copying the clear-text skip prefix in afterward.
func Encrypt(inst *suite.Instance, hdr header.Header, plaintext []byte, skip int) ([]byte, error) {
	iv, err := sframeiv.Build(hdr.RawCounter, inst.SaltKey[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIVError, err)
	}

	ciphertextCore, err := aeadSeal(inst, iv, hdr.Data, plaintext)
	if err != nil {
		return nil, fmt.Errorf("framecrypto: seal: %w", err)
	}

	total := skip + len(hdr.Data) + len(ciphertextCore) + inst.Config.NT
	out := make([]byte, total)
	copy(out[skip:], hdr.Data)
	copy(out[skip+len(hdr.Data):], ciphertextCore)

	tag := hmacTag(inst.AuthKey, out[skip:skip+len(hdr.Data)+len(ciphertextCore)], inst.Config.NT)
	copy(out[skip+len(hdr.Data)+len(ciphertextCore):], tag)

	return out, nil
}

// Decrypt implements spec §4.4 Decrypt. frame is the full wire frame
// including the skip prefix; hdr must already have been parsed from
// frame[skip:].
func Decrypt(inst *suite.Instance, hdr header.Header, frame []byte, skip int) ([]byte, error) {
	frameLen := len(frame) - skip
	nt := inst.Config.NT
	if frameLen < len(hdr.Data)+nt {
		return nil, fmt.Errorf("framecrypto: frame too short for header and tag")
	}

	authTag := frame[skip+frameLen-nt : skip+frameLen]
	ciphertextCore := frame[skip+len(hdr.Data) : skip+frameLen-nt]

	expected := hmacTag(inst.AuthKey, frame[skip:skip+len(hdr.Data)+len(ciphertextCore)], nt)
	if !bytesutil.ConstantTimeCompare(expected, authTag) {
		return nil, ErrAuthenticationFailed
	}

	iv, err := sframeiv.Build(hdr.RawCounter, inst.SaltKey[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIVError, err)
	}

	plaintext, err := aeadOpen(inst, iv, hdr.Data, ciphertextCore)
	if err != nil {
		return nil, ErrAEADFailed
	}
	return plaintext, nil
}

// ErrIVError wraps a failure building the per-frame nonce.
var ErrIVError = fmt.Errorf("framecrypto: iv construction failed")

func hmacTag(key, data []byte, nt int) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	full := mac.Sum(nil)
	return full[:nt]
}

func aeadSeal(inst *suite.Instance, iv [sframeiv.Size]byte, ad, plaintext []byte) ([]byte, error) {
	switch inst.Config.Algorithm {
	case suite.AESGCM:
		aead, err := newGCM(inst.EncryptionKey)
		if err != nil {
			return nil, err
		}
		return aead.Seal(nil, iv[:], plaintext, ad), nil
	case suite.AESCTR:
		return ctrXOR(inst.EncryptionKey, iv, plaintext)
	default:
		return nil, fmt.Errorf("framecrypto: unsupported algorithm %v", inst.Config.Algorithm)
	}
}

func aeadOpen(inst *suite.Instance, iv [sframeiv.Size]byte, ad, ciphertextCore []byte) ([]byte, error) {
	switch inst.Config.Algorithm {
	case suite.AESGCM:
		aead, err := newGCM(inst.EncryptionKey)
		if err != nil {
			return nil, err
		}
		return aead.Open(nil, iv[:], ciphertextCore, ad)
	case suite.AESCTR:
		// AES-CTR is its own inverse; decrypting is the same XOR keystream
		// operation as encrypting.
		return ctrXOR(inst.EncryptionKey, iv, ciphertextCore)
	default:
		return nil, fmt.Errorf("framecrypto: unsupported algorithm %v", inst.Config.Algorithm)
	}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// ctrXOR runs AES-CTR keystream over src. The 12-byte SFrame IV is extended
// to a full 16-byte counter block by appending a 4-byte big-endian block
// counter starting at zero, the same convention the WebRTC insertable
// streams reference implementation uses to hand a 96-bit nonce to a
// 128-bit-block CTR primitive.
func ctrXOR(key []byte, iv [sframeiv.Size]byte, src []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	var counterBlock [aes.BlockSize]byte
	copy(counterBlock[:sframeiv.Size], iv[:])

	stream := cipher.NewCTR(block, counterBlock[:])
	dst := make([]byte, len(src))
	stream.XORKeyStream(dst, src)
	return dst, nil
}
