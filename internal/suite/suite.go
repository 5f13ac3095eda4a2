// Package suite implements the SFrame cipher suite table and the
// HKDF-based key schedule that derives an encryption key, a salt, and an
// authentication key from raw key material, per spec §4.3.
//
// Concrete suites are named after the DTLS convention the teacher's
// embedded cipher-suite fork uses (named constants for a fixed, small table
// of AEAD/hash combinations, each with its own key/nonce/tag lengths).
package suite

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Algorithm identifies the AEAD primitive a suite uses for bulk encryption.
type Algorithm int

const (
	AESCTR Algorithm = iota
	AESGCM
)

func (a Algorithm) String() string {
	switch a {
	case AESCTR:
		return "AES-CTR"
	case AESGCM:
		return "AES-GCM"
	default:
		return "unknown"
	}
}

// Variant enumerates the four cipher suites spec §3 requires.
type Variant int

const (
	AES_CM_128_HMAC_SHA256_4 Variant = iota
	AES_CM_128_HMAC_SHA256_8
	AES_GCM_128_SHA256
	AES_GCM_256_SHA512
)

// DefaultVariant is used when a caller does not specify one.
const DefaultVariant = AES_GCM_256_SHA512

func (v Variant) String() string {
	switch v {
	case AES_CM_128_HMAC_SHA256_4:
		return "AES_CM_128_HMAC_SHA256_4"
	case AES_CM_128_HMAC_SHA256_8:
		return "AES_CM_128_HMAC_SHA256_8"
	case AES_GCM_128_SHA256:
		return "AES_GCM_128_SHA256"
	case AES_GCM_256_SHA512:
		return "AES_GCM_256_SHA512"
	default:
		return "unknown"
	}
}

// Config is the immutable parameter record for one cipher suite.
type Config struct {
	Variant   Variant
	Algorithm Algorithm
	HKDFHash  func() hash.Hash
	// NK is the AEAD encryption key length in bytes.
	NK int
	// NN is the nonce length in bytes; fixed at 12 for every suite.
	NN int
	// NT is the truncated authentication tag length in bytes.
	NT int
}

var configs = map[Variant]Config{
	AES_CM_128_HMAC_SHA256_4: {Variant: AES_CM_128_HMAC_SHA256_4, Algorithm: AESCTR, HKDFHash: sha256.New, NK: 16, NN: 12, NT: 4},
	AES_CM_128_HMAC_SHA256_8: {Variant: AES_CM_128_HMAC_SHA256_8, Algorithm: AESCTR, HKDFHash: sha256.New, NK: 16, NN: 12, NT: 8},
	AES_GCM_128_SHA256:       {Variant: AES_GCM_128_SHA256, Algorithm: AESGCM, HKDFHash: sha256.New, NK: 16, NN: 12, NT: 8},
	AES_GCM_256_SHA512:       {Variant: AES_GCM_256_SHA512, Algorithm: AESGCM, HKDFHash: sha512.New, NK: 32, NN: 12, NT: 16},
}

// ConfigFor looks up the fixed parameter record for a variant.
func ConfigFor(v Variant) (Config, error) {
	cfg, ok := configs[v]
	if !ok {
		return Config{}, fmt.Errorf("suite: unknown cipher suite variant %d", v)
	}
	return cfg, nil
}

// hkdfSaltLiteral is the ASCII domain-separation salt every SFrame key
// derivation uses; it must never change (spec §6).
var hkdfSaltLiteral = []byte("SFrame10")

const (
	infoKey  = "key"
	infoSalt = "salt"
	infoAuth = "auth"
)

// Instance is a cipher suite with its key material derived once from raw
// input keying material. It is immutable after construction and safe for
// concurrent read-only use (encrypt/decrypt never mutate it).
type Instance struct {
	Config Config
	// BaseKey is the raw input keying material this instance was derived
	// from, retained only for the DeriveEncryptionKeyBitsPrefix/
	// DeriveSaltBitsPrefix diagnostics spec §4.3 point 3 calls for.
	BaseKey       []byte
	EncryptionKey []byte
	SaltKey       [12]byte
	AuthKey       []byte
}

// DeriveInstance runs the HKDF key schedule for variant over rawKey.
func DeriveInstance(variant Variant, rawKey []byte) (*Instance, error) {
	cfg, err := ConfigFor(variant)
	if err != nil {
		return nil, err
	}
	if len(rawKey) == 0 {
		return nil, fmt.Errorf("suite: raw key material must not be empty")
	}

	encKey, err := expand(cfg.HKDFHash, rawKey, infoKey, cfg.NK)
	if err != nil {
		return nil, fmt.Errorf("suite: derive encryption key: %w", err)
	}
	saltBytes, err := expand(cfg.HKDFHash, rawKey, infoSalt, 12)
	if err != nil {
		return nil, fmt.Errorf("suite: derive salt: %w", err)
	}
	// The auth key derivation always runs HKDF over SHA-256, regardless of
	// the suite's own HKDF hash, because the authentication tag itself is
	// always HMAC-SHA-256 (spec §4.3 point 2, "auth" row).
	authKey, err := expand(sha256.New, rawKey, infoAuth, cfg.NK)
	if err != nil {
		return nil, fmt.Errorf("suite: derive auth key: %w", err)
	}

	inst := &Instance{
		Config:        cfg,
		BaseKey:       append([]byte(nil), rawKey...),
		EncryptionKey: encKey,
		AuthKey:       authKey,
	}
	copy(inst.SaltKey[:], saltBytes)
	return inst, nil
}

func expand(hashFn func() hash.Hash, secret []byte, info string, size int) ([]byte, error) {
	r := hkdf.New(hashFn, secret, hkdfSaltLiteral, []byte(info))
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeriveEncryptionKeyBitsPrefix re-derives the encryption key from BaseKey
// and returns its leading n bytes, for interop diagnostics that compare a
// short prefix instead of the full key (spec §4.3 point 3).
func (i *Instance) DeriveEncryptionKeyBitsPrefix(n int) ([]byte, error) {
	full, err := expand(i.Config.HKDFHash, i.BaseKey, infoKey, i.Config.NK)
	if err != nil {
		return nil, err
	}
	if n > len(full) {
		n = len(full)
	}
	return full[:n], nil
}

// DeriveSaltBitsPrefix re-derives the salt from BaseKey and returns its
// leading n bytes, mirroring DeriveEncryptionKeyBitsPrefix.
func (i *Instance) DeriveSaltBitsPrefix(n int) ([]byte, error) {
	full, err := expand(i.Config.HKDFHash, i.BaseKey, infoSalt, 12)
	if err != nil {
		return nil, err
	}
	if n > len(full) {
		n = len(full)
	}
	return full[:n], nil
}
