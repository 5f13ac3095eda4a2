package sframe

import "github.com/sframe-go/sframe/internal/suite"

// CipherSuiteVariant names one of the four cipher suites spec §3 requires.
// It is a re-export of the internal suite table so that callers outside
// this module can name a variant without reaching into an internal
// package, the same way dtls re-exports its internal cipher suite IDs as
// typed constants on its public CipherSuiteID type.
type CipherSuiteVariant = suite.Variant

const (
	AES_CM_128_HMAC_SHA256_4 = suite.AES_CM_128_HMAC_SHA256_4
	AES_CM_128_HMAC_SHA256_8 = suite.AES_CM_128_HMAC_SHA256_8
	AES_GCM_128_SHA256       = suite.AES_GCM_128_SHA256
	AES_GCM_256_SHA512       = suite.AES_GCM_256_SHA512
)

// DefaultCipherSuiteVariant is used by SetSenderEncryptionKey/
// SetReceiverEncryptionKey callers that don't care which suite they get.
const DefaultCipherSuiteVariant = suite.DefaultVariant
