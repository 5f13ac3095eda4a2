package sframe

import (
	"sync"

	"github.com/sframe-go/sframe/internal/suite"
	"github.com/sframe-go/sframe/pkg/framecrypto"
	"github.com/sframe-go/sframe/pkg/header"
)

// Sender owns one monotonic frame counter and the single active encryption
// key for one sender identity, per spec §3/§4.5.
type Sender struct {
	mu sync.Mutex

	senderID  uint64
	counter   uint64
	exhausted bool
	key       *suite.Instance

	logger  Logger
	metrics Metrics
}

// newSender constructs a Sender with the given identity. senderID is not
// range-checked here; every uint64 value is within header.MaxKeyID.
func newSender(senderID uint64, logger Logger, metrics Metrics) *Sender {
	return &Sender{
		senderID: senderID,
		logger:   loggerOrDefault(logger),
		metrics:  metricsOrDefault(metrics),
	}
}

// SetSenderID replaces the sender identity without resetting the counter;
// the counter is a property of this Sender's lifetime, not of its id.
func (s *Sender) SetSenderID(id uint64) error {
	if id > header.MaxKeyID {
		return newError(KindInvalidHeaderKey, "sender id out of range", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.senderID = id
	return nil
}

// SetEncryptionKey replaces the active cipher suite instance.
func (s *Sender) SetEncryptionKey(key *suite.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
}

// Encrypt implements spec §4.5 encrypt. The returned slice has plaintext's
// leading skip bytes copied back in, in the clear, as spec §4.5 step 5
// requires.
func (s *Sender) Encrypt(plaintext []byte, skip int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return nil, newError(KindInvalidKey, "no encryption key installed on sender", nil)
	}
	if s.exhausted {
		s.logger.Printf("sender %d: counter exhausted, refusing to encrypt", s.senderID)
		return nil, newError(KindEncryptionFailure, "sender counter exhausted", nil)
	}

	counter := s.counter
	if counter == header.MaxKeyID {
		// This frame still uses the last representable counter value;
		// any further call must fail rather than silently wrap to 0.
		s.exhausted = true
	} else {
		s.counter++
	}

	hdr, err := header.Generate(s.senderID, counter)
	if err != nil {
		return nil, newError(KindInvalidHeaderKey, "failed to generate header", err)
	}

	out, err := framecrypto.Encrypt(s.key, hdr, plaintext[skip:], skip)
	if err != nil {
		return nil, newError(KindEncryptionFailure, "frame encryption failed", err)
	}
	if skip > 0 {
		copy(out[:skip], plaintext[:skip])
	}

	s.metrics.FramesEncrypted(s.senderID)
	return out, nil
}

// HasKey reports whether a key is currently installed.
func (s *Sender) HasKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key != nil
}
