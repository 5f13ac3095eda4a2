package sframe

import (
	"sync"
	"time"

	"github.com/sframe-go/sframe/internal/suite"
	"github.com/sframe-go/sframe/pkg/header"
)

// Context is the facade spec §4.7 describes: it owns one lazily-created
// Sender for outgoing frames and a keyed set of Receivers for incoming
// frames, one per distinct key id seen.
type Context struct {
	mu sync.Mutex

	logger  Logger
	metrics Metrics

	replayWindow int64
	keyTimeout   time.Duration

	sender    *Sender
	receivers map[uint64]*Receiver
}

// ContextOption configures a Context at construction time.
type ContextOption func(*Context)

// WithLogger overrides the default stderr logger.
func WithLogger(l Logger) ContextOption {
	return func(c *Context) { c.logger = l }
}

// WithMetrics overrides the default no-op metrics sink.
func WithMetrics(m Metrics) ContextOption {
	return func(c *Context) { c.metrics = m }
}

// WithReplayWindow overrides ReplayWindow for every Receiver this Context
// creates. Intended for tests that need a narrower window than production.
func WithReplayWindow(w int64) ContextOption {
	return func(c *Context) { c.replayWindow = w }
}

// WithKeyTimeout overrides KeyTimeout for every Receiver this Context
// creates. Intended for tests that need faster key retirement than
// production's default of one second.
func WithKeyTimeout(d time.Duration) ContextOption {
	return func(c *Context) { c.keyTimeout = d }
}

// NewContext constructs a Context ready to have sender and/or receiver
// keys installed.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		replayWindow: ReplayWindow,
		keyTimeout:   KeyTimeout,
		receivers:    make(map[uint64]*Receiver),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = loggerOrDefault(c.logger)
	c.metrics = metricsOrDefault(c.metrics)
	return c
}

// SetSenderEncryptionKey derives a cipher suite instance from rawKey under
// variant and installs it as the outgoing key for senderID.
func (c *Context) SetSenderEncryptionKey(senderID uint64, rawKey []byte, variant CipherSuiteVariant) error {
	inst, err := suite.DeriveInstance(variant, rawKey)
	if err != nil {
		return newError(KindInvalidKey, "failed to derive sender key", err)
	}

	c.mu.Lock()
	if c.sender == nil {
		c.sender = newSender(senderID, c.logger, c.metrics)
	} else {
		if err := c.sender.SetSenderID(senderID); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	sender := c.sender
	logger := c.logger
	c.mu.Unlock()

	sender.SetEncryptionKey(inst)
	logger.Printf("key installed for id=%d suite=%s", senderID, variant)
	return nil
}

// SetReceiverEncryptionKey derives a cipher suite instance from rawKey under
// variant and installs it into the receiver keyring for keyID, creating the
// Receiver if this is the first key seen for that id.
func (c *Context) SetReceiverEncryptionKey(keyID uint64, rawKey []byte, variant CipherSuiteVariant) error {
	inst, err := suite.DeriveInstance(variant, rawKey)
	if err != nil {
		return newError(KindInvalidKey, "failed to derive receiver key", err)
	}

	c.mu.Lock()
	r, ok := c.receivers[keyID]
	if !ok {
		r = newReceiver(keyID, c.logger, c.metrics)
		r.replayWindow = c.replayWindow
		r.keyTimeout = c.keyTimeout
		c.receivers[keyID] = r
	}
	logger := c.logger
	c.mu.Unlock()

	r.SetEncryptionKey(inst)
	logger.Printf("key installed for id=%d suite=%s", keyID, variant)
	return nil
}

// DeleteReceiver removes keyID's receiver from this Context, reporting
// whether one existed. Decrypts already in flight against that Receiver
// (holding their own pointer from a prior DecryptFrame dispatch) run to
// completion unaffected; only decrypts dispatched after the delete see
// ErrInvalidKey, per the resolved design note in SPEC_FULL.md §9.
func (c *Context) DeleteReceiver(keyID uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.receivers[keyID]
	delete(c.receivers, keyID)
	return ok
}

// CanEncrypt reports whether a sender key is installed.
func (c *Context) CanEncrypt() bool {
	c.mu.Lock()
	s := c.sender
	c.mu.Unlock()
	return s != nil && s.HasKey()
}

// CanDecrypt reports whether at least one key is installed for keyID.
func (c *Context) CanDecrypt(keyID uint64) bool {
	c.mu.Lock()
	r, ok := c.receivers[keyID]
	c.mu.Unlock()
	return ok && r.HasKey()
}

// ReadKeyID parses data's header far enough to recover the key id, without
// attempting decryption. The wire layout is [skip-region][SFrame
// header][ciphertext][tag], so the header starts after the leading
// headerLength bytes a caller may have reserved for an opaque prefix (e.g.
// a VP8/Opus payload header); headerLength bytes are skipped before
// parsing. Useful for routing a frame to the right Context when several
// are multiplexed over one transport.
func (c *Context) ReadKeyID(data []byte, headerLength int) (uint64, error) {
	hdr, err := header.Parse(data[headerLength:])
	if err != nil {
		return 0, newError(KindInvalidHeaderKey, "failed to parse frame header", err)
	}
	return hdr.KeyID, nil
}

// EncryptFrame encrypts data using this Context's sender, leaving the
// first headerLength bytes of the output equal to data's first
// headerLength bytes.
func (c *Context) EncryptFrame(data []byte, headerLength int) ([]byte, error) {
	c.mu.Lock()
	s := c.sender
	c.mu.Unlock()

	if s == nil {
		return nil, newError(KindInvalidKey, "no sender key installed on context", nil)
	}
	return s.Encrypt(data, headerLength)
}

// DecryptFrame parses data's header, routes to the Receiver matching its
// key id, and decrypts. headerLength bytes at the front of data are an
// opaque prefix the SFrame header follows, and are copied back in clear
// on success.
func (c *Context) DecryptFrame(data []byte, headerLength int) ([]byte, error) {
	hdr, err := header.Parse(data[headerLength:])
	if err != nil {
		return nil, newError(KindInvalidHeaderKey, "failed to parse frame header", err)
	}

	c.mu.Lock()
	r, ok := c.receivers[hdr.KeyID]
	c.mu.Unlock()

	if !ok {
		return nil, newError(KindInvalidKey, "no receiver installed for frame key id", nil)
	}
	return r.Decrypt(hdr, data, headerLength)
}
