package sframe

import (
	"sync"
	"time"

	"github.com/sframe-go/sframe/internal/suite"
	"github.com/sframe-go/sframe/pkg/framecrypto"
	"github.com/sframe-go/sframe/pkg/header"
)

// ReplayWindow is the tolerated backwards distance from the highest
// accepted counter within which late or duplicate frames are still
// accepted (spec §4.6).
const ReplayWindow = 128

// KeyTimeout is the delay between installing a new key on a receiver and
// the retirement of every key that predates it (spec §4.6, §9).
const KeyTimeout = 1000 * time.Millisecond

// Receiver holds one key-id's keyring, replay-window state, and delayed
// key retirement, per spec §3/§4.6.
type Receiver struct {
	mu sync.Mutex

	receiverKeyID      uint64
	maxReceivedCounter int64
	keyring            []*suite.Instance
	scheduled          map[*suite.Instance]bool

	replayWindow int64
	keyTimeout   time.Duration

	logger  Logger
	metrics Metrics
}

func newReceiver(keyID uint64, logger Logger, metrics Metrics) *Receiver {
	return &Receiver{
		receiverKeyID:      keyID,
		maxReceivedCounter: -1,
		scheduled:          make(map[*suite.Instance]bool),
		replayWindow:       ReplayWindow,
		keyTimeout:         KeyTimeout,
		logger:             loggerOrDefault(logger),
		metrics:            metricsOrDefault(metrics),
	}
}

// SetEncryptionKey installs a new cipher suite instance at the tail of the
// keyring and, if an older key already existed, schedules its (and any
// still-older key's) retirement KeyTimeout from now.
func (r *Receiver) SetEncryptionKey(inst *suite.Instance) {
	r.mu.Lock()
	hadPrevious := len(r.keyring) >= 1
	r.keyring = append(r.keyring, inst)
	alreadyScheduled := r.scheduled[inst]
	if hadPrevious && !alreadyScheduled {
		r.scheduled[inst] = true
	}
	timeout := r.keyTimeout
	r.mu.Unlock()

	r.logger.Printf("receiver %d: installed new encryption key", r.receiverKeyID)
	r.metrics.KeyRotated(r.receiverKeyID)

	if hadPrevious && !alreadyScheduled {
		time.AfterFunc(timeout, func() {
			r.retireBefore(inst)
		})
	}
}

// retireBefore drops every keyring entry strictly older than inst, once
// inst's KeyTimeout has elapsed. inst itself is never retired by this call.
func (r *Receiver) retireBefore(inst *suite.Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, k := range r.keyring {
		if k == inst {
			idx = i
			break
		}
	}
	if idx <= 0 {
		// Either already retired out from under us, or it is the oldest
		// entry already (nothing older to drop).
		return
	}

	dropped := idx
	r.keyring = r.keyring[idx:]
	r.logger.Printf("receiver %d: retired %d key(s) superseded by rotation", r.receiverKeyID, dropped)
	r.metrics.KeyRetired(r.receiverKeyID)
}

// Decrypt implements spec §4.6: replay check, keyring snapshot, first-match
// decrypt, maxReceivedCounter update.
func (r *Receiver) Decrypt(hdr header.Header, frame []byte, skip int) ([]byte, error) {
	counter := int64(hdr.Counter)

	r.mu.Lock()
	if counter < r.maxReceivedCounter && (r.maxReceivedCounter-counter) > r.replayWindow {
		r.mu.Unlock()
		r.metrics.ReplayRejected(r.receiverKeyID)
		r.logger.Printf("receiver %d: rejected frame at counter %d outside replay window", r.receiverKeyID, hdr.Counter)
		return nil, newError(KindReplayAttackError, "frame counter outside replay window", nil)
	}

	var keys []*suite.Instance
	if len(r.keyring) > 1 {
		keys = append([]*suite.Instance(nil), r.keyring...)
	} else {
		keys = r.keyring
	}
	r.mu.Unlock()

	if len(keys) == 0 {
		return nil, newError(KindInvalidKey, "receiver has no keys installed", nil)
	}

	for _, k := range keys {
		plaintext, err := framecrypto.Decrypt(k, hdr, frame, skip)
		if err != nil {
			continue
		}

		r.mu.Lock()
		if counter > r.maxReceivedCounter {
			r.maxReceivedCounter = counter
		}
		r.mu.Unlock()

		out := make([]byte, skip+len(plaintext))
		copy(out[:skip], frame[:skip])
		copy(out[skip:], plaintext)

		r.metrics.FramesDecrypted(r.receiverKeyID)
		return out, nil
	}

	r.metrics.AuthFailed(r.receiverKeyID)
	r.logger.Printf("receiver %d: every key in keyring failed to decrypt frame at counter %d", r.receiverKeyID, hdr.Counter)
	return nil, newError(KindDecryptionFailure, "no key in keyring could decrypt frame", nil)
}

// HasKey reports whether at least one key is installed.
func (r *Receiver) HasKey() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keyring) > 0
}
