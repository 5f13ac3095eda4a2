// Package metrics wraps a prometheus.Registry around the sframe.Metrics
// interface, grounded on broker.PromMetrics/initPrometheus in the teacher
// repo: one CounterVec per event family, registered once in a constructor.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sframe"

// PromMetrics counts encrypt/decrypt/replay/rotation events, labeled by the
// sender or key id formatted as a decimal string (the same labeling
// convention broker.PromMetrics uses for country codes).
type PromMetrics struct {
	registry *prometheus.Registry

	FramesEncryptedTotal *prometheus.CounterVec
	FramesDecryptedTotal *prometheus.CounterVec
	ReplayRejectedTotal  *prometheus.CounterVec
	AuthFailedTotal      *prometheus.CounterVec
	KeyRotatedTotal      *prometheus.CounterVec
	KeyRetiredTotal      *prometheus.CounterVec
}

// New builds and registers the full counter set.
func New() *PromMetrics {
	m := &PromMetrics{registry: prometheus.NewRegistry()}

	m.FramesEncryptedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_encrypted_total",
			Help:      "The number of frames successfully encrypted, by sender id",
		},
		[]string{"id"},
	)
	m.FramesDecryptedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_decrypted_total",
			Help:      "The number of frames successfully decrypted, by key id",
		},
		[]string{"id"},
	)
	m.ReplayRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replay_rejected_total",
			Help:      "The number of frames rejected for falling outside the replay window, by key id",
		},
		[]string{"id"},
	)
	m.AuthFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failed_total",
			Help:      "The number of frames that failed authentication or AEAD decryption against every keyring entry, by key id",
		},
		[]string{"id"},
	)
	m.KeyRotatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_rotated_total",
			Help:      "The number of times a new key was installed on a receiver, by key id",
		},
		[]string{"id"},
	)
	m.KeyRetiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_retired_total",
			Help:      "The number of KeyTimeout retirements, each dropping one or more superseded keyring entries, by key id",
		},
		[]string{"id"},
	)

	m.registry.MustRegister(
		m.FramesEncryptedTotal, m.FramesDecryptedTotal,
		m.ReplayRejectedTotal, m.AuthFailedTotal,
		m.KeyRotatedTotal, m.KeyRetiredTotal,
	)

	return m
}

// Registry exposes the underlying registry for an HTTP /metrics handler.
func (m *PromMetrics) Registry() *prometheus.Registry { return m.registry }

func id(v uint64) string { return strconv.FormatUint(v, 10) }

func (m *PromMetrics) FramesEncrypted(senderID uint64) {
	m.FramesEncryptedTotal.With(prometheus.Labels{"id": id(senderID)}).Inc()
}

func (m *PromMetrics) FramesDecrypted(keyID uint64) {
	m.FramesDecryptedTotal.With(prometheus.Labels{"id": id(keyID)}).Inc()
}

func (m *PromMetrics) ReplayRejected(keyID uint64) {
	m.ReplayRejectedTotal.With(prometheus.Labels{"id": id(keyID)}).Inc()
}

func (m *PromMetrics) AuthFailed(keyID uint64) {
	m.AuthFailedTotal.With(prometheus.Labels{"id": id(keyID)}).Inc()
}

func (m *PromMetrics) KeyRotated(keyID uint64) {
	m.KeyRotatedTotal.With(prometheus.Labels{"id": id(keyID)}).Inc()
}

func (m *PromMetrics) KeyRetired(keyID uint64) {
	m.KeyRetiredTotal.With(prometheus.Labels{"id": id(keyID)}).Inc()
}
