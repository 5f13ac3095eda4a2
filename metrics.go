package sframe

// Metrics is the event sink Context reports key lifecycle and frame
// outcomes to. The default implementation (noopMetrics) discards
// everything, so the core never requires a Prometheus registry to
// function; internal/metrics.New wraps this interface around real
// prometheus.CounterVec instruments, grounded on the teacher's
// broker.Metrics/PromMetrics split.
type Metrics interface {
	FramesEncrypted(senderID uint64)
	FramesDecrypted(keyID uint64)
	ReplayRejected(keyID uint64)
	AuthFailed(keyID uint64)
	KeyRotated(keyID uint64)
	KeyRetired(keyID uint64)
}

type noopMetrics struct{}

func (noopMetrics) FramesEncrypted(uint64) {}
func (noopMetrics) FramesDecrypted(uint64) {}
func (noopMetrics) ReplayRejected(uint64)  {}
func (noopMetrics) AuthFailed(uint64)      {}
func (noopMetrics) KeyRotated(uint64)      {}
func (noopMetrics) KeyRetired(uint64)      {}

func metricsOrDefault(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
