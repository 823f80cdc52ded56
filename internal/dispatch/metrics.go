package dispatch

import (
	"sync/atomic"
	"time"
)

// Metrics counts what the dispatcher has processed. Counters are updated by
// the dispatcher goroutine and may be read from anywhere.
type Metrics struct {
	diagnostics atomic.Uint64
	inbound     atomic.Uint64
	outbound    atomic.Uint64
	updates     atomic.Uint64
	astDumps    atomic.Uint64
	replies     atomic.Uint64
	unknown     atomic.Uint64
	malformed   atomic.Uint64
	violations  atomic.Uint64
	writeErrors atomic.Uint64

	handleTotalNs atomic.Int64
	handleMaxNs   atomic.Int64

	startTime time.Time
}

// NewMetrics creates an empty metrics set.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// recordHandle records how long one event took to handle.
func (m *Metrics) recordHandle(d time.Duration) {
	ns := d.Nanoseconds()
	m.handleTotalNs.Add(ns)
	for {
		old := m.handleMaxNs.Load()
		if ns <= old || m.handleMaxNs.CompareAndSwap(old, ns) {
			return
		}
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Diagnostics        uint64
	Inbound            uint64
	Outbound           uint64
	Updates            uint64
	AstDumps           uint64
	Replies            uint64
	Unknown            uint64
	Malformed          uint64
	ProtocolViolations uint64
	WriteErrors        uint64

	AvgHandle time.Duration
	MaxHandle time.Duration
	Uptime    time.Duration
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Diagnostics:        m.diagnostics.Load(),
		Inbound:            m.inbound.Load(),
		Outbound:           m.outbound.Load(),
		Updates:            m.updates.Load(),
		AstDumps:           m.astDumps.Load(),
		Replies:            m.replies.Load(),
		Unknown:            m.unknown.Load(),
		Malformed:          m.malformed.Load(),
		ProtocolViolations: m.violations.Load(),
		WriteErrors:        m.writeErrors.Load(),
		MaxHandle:          time.Duration(m.handleMaxNs.Load()),
		Uptime:             time.Since(m.startTime),
	}
	if n := s.Diagnostics + s.Inbound + s.Outbound; n > 0 {
		s.AvgHandle = time.Duration(m.handleTotalNs.Load() / int64(n))
	}
	return s
}
