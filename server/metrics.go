package server

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Metrics counts gateway traffic. All counters are monotonic for the process
// lifetime.
type Metrics struct {
	Connections      atomic.Int64
	EventsInbound    atomic.Int64
	EventsBroadcast  atomic.Int64
	MutationsDropped atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Connections      int64
	EventsInbound    int64
	EventsBroadcast  int64
	MutationsDropped int64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Connections:      m.Connections.Load(),
		EventsInbound:    m.EventsInbound.Load(),
		EventsBroadcast:  m.EventsBroadcast.Load(),
		MutationsDropped: m.MutationsDropped.Load(),
	}
}

// MetricsObserver receives counter snapshots.
type MetricsObserver interface {
	ObserveMetrics(snapshot MetricsSnapshot)
}

// MetricsLogger logs counter snapshots.
type MetricsLogger struct {
	logger *zap.Logger
}

// NewMetricsLogger returns an observer that logs gateway counters.
func NewMetricsLogger(l *zap.Logger) *MetricsLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &MetricsLogger{logger: l}
}

func (m *MetricsLogger) ObserveMetrics(snapshot MetricsSnapshot) {
	if m == nil || m.logger == nil {
		return
	}
	m.logger.Info("gateway metrics",
		zap.Int64("connections", snapshot.Connections),
		zap.Int64("events_in", snapshot.EventsInbound),
		zap.Int64("events_broadcast", snapshot.EventsBroadcast),
		zap.Int64("mutations_dropped", snapshot.MutationsDropped),
	)
}
