package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"ptcms/pkg/kafka"
)

// Metrics counts publish outcomes. Safe for concurrent use.
type Metrics struct {
	published     atomic.Int64
	failed        atomic.Int64
	totalDuration atomic.Int64 // nanoseconds
}

type MetricsSnapshot struct {
	Published       int64   `json:"published"`
	Failed          int64   `json:"failed"`
	AvgPublishMilli float64 `json:"avg_publish_ms"`
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	published := m.published.Load()
	failed := m.failed.Load()
	snap := MetricsSnapshot{Published: published, Failed: failed}
	if total := published + failed; total > 0 {
		snap.AvgPublishMilli = float64(time.Duration(m.totalDuration.Load()/total)) / float64(time.Millisecond)
	}
	return snap
}

func MetricsProducerMiddleware(m *Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		m.totalDuration.Add(int64(time.Since(start)))
		if err != nil {
			m.failed.Add(1)
		} else {
			m.published.Add(1)
		}

		return err
	}
}
