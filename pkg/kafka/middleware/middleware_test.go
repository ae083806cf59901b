package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"ptcms/pkg/kafka"
	"ptcms/pkg/logger"
)

func TestMetricsProducerMiddleware(t *testing.T) {
	m := NewMetrics()
	mw := MetricsProducerMiddleware(m)

	ok := func(ctx context.Context, msg kafka.Message) error { return nil }
	fail := func(ctx context.Context, msg kafka.Message) error { return errors.New("broker down") }

	_ = mw(context.Background(), kafka.Message{}, ok)
	_ = mw(context.Background(), kafka.Message{}, ok)
	if err := mw(context.Background(), kafka.Message{}, fail); err == nil {
		t.Fatal("expected error to pass through")
	}

	snap := m.Snapshot()
	if snap.Published != 2 || snap.Failed != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestLoggingProducerMiddleware_PassesThrough(t *testing.T) {
	mw := LoggingProducerMiddleware(logger.Discard())
	want := errors.New("x")
	got := mw(context.Background(), kafka.Message{Key: "1"}, func(ctx context.Context, msg kafka.Message) error { return want })
	if !errors.Is(got, want) {
		t.Errorf("got %v", got)
	}
}
