package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments the recorder and repository layers emit
// through. Ambient only: nothing in the core reads these back to decide
// correctness.
type Metrics struct {
	RecorderInsertDuration metric.Float64Histogram
	RecorderInsertTotal    metric.Int64Counter
	RecorderInsertErrors   metric.Int64Counter
	RecorderSelectDuration metric.Float64Histogram

	RepositoryReplayDuration metric.Float64Histogram
	RepositoryLoads          metric.Int64Counter
	SnapshotHits             metric.Int64Counter
	SnapshotMisses           metric.Int64Counter
}

// NewMetrics creates all metric instruments from meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.RecorderInsertDuration, err = meter.Float64Histogram(
		"eventstore.recorder.insert.duration",
		metric.WithDescription("Recorder insert duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating recorder.insert.duration: %w", err)
	}

	m.RecorderInsertTotal, err = meter.Int64Counter(
		"eventstore.recorder.insert.total",
		metric.WithDescription("Total records inserted"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating recorder.insert.total: %w", err)
	}

	m.RecorderInsertErrors, err = meter.Int64Counter(
		"eventstore.recorder.insert.errors",
		metric.WithDescription("Total insert batches rejected"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating recorder.insert.errors: %w", err)
	}

	m.RecorderSelectDuration, err = meter.Float64Histogram(
		"eventstore.recorder.select.duration",
		metric.WithDescription("Recorder select duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating recorder.select.duration: %w", err)
	}

	m.RepositoryReplayDuration, err = meter.Float64Histogram(
		"eventstore.repository.replay.duration",
		metric.WithDescription("Time spent folding events into an aggregate"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository.replay.duration: %w", err)
	}

	m.RepositoryLoads, err = meter.Int64Counter(
		"eventstore.repository.loads",
		metric.WithDescription("Total repository.Get calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository.loads: %w", err)
	}

	m.SnapshotHits, err = meter.Int64Counter(
		"eventstore.snapshot.hits",
		metric.WithDescription("Replays seeded by a snapshot"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot.hits: %w", err)
	}

	m.SnapshotMisses, err = meter.Int64Counter(
		"eventstore.snapshot.misses",
		metric.WithDescription("Replays with no applicable snapshot"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot.misses: %w", err)
	}

	return m, nil
}

// RecordInsert records one recorder.Insert call.
func (m *Metrics) RecordInsert(ctx context.Context, backend string, count int, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{attribute.String("backend", backend)}
	m.RecorderInsertDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	if err != nil {
		m.RecorderInsertErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
		return
	}
	m.RecorderInsertTotal.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordSelect records one recorder.Select call.
func (m *Metrics) RecordSelect(ctx context.Context, backend string, duration time.Duration) {
	attrs := []attribute.KeyValue{attribute.String("backend", backend)}
	m.RecorderSelectDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordReplay records one repository.Get call.
func (m *Metrics) RecordReplay(ctx context.Context, aggregateType string, duration time.Duration, snapshotUsed bool) {
	attrs := []attribute.KeyValue{attribute.String("aggregate_type", aggregateType)}
	m.RepositoryReplayDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.RepositoryLoads.Add(ctx, 1, metric.WithAttributes(attrs...))
	if snapshotUsed {
		m.SnapshotHits.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		m.SnapshotMisses.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
