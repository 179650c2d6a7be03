package observability

import (
	"context"
	"time"
)

// RecorderMiddleware times store.Recorder calls and records them through
// Metrics, the same wrap-an-operation shape the repository middleware
// below uses: the caller already holds the backend name and the operation
// itself, so the middleware only needs to measure and record.
type RecorderMiddleware struct {
	metrics *Metrics
	backend string
}

// NewRecorderMiddleware builds a RecorderMiddleware reporting as backend
// (e.g. "memory", "sqlite", "postgres").
func NewRecorderMiddleware(metrics *Metrics, backend string) *RecorderMiddleware {
	return &RecorderMiddleware{metrics: metrics, backend: backend}
}

// WrapInsert times operation and records it as a recorder insert of count
// records.
func (m *RecorderMiddleware) WrapInsert(ctx context.Context, count int, operation func() error) error {
	start := time.Now()
	err := operation()
	if m.metrics != nil {
		m.metrics.RecordInsert(ctx, m.backend, count, time.Since(start), err)
	}
	return err
}

// WrapSelect times operation and records it as a recorder select.
func (m *RecorderMiddleware) WrapSelect(ctx context.Context, operation func() error) error {
	start := time.Now()
	err := operation()
	if m.metrics != nil {
		m.metrics.RecordSelect(ctx, m.backend, time.Since(start))
	}
	return err
}

// RepositoryMiddleware times repository replays. snapshotUsed is supplied
// by the caller, which already knows whether its snapshot store produced a
// seed aggregate, rather than inferred after the fact.
type RepositoryMiddleware struct {
	metrics *Metrics
}

// NewRepositoryMiddleware builds a RepositoryMiddleware.
func NewRepositoryMiddleware(metrics *Metrics) *RepositoryMiddleware {
	return &RepositoryMiddleware{metrics: metrics}
}

// WrapGet times operation and records it as one repository replay for
// aggregateType.
func (m *RepositoryMiddleware) WrapGet(ctx context.Context, aggregateType string, snapshotUsed bool, operation func() error) error {
	start := time.Now()
	err := operation()
	if m.metrics != nil {
		m.metrics.RecordReplay(ctx, aggregateType, time.Since(start), snapshotUsed)
	}
	return err
}
