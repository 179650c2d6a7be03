package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"

	"github.com/arcflux/eventstore/pkg/observability"
	"github.com/arcflux/eventstore/pkg/store"
	"github.com/arcflux/eventstore/pkg/store/memory"
)

func newTestMetrics(t *testing.T) *observability.Metrics {
	t.Helper()
	meter := noopmetric.NewMeterProvider().Meter("test")
	metrics, err := observability.NewMetrics(meter)
	require.NoError(t, err)
	return metrics
}

func TestRecorderMiddleware_WrapInsertRecordsSuccess(t *testing.T) {
	ctx := context.Background()
	recorder := memory.New()
	mw := observability.NewRecorderMiddleware(newTestMetrics(t), "memory")

	records := []store.Record{{AggregateID: uuid.New(), Version: 1, Topic: "a", Timestamp: time.Now()}}
	err := mw.WrapInsert(ctx, len(records), func() error {
		return recorder.Insert(ctx, records)
	})
	require.NoError(t, err)

	stored, err := recorder.Select(ctx, records[0].AggregateID, store.SelectOptions{})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRecorderMiddleware_WrapInsertRecordsFailure(t *testing.T) {
	ctx := context.Background()
	mw := observability.NewRecorderMiddleware(newTestMetrics(t), "memory")
	wantErr := errors.New("boom")

	err := mw.WrapInsert(ctx, 1, func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestRecorderMiddleware_WrapSelect(t *testing.T) {
	ctx := context.Background()
	mw := observability.NewRecorderMiddleware(newTestMetrics(t), "memory")
	called := false
	err := mw.WrapSelect(ctx, func() error { called = true; return nil })
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRepositoryMiddleware_WrapGet(t *testing.T) {
	ctx := context.Background()
	mw := observability.NewRepositoryMiddleware(newTestMetrics(t))

	called := false
	err := mw.WrapGet(ctx, "bankaccount.account.v1", true, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
