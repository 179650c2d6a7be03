package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflux/eventstore/pkg/domain"
)

// widget is a minimal aggregate used to exercise the domain package's
// generic bookkeeping without pulling in a full worked example.
type widget struct {
	domain.AggregateRoot
	name string
}

type widgetCreated struct{ Name string }

func (e *widgetCreated) Topic() string { return "widget.created.v1" }
func (e *widgetCreated) NewAggregate(id uuid.UUID) (domain.Aggregate, error) {
	return &widget{AggregateRoot: domain.NewAggregateRoot(id), name: e.Name}, nil
}

type widgetRenamed struct{ Name string }

func (e *widgetRenamed) Topic() string { return "widget.renamed.v1" }
func (e *widgetRenamed) ApplyTo(agg domain.Aggregate) error {
	w, ok := agg.(*widget)
	if !ok {
		return fmt.Errorf("widgetRenamed applied to %T", agg)
	}
	w.name = e.Name
	return nil
}

func TestAggregateRoot_AdvanceRejectsOutOfOrderVersion(t *testing.T) {
	root := domain.NewAggregateRoot(uuid.New())
	err := root.Advance(2, time.Now())
	var verr *domain.VersionError
	require.ErrorAs(t, err, &verr)
	assert.EqualValues(t, 1, verr.Expected)
	assert.EqualValues(t, 2, verr.Actual)
	assert.ErrorIs(t, err, domain.ErrVersion)
}

func TestAggregateRoot_AdvanceSetsCreatedOnOnlyOnce(t *testing.T) {
	root := domain.NewAggregateRoot(uuid.New())
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, root.Advance(1, first))
	assert.True(t, root.CreatedOn().Equal(first))

	require.NoError(t, root.Advance(2, second))
	assert.True(t, root.CreatedOn().Equal(first))
	assert.True(t, root.ModifiedOn().Equal(second))
	assert.EqualValues(t, 2, root.AggregateVersion())
}

func TestAggregateRoot_Seed(t *testing.T) {
	root := domain.NewAggregateRoot(uuid.New())
	created := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	modified := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	root.Seed(7, created, modified)
	assert.EqualValues(t, 7, root.AggregateVersion())
	assert.True(t, root.CreatedOn().Equal(created))
	assert.True(t, root.ModifiedOn().Equal(modified))

	// Seed bypasses the increment check entirely.
	require.NoError(t, root.Advance(8, modified.Add(time.Hour)))
}

func TestAggregateRoot_BufferAndClearPendingEvents(t *testing.T) {
	root := domain.NewAggregateRoot(uuid.New())
	ev := domain.Event{AggregateID: root.AggregateID(), Version: 1}
	root.Buffer(ev)
	require.Len(t, root.PendingEvents(), 1)
	root.ClearPendingEvents()
	assert.Empty(t, root.PendingEvents())
}

func TestAggregateRoot_NextVersion(t *testing.T) {
	root := domain.NewAggregateRoot(uuid.New())
	assert.EqualValues(t, 1, root.NextVersion())
	require.NoError(t, root.Advance(1, time.Now()))
	assert.EqualValues(t, 2, root.NextVersion())
}

func TestApply_CreationEventSkipsApplyTo(t *testing.T) {
	id := uuid.New()
	created := &widgetCreated{Name: "gear"}
	agg, err := created.NewAggregate(id)
	require.NoError(t, err)

	ev := domain.Event{AggregateID: id, Version: 1, Timestamp: time.Now(), Payload: created}
	require.NoError(t, domain.Apply(agg, ev))

	w := agg.(*widget)
	assert.Equal(t, "gear", w.name)
	assert.EqualValues(t, 1, w.AggregateVersion())
}

func TestApply_MutatorDispatchesApplyTo(t *testing.T) {
	id := uuid.New()
	created := &widgetCreated{Name: "gear"}
	agg, err := created.NewAggregate(id)
	require.NoError(t, err)
	require.NoError(t, domain.Apply(agg, domain.Event{AggregateID: id, Version: 1, Timestamp: time.Now(), Payload: created}))

	renamed := &widgetRenamed{Name: "cog"}
	require.NoError(t, domain.Apply(agg, domain.Event{AggregateID: id, Version: 2, Timestamp: time.Now(), Payload: renamed}))

	w := agg.(*widget)
	assert.Equal(t, "cog", w.name)
	assert.EqualValues(t, 2, w.AggregateVersion())
}

func TestApply_VersionMismatchPropagates(t *testing.T) {
	id := uuid.New()
	created := &widgetCreated{Name: "gear"}
	agg, err := created.NewAggregate(id)
	require.NoError(t, err)

	err = domain.Apply(agg, domain.Event{AggregateID: id, Version: 5, Timestamp: time.Now(), Payload: created})
	assert.ErrorIs(t, err, domain.ErrVersion)
}

func TestIntegrityError_Is(t *testing.T) {
	err := &domain.IntegrityError{AggregateID: "abc", Version: 3}
	assert.ErrorIs(t, err, domain.ErrIntegrity)
	assert.NotErrorIs(t, err, domain.ErrVersion)
	assert.Contains(t, err.Error(), "abc")
}

func TestNotFoundError_Is(t *testing.T) {
	err := &domain.NotFoundError{AggregateID: "xyz"}
	assert.ErrorIs(t, err, domain.ErrAggregateNotFound)
}

func TestCodecError_UnwrapAndIs(t *testing.T) {
	inner := errors.New("boom")
	err := domain.NewCodecError("encrypt", inner)
	assert.ErrorIs(t, err, domain.ErrCodec)
	assert.ErrorIs(t, err, inner)

	var ce *domain.CodecError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "encrypt", ce.Step)
}
