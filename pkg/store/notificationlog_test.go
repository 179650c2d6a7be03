package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflux/eventstore/pkg/store"
	"github.com/arcflux/eventstore/pkg/store/memory"
)

func TestNotificationLog_MalformedSectionID(t *testing.T) {
	log := store.NewNotificationLog(memory.NewApplicationRecorder(), 5)
	_, err := log.Section(context.Background(), "not-a-section-id")
	assert.Error(t, err)
}

func TestNotificationLog_EmptySectionHasNoID(t *testing.T) {
	log := store.NewNotificationLog(memory.NewApplicationRecorder(), 5)
	section, err := log.Section(context.Background(), "1,5")
	require.NoError(t, err)
	assert.Nil(t, section.ID)
	assert.Nil(t, section.NextID)
	assert.Empty(t, section.Items)
}

func TestNotificationLog_PartialSectionHasNoNextID(t *testing.T) {
	ctx := context.Background()
	recorder := memory.NewApplicationRecorder()
	id := uuid.New()
	for v := uint64(1); v <= 3; v++ {
		require.NoError(t, recorder.Insert(ctx, []store.Record{
			{AggregateID: id, Version: v, Topic: "a", Timestamp: time.Now()},
		}))
	}

	log := store.NewNotificationLog(recorder, 5)
	section, err := log.Section(ctx, "1,5")
	require.NoError(t, err)
	assert.Len(t, section.Items, 3)
	require.NotNil(t, section.ID)
	assert.Equal(t, "1,3", *section.ID)
	assert.Nil(t, section.NextID)
}
