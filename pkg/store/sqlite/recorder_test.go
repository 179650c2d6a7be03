package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/arcflux/eventstore/pkg/domain"
	"github.com/arcflux/eventstore/pkg/store"
	"github.com/arcflux/eventstore/pkg/store/sqlite"
)

func TestRecorder(t *testing.T) {
	r, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open recorder: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	id := uuid.New()

	t.Run("InsertAndSelect", func(t *testing.T) {
		err := r.Insert(ctx, []store.Record{
			{AggregateID: id, Version: 1, Topic: "a", Timestamp: time.Now(), Payload: []byte("one")},
			{AggregateID: id, Version: 2, Topic: "b", Timestamp: time.Now(), Payload: []byte("two")},
		})
		if err != nil {
			t.Fatalf("failed to insert records: %v", err)
		}

		records, err := r.Select(ctx, id, store.SelectOptions{})
		if err != nil {
			t.Fatalf("failed to select records: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].Version != 1 || records[1].Version != 2 {
			t.Errorf("expected ascending versions 1, 2, got %d, %d", records[0].Version, records[1].Version)
		}
		if string(records[0].Payload) != "one" {
			t.Errorf("expected payload %q, got %q", "one", records[0].Payload)
		}
	})

	t.Run("DuplicateVersionRejected", func(t *testing.T) {
		err := r.Insert(ctx, []store.Record{
			{AggregateID: id, Version: 1, Topic: "a-again", Timestamp: time.Now(), Payload: []byte("dup")},
		})
		if err == nil {
			t.Fatal("expected an integrity error, got nil")
		}
		var ierr *domain.IntegrityError
		if !errors.As(err, &ierr) {
			t.Errorf("expected an IntegrityError, got %v", err)
		}
	})

	t.Run("SelectGtAndLte", func(t *testing.T) {
		id2 := uuid.New()
		if err := r.Insert(ctx, []store.Record{
			{AggregateID: id2, Version: 1, Topic: "a", Timestamp: time.Now(), Payload: []byte("1")},
			{AggregateID: id2, Version: 2, Topic: "a", Timestamp: time.Now(), Payload: []byte("2")},
			{AggregateID: id2, Version: 3, Topic: "a", Timestamp: time.Now(), Payload: []byte("3")},
		}); err != nil {
			t.Fatalf("failed to insert records: %v", err)
		}

		gt := uint64(1)
		records, err := r.Select(ctx, id2, store.SelectOptions{Gt: &gt})
		if err != nil {
			t.Fatalf("failed to select records: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records with version > 1, got %d", len(records))
		}
	})
}

func TestApplicationRecorder(t *testing.T) {
	a, err := sqlite.OpenApplicationRecorder(":memory:")
	if err != nil {
		t.Fatalf("failed to open application recorder: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	id1, id2 := uuid.New(), uuid.New()

	t.Run("NotificationIDsAreDenseAndMonotone", func(t *testing.T) {
		err := a.Insert(ctx, []store.Record{
			{AggregateID: id1, Version: 1, Topic: "a", Timestamp: time.Now(), Payload: []byte("1")},
			{AggregateID: id2, Version: 1, Topic: "b", Timestamp: time.Now(), Payload: []byte("2")},
		})
		if err != nil {
			t.Fatalf("failed to insert records: %v", err)
		}

		max, err := a.MaxNotificationID(ctx)
		if err != nil {
			t.Fatalf("failed to read max notification id: %v", err)
		}
		if max != 2 {
			t.Errorf("expected max notification id 2, got %d", max)
		}

		notifications, err := a.SelectNotifications(ctx, 1, 10)
		if err != nil {
			t.Fatalf("failed to select notifications: %v", err)
		}
		if len(notifications) != 2 {
			t.Fatalf("expected 2 notifications, got %d", len(notifications))
		}
		if notifications[0].ID != 1 || notifications[1].ID != 2 {
			t.Errorf("expected notification ids 1, 2, got %d, %d", notifications[0].ID, notifications[1].ID)
		}
	})

	t.Run("RolledBackInsertLeavesIndexDense", func(t *testing.T) {
		before, err := a.MaxNotificationID(ctx)
		if err != nil {
			t.Fatalf("failed to read max notification id: %v", err)
		}

		err = a.Insert(ctx, []store.Record{
			{AggregateID: id1, Version: 1, Topic: "a-conflict", Timestamp: time.Now(), Payload: []byte("x")},
		})
		if err == nil {
			t.Fatal("expected a conflicting insert to fail")
		}

		after, err := a.MaxNotificationID(ctx)
		if err != nil {
			t.Fatalf("failed to read max notification id: %v", err)
		}
		if after != before {
			t.Errorf("a rejected insert must not consume notification ids: before=%d after=%d", before, after)
		}
	})
}
