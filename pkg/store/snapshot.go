package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/arcflux/eventstore/pkg/domain"
	"github.com/arcflux/eventstore/pkg/mapper"
)

// SnapshotStore persists snapshot events in a recorder parallel to, and
// never interleaved with, an aggregate's primary event stream (component
// H). It shares the (aggregate id, version) identity of the live stream it
// accelerates but lives in its own Recorder entirely, since snapshots need
// no notification index of their own.
type SnapshotStore struct {
	mapper   *mapper.Mapper
	recorder Recorder
}

// NewSnapshotStore builds a SnapshotStore over recorder.
func NewSnapshotStore(m *mapper.Mapper, recorder Recorder) *SnapshotStore {
	return &SnapshotStore{mapper: m, recorder: recorder}
}

// Put records a snapshot of an aggregate at version, stamped with timestamp.
func (s *SnapshotStore) Put(ctx context.Context, aggregateID uuid.UUID, version uint64, timestamp time.Time, payload domain.SnapshotPayload) error {
	data, err := s.mapper.Encode(payload)
	if err != nil {
		return err
	}
	record := Record{
		AggregateID: aggregateID,
		Version:     version,
		Topic:       payload.Topic(),
		Timestamp:   timestamp,
		Payload:     data,
	}
	return s.recorder.Insert(ctx, []Record{record})
}

// Latest returns the most recent snapshot for aggregateID at or before
// maxVersion (nil means unbounded), or nil if no snapshot exists.
func (s *SnapshotStore) Latest(ctx context.Context, aggregateID uuid.UUID, maxVersion *uint64) (*domain.Event, error) {
	opts := SelectOptions{Desc: true, Limit: 1, Lte: maxVersion}
	records, err := s.recorder.Select(ctx, aggregateID, opts)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	rec := records[0]
	payload, err := s.mapper.Decode(rec.Topic, rec.Payload)
	if err != nil {
		return nil, err
	}

	return &domain.Event{
		AggregateID: rec.AggregateID,
		Version:     rec.Version,
		Timestamp:   rec.Timestamp,
		Payload:     payload,
	}, nil
}

// Close releases the underlying recorder's resources.
func (s *SnapshotStore) Close() error {
	return s.recorder.Close()
}
