package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/arcflux/eventstore/pkg/domain"
	"github.com/arcflux/eventstore/pkg/mapper"
)

// EventStore bridges the in-memory domain.Event model to a Recorder's
// opaque byte records, running every payload through a Mapper on the way
// in and out (component E).
type EventStore struct {
	mapper   *mapper.Mapper
	recorder Recorder
}

// NewEventStore builds an EventStore over recorder, encoding and decoding
// payloads with mapper. recorder may additionally satisfy
// ApplicationRecorder; callers that need notification support type-assert
// for it separately.
func NewEventStore(m *mapper.Mapper, recorder Recorder) *EventStore {
	return &EventStore{mapper: m, recorder: recorder}
}

// Put encodes and appends events atomically. All events are assumed to
// belong to a single save operation; the recorder enforces that their
// (aggregate id, version) pairs do not collide with anything already
// stored.
func (s *EventStore) Put(ctx context.Context, events []domain.Event) error {
	records := make([]Record, len(events))
	for i, event := range events {
		payload, err := s.mapper.Encode(event.Payload)
		if err != nil {
			return err
		}
		records[i] = Record{
			AggregateID: event.AggregateID,
			Version:     event.Version,
			Topic:       event.Payload.Topic(),
			Timestamp:   event.Timestamp,
			Payload:     payload,
		}
	}
	return s.recorder.Insert(ctx, records)
}

// Get returns the events stored for aggregateID under opts, decoded and
// ordered the way the underlying recorder returns them.
func (s *EventStore) Get(ctx context.Context, aggregateID uuid.UUID, opts SelectOptions) ([]domain.Event, error) {
	records, err := s.recorder.Select(ctx, aggregateID, opts)
	if err != nil {
		return nil, err
	}

	events := make([]domain.Event, len(records))
	for i, rec := range records {
		payload, err := s.mapper.Decode(rec.Topic, rec.Payload)
		if err != nil {
			return nil, err
		}
		events[i] = domain.Event{
			AggregateID: rec.AggregateID,
			Version:     rec.Version,
			Timestamp:   rec.Timestamp,
			Payload:     payload,
		}
	}
	return events, nil
}

// Close releases the underlying recorder's resources.
func (s *EventStore) Close() error {
	return s.recorder.Close()
}
