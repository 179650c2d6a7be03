// Package domain holds the aggregate/event model: the versioned aggregate
// root, its pending-events buffer, and the event application protocol.
// Concrete aggregate business logic (e.g. the bank-account example) lives
// outside this package; domain only defines the contracts every aggregate
// and event variant must satisfy.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventPayload is the variant-specific portion of an event: everything
// except the header (aggregate id, version, timestamp), which is carried
// by Event itself and never duplicated inside the payload.
//
// Payload implementations additionally implement Mutator (ordinary events)
// or Creator (the aggregate's creation event) so that applying an event
// knows how to route it; see Apply.
type EventPayload interface {
	// Topic returns the stable, reversible class name used to recover the
	// concrete payload type on read. See pkg/topic.
	Topic() string
}

// Mutator is implemented by event payloads that mutate an already-existing
// aggregate (every variant except the creation event).
type Mutator interface {
	EventPayload
	ApplyTo(agg Aggregate) error
}

// Creator is implemented by an aggregate's creation event payload. Applying
// it instantiates the aggregate rather than mutating one that already
// exists.
type Creator interface {
	EventPayload
	NewAggregate(id uuid.UUID) (Aggregate, error)
}

// Event is the immutable, in-memory representation of a single recorded
// state transition. The triple (AggregateID, Version) identifies it
// uniquely once persisted.
type Event struct {
	AggregateID uuid.UUID
	Version     uint64
	Timestamp   time.Time
	Payload     EventPayload
}

// Apply performs the canonical mutation protocol against an
// already-constructed aggregate:
//  1. assert event.Version == aggregate.Version()+1
//  2. advance the aggregate's version and modified-on timestamp
//  3. invoke the variant-specific state transformation, if any
//
// The creation event is special-cased by callers (see store.Repository):
// NewAggregate already performed the state transformation, so Apply is
// still called for its version bookkeeping but the payload will not also
// implement Mutator.
func Apply(agg Aggregate, event Event) error {
	if err := agg.Advance(event.Version, event.Timestamp); err != nil {
		return err
	}
	if m, ok := event.Payload.(Mutator); ok {
		return m.ApplyTo(agg)
	}
	return nil
}

// SnapshotPayload is carried by the special snapshot event: a whole
// aggregate state dump plus the topic of the aggregate's own class, so
// that replay can reconstruct the right concrete type. Snapshots live in a
// parallel store (see store.SnapshotStore) and are never interleaved with
// an aggregate's ordinary event stream.
type SnapshotPayload interface {
	EventPayload
	// AggregateTopic is the topic of the aggregate class this snapshot
	// captures, used to look up the restorer in pkg/topic.
	AggregateTopic() string
}
