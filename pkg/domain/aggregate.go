package domain

import (
	"time"

	"github.com/google/uuid"
)

// Aggregate is the interface the core treats every aggregate uniformly
// through. Concrete aggregates embed AggregateRoot, which supplies all of
// these methods by promotion.
type Aggregate interface {
	// AggregateID returns the aggregate's identity.
	AggregateID() uuid.UUID

	// AggregateVersion returns the current version; 0 before the creation
	// event has been applied.
	AggregateVersion() uint64

	// CreatedOn returns the timestamp of the creation event.
	CreatedOn() time.Time

	// ModifiedOn returns the timestamp of the most recently applied event.
	ModifiedOn() time.Time

	// Advance performs the generic mutation-protocol bookkeeping shared by
	// every event variant: it asserts version is the current version + 1,
	// then advances version and modified-on. Concrete event payloads call
	// this indirectly through Apply; they never need to implement it
	// themselves.
	Advance(version uint64, timestamp time.Time) error

	// PendingEvents returns events emitted by command methods but not yet
	// persisted.
	PendingEvents() []Event

	// ClearPendingEvents empties the pending buffer. Called exclusively by
	// the save path after a successful append.
	ClearPendingEvents()
}

// AggregateRoot provides the base bookkeeping every aggregate needs:
// identity, version, timestamps, and the pending-events buffer. Concrete
// aggregates embed it and add their own state plus command methods.
type AggregateRoot struct {
	id         uuid.UUID
	version    uint64
	createdOn  time.Time
	modifiedOn time.Time
	pending    []Event
}

// NewAggregateRoot returns a zero-version root for id. Concrete aggregate
// factories embed this in the struct built by their Creator event's
// NewAggregate method.
func NewAggregateRoot(id uuid.UUID) AggregateRoot {
	return AggregateRoot{id: id}
}

func (r *AggregateRoot) AggregateID() uuid.UUID   { return r.id }
func (r *AggregateRoot) AggregateVersion() uint64 { return r.version }
func (r *AggregateRoot) CreatedOn() time.Time     { return r.createdOn }
func (r *AggregateRoot) ModifiedOn() time.Time    { return r.modifiedOn }

// Advance implements the version-increment check shared by every event
// variant except snapshot restoration, which seeds the root directly via
// Seed instead.
func (r *AggregateRoot) Advance(version uint64, timestamp time.Time) error {
	if version != r.version+1 {
		return &VersionError{AggregateID: r.id.String(), Expected: r.version + 1, Actual: version}
	}
	if r.version == 0 {
		r.createdOn = timestamp
	}
	r.version = version
	r.modifiedOn = timestamp
	return nil
}

// Seed sets the root's version and timestamps directly, bypassing the
// version-increment check. Used exclusively when restoring from a
// snapshot, which shares the (aggregate id, version) identity of an
// ordinary event but replaces the replay accumulator outright rather than
// incrementing it.
func (r *AggregateRoot) Seed(version uint64, createdOn, modifiedOn time.Time) {
	r.version = version
	r.createdOn = createdOn
	r.modifiedOn = modifiedOn
}

// PendingEvents returns the buffer of events emitted since the last save.
func (r *AggregateRoot) PendingEvents() []Event {
	return r.pending
}

// ClearPendingEvents empties the pending buffer after a successful save.
func (r *AggregateRoot) ClearPendingEvents() {
	r.pending = nil
}

// Buffer appends an already-applied event to the pending buffer. Command
// methods call domain.Apply(agg, event) first — which performs the version
// check and the variant-specific mutation — and only buffer the event once
// that succeeds, so a failed command never leaves a partially-constructed
// event in the buffer.
func (r *AggregateRoot) Buffer(event Event) {
	r.pending = append(r.pending, event)
}

// NextVersion returns the version the next emitted event must carry.
func (r *AggregateRoot) NextVersion() uint64 {
	return r.version + 1
}
