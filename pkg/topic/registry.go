// Package topic implements the topic resolver (component J): a stable
// string identifier for an event or aggregate class, resolvable back to a
// constructor on read. Each event and aggregate class registers itself
// under a topic string once, centrally, at process start; decode looks the
// string up. A topic with no registration fails with an error, never a
// panic; the mapper and the repository wrap that error as a codec error.
package topic

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arcflux/eventstore/pkg/domain"
)

// PayloadFactory builds a zero-value instance of a registered event
// payload, ready for the mapper to decode into.
type PayloadFactory func() domain.EventPayload

// AggregateRestorer rebuilds an aggregate from a snapshot's captured state
// without going through the ordinary creation event path. version and
// timestamp are the snapshot event's own header fields; the restorer uses
// them, together with any captured state inside snapshot, to seed the new
// aggregate via domain.AggregateRoot.Seed, bypassing the version-increment
// check.
type AggregateRestorer func(id uuid.UUID, version uint64, timestamp time.Time, snapshot domain.SnapshotPayload) (domain.Aggregate, error)

// Registry maps topic strings to constructors. It is safe to read
// concurrently once populated; registration is expected to happen once, at
// startup, before any encode/decode call — the same assumption the mapper
// and recorders make about configuration in general.
type Registry struct {
	payloads   map[string]PayloadFactory
	aggregates map[string]AggregateRestorer
}

// NewRegistry returns an empty topic registry.
func NewRegistry() *Registry {
	return &Registry{
		payloads:   make(map[string]PayloadFactory),
		aggregates: make(map[string]AggregateRestorer),
	}
}

// RegisterPayload associates topic with the event payload constructor.
// A duplicate registration replaces the prior entry.
func (r *Registry) RegisterPayload(topic string, factory PayloadFactory) {
	r.payloads[topic] = factory
}

// RegisterAggregate associates an aggregate-class topic with a restorer,
// used when reconstructing an aggregate from a snapshot.
func (r *Registry) RegisterAggregate(topic string, restorer AggregateRestorer) {
	r.aggregates[topic] = restorer
}

// ResolvePayload looks up the constructor for topic, failing cleanly if it
// is unknown.
func (r *Registry) ResolvePayload(topic string) (PayloadFactory, error) {
	factory, ok := r.payloads[topic]
	if !ok {
		return nil, fmt.Errorf("unregistered event topic %q", topic)
	}
	return factory, nil
}

// ResolveAggregate looks up the restorer for an aggregate-class topic,
// failing cleanly if it is unknown.
func (r *Registry) ResolveAggregate(topic string) (AggregateRestorer, error) {
	restorer, ok := r.aggregates[topic]
	if !ok {
		return nil, fmt.Errorf("unregistered aggregate topic %q", topic)
	}
	return restorer, nil
}
