// Package store implements the recorder layer (components C/D), the event
// store bridge (E), the replay repository (G), snapshot machinery (H), and
// the notification log (I).
package store

import (
	"time"

	"github.com/google/uuid"
)

// Record is the opaque on-disk form of an event: aggregate id, version,
// topic string, wall-clock timestamp, and an opaque byte payload produced
// by the mapper. The triple (AggregateID, Version) is globally unique.
// Timestamp lives in its own column rather than inside Payload: it is part
// of the event's header exactly like AggregateID and Version, so it is
// stripped before encoding and re-injected on read the same way.
type Record struct {
	AggregateID uuid.UUID
	Version     uint64
	Topic       string
	Timestamp   time.Time
	Payload     []byte
}

// Notification augments a Record with the monotonically increasing,
// dense, 1-based id the application recorder assigns at insert time.
type Notification struct {
	ID uint64
	Record
}
