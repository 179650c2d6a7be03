package store

import (
	"context"

	"github.com/google/uuid"
)

// SelectOptions bounds a Recorder.Select range query. Gt and Lte are
// pointers rather than sentinel-valued integers precisely because 0 is a
// legitimate version bound to exclude/include: a nil Gt or Lte means
// "absent", not "zero" (see spec Open Question on gt/lte=0 handling).
type SelectOptions struct {
	Gt    *uint64
	Lte   *uint64
	Desc  bool
	Limit int // 0 means unbounded
}

// Recorder is the aggregate recorder (component C): append-only storage of
// Records with per-aggregate (aggregate id, version) uniqueness and
// ordered range reads. Implementations must tolerate concurrent inserts
// across aggregates and serialize concurrent inserts that touch
// overlapping (aggregate id, version) space — exactly one such insert
// succeeds.
type Recorder interface {
	// Insert appends an ordered batch atomically. If any record in the
	// batch would violate the (aggregate id, version) uniqueness
	// constraint, the entire batch is rejected and none of it becomes
	// visible. Returns a domain.ErrIntegrity-wrapping error on conflict, a
	// domain.ErrOperational-wrapping error on backend failure.
	Insert(ctx context.Context, records []Record) error

	// Select returns the stored records for one aggregate, ordered
	// ascending by version unless opts.Desc is set, bounded by
	// version > *opts.Gt and version <= *opts.Lte when those bounds are
	// present, truncated to opts.Limit records when it is positive.
	Select(ctx context.Context, aggregateID uuid.UUID, opts SelectOptions) ([]Record, error)

	// Close releases any resources the backend holds open.
	Close() error
}

// ApplicationRecorder extends Recorder with a process-wide dense monotone
// notification index (component D). Every record in a successful Insert
// batch is assigned the next notification id, contiguous starting at 1,
// as part of the same atomic unit as the record insert.
type ApplicationRecorder interface {
	Recorder

	// SelectNotifications returns notifications with id >= start, ordered
	// ascending by id, truncated to limit when it is positive (0 means
	// unbounded).
	SelectNotifications(ctx context.Context, start uint64, limit int) ([]Notification, error)

	// MaxNotificationID returns the greatest assigned notification id, or
	// 0 if none has been assigned yet.
	MaxNotificationID(ctx context.Context) (uint64, error)
}
