// Package memory implements the in-memory reference recorder backend: a
// single mutex around a record slice plus a secondary
// aggregate-id -> version -> index map for O(1) lookup of version ranges,
// exactly as the spec's backend contract describes.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/arcflux/eventstore/pkg/domain"
	"github.com/arcflux/eventstore/pkg/store"
)

// Recorder is the plain in-memory aggregate recorder (component C), with
// no notification index. Used by the parallel snapshot store, which has no
// need for a process-wide total order. Zero value is not usable; construct
// with New.
type Recorder struct {
	mu      sync.Mutex
	records []store.Record
	index   map[uuid.UUID]map[uint64]int // aggregate id -> version -> index in records
}

// New returns an empty in-memory Recorder.
func New() *Recorder {
	return &Recorder{
		index: make(map[uuid.UUID]map[uint64]int),
	}
}

func (r *Recorder) Insert(_ context.Context, records []store.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(records, nil)
}

// insertLocked performs the uniqueness check and append while holding mu.
// assign, if non-nil, is called once per record in commit order so callers
// (ApplicationRecorder) can attach a notification id atomically with the
// insert.
func (r *Recorder) insertLocked(records []store.Record, assign func(*store.Record)) error {
	for _, rec := range records {
		if byVersion, ok := r.index[rec.AggregateID]; ok {
			if _, exists := byVersion[rec.Version]; exists {
				return &domain.IntegrityError{AggregateID: rec.AggregateID.String(), Version: rec.Version}
			}
		}
	}

	// Batch is valid; commit all at once so nothing is partially visible.
	for _, rec := range records {
		if assign != nil {
			assign(&rec)
		}
		idx := len(r.records)
		r.records = append(r.records, rec)
		byVersion, ok := r.index[rec.AggregateID]
		if !ok {
			byVersion = make(map[uint64]int)
			r.index[rec.AggregateID] = byVersion
		}
		byVersion[rec.Version] = idx
	}
	return nil
}

func (r *Recorder) Select(_ context.Context, aggregateID uuid.UUID, opts store.SelectOptions) ([]store.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byVersion, ok := r.index[aggregateID]
	if !ok {
		return nil, nil
	}

	versions := make([]uint64, 0, len(byVersion))
	for v := range byVersion {
		if opts.Gt != nil && v <= *opts.Gt {
			continue
		}
		if opts.Lte != nil && v > *opts.Lte {
			continue
		}
		versions = append(versions, v)
	}

	if opts.Desc {
		sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })
	} else {
		sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	}

	if opts.Limit > 0 && len(versions) > opts.Limit {
		versions = versions[:opts.Limit]
	}

	out := make([]store.Record, len(versions))
	for i, v := range versions {
		out[i] = r.records[byVersion[v]]
	}
	return out, nil
}

func (r *Recorder) Close() error { return nil }

var _ store.Recorder = (*Recorder)(nil)

// ApplicationRecorder extends Recorder with a process-wide dense monotone
// notification index (component D). The notification list has its own
// mutex; Insert holds both that mutex and the inner Recorder's mutex, so
// records and their notification ids become visible together.
type ApplicationRecorder struct {
	inner            *Recorder
	mu               sync.Mutex
	notifications    []store.Notification
	nextNotification uint64
}

// NewApplicationRecorder returns an empty in-memory ApplicationRecorder.
func NewApplicationRecorder() *ApplicationRecorder {
	return &ApplicationRecorder{inner: New()}
}

func (a *ApplicationRecorder) Insert(_ context.Context, records []store.Record) error {
	a.inner.mu.Lock()
	defer a.inner.mu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()

	assigned := make([]store.Notification, 0, len(records))
	nextID := a.nextNotification + 1

	err := a.inner.insertLocked(records, func(rec *store.Record) {
		assigned = append(assigned, store.Notification{ID: nextID + uint64(len(assigned)), Record: *rec})
	})
	if err != nil {
		return err
	}

	a.notifications = append(a.notifications, assigned...)
	a.nextNotification += uint64(len(assigned))
	return nil
}

func (a *ApplicationRecorder) Select(ctx context.Context, aggregateID uuid.UUID, opts store.SelectOptions) ([]store.Record, error) {
	return a.inner.Select(ctx, aggregateID, opts)
}

func (a *ApplicationRecorder) SelectNotifications(_ context.Context, start uint64, limit int) ([]store.Notification, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]store.Notification, 0, limit)
	for _, n := range a.notifications {
		if n.ID < start {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (a *ApplicationRecorder) MaxNotificationID(_ context.Context) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nextNotification, nil
}

func (a *ApplicationRecorder) Close() error { return a.inner.Close() }

var _ store.ApplicationRecorder = (*ApplicationRecorder)(nil)
