package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Section is one page of the notification log: the items it contains
// (possibly empty), its own canonical id, and the id of the next section
// if this one was filled to the configured section size.
type Section struct {
	ID     *string
	NextID *string
	Items  []Notification
}

// NotificationLog paginates an ApplicationRecorder's notification index
// into fixed-size sections (component I).
type NotificationLog struct {
	recorder    ApplicationRecorder
	sectionSize int
}

// NewNotificationLog builds a NotificationLog over recorder with the given
// section size; sectionSize must be positive.
func NewNotificationLog(recorder ApplicationRecorder, sectionSize int) *NotificationLog {
	return &NotificationLog{recorder: recorder, sectionSize: sectionSize}
}

// Section returns the page identified by sectionID, a string of the form
// "<first>,<last>" (inclusive, 1-based). start is clamped to at least 1;
// the requested span is clamped to the configured section size. An empty
// span yields an empty section with no ids.
func (l *NotificationLog) Section(ctx context.Context, sectionID string) (*Section, error) {
	first, last, err := parseSectionID(sectionID)
	if err != nil {
		return nil, err
	}

	start := first
	if start < 1 {
		start = 1
	}
	limit := int(last - start + 1)
	if limit < 0 {
		limit = 0
	}
	if limit > l.sectionSize {
		limit = l.sectionSize
	}
	if limit == 0 {
		return &Section{}, nil
	}

	items, err := l.recorder.SelectNotifications(ctx, uint64(start), limit)
	if err != nil {
		return nil, err
	}

	section := &Section{Items: items}
	if len(items) == 0 {
		return section, nil
	}

	firstReturned := items[0].ID
	lastReturned := items[len(items)-1].ID
	id := fmt.Sprintf("%d,%d", firstReturned, lastReturned)
	section.ID = &id

	if len(items) == limit {
		nextFirst := lastReturned + 1
		nextLast := lastReturned + uint64(limit)
		next := fmt.Sprintf("%d,%d", nextFirst, nextLast)
		section.NextID = &next
	}

	return section, nil
}

func parseSectionID(id string) (first, last int64, err error) {
	parts := strings.SplitN(id, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed notification log section id %q", id)
	}
	first, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed notification log section id %q: %w", id, err)
	}
	last, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed notification log section id %q: %w", id, err)
	}
	return first, last, nil
}
