package domain

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Callers distinguish failure categories with errors.Is
// against these, never by type-asserting a concrete error struct.
var (
	// ErrIntegrity marks a violation of the (aggregate id, version)
	// uniqueness constraint: something else already recorded that version.
	ErrIntegrity = errors.New("integrity violation")

	// ErrOperational marks a backend failure unrelated to the data itself:
	// a dropped connection, a timeout, a full disk.
	ErrOperational = errors.New("operational failure")

	// ErrCodec marks a failure in the serialize/compress/encrypt pipeline
	// or its inverse.
	ErrCodec = errors.New("codec failure")

	// ErrVersion marks an attempt to apply an event out of sequence.
	ErrVersion = errors.New("version mismatch")

	// ErrAggregateNotFound marks a replay request for an aggregate with no
	// recorded events.
	ErrAggregateNotFound = errors.New("aggregate not found")

	// ErrEnvironment marks a misconfiguration discovered at startup: a
	// missing registration, an invalid option combination.
	ErrEnvironment = errors.New("environment error")
)

// IntegrityError reports which (aggregate id, version) pair already exists.
type IntegrityError struct {
	AggregateID string
	Version     uint64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("aggregate %s already has an event at version %d", e.AggregateID, e.Version)
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }

// VersionError reports the version an aggregate expected next versus the
// version an event actually carried.
type VersionError struct {
	AggregateID string
	Expected    uint64
	Actual      uint64
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("aggregate %s expected version %d, got %d", e.AggregateID, e.Expected, e.Actual)
}

func (e *VersionError) Is(target error) bool { return target == ErrVersion }

// NotFoundError reports that neither a snapshot nor any event exists for
// an aggregate id.
type NotFoundError struct {
	AggregateID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("aggregate %s not found", e.AggregateID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrAggregateNotFound }

// CodecError reports which pipeline step failed and why.
type CodecError struct {
	Step string
	Err  error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec: %s: %v", e.Step, e.Err)
}

func (e *CodecError) Is(target error) bool { return target == ErrCodec }

func (e *CodecError) Unwrap() error { return e.Err }

// NewCodecError wraps err as a CodecError naming the failed pipeline step.
func NewCodecError(step string, err error) error {
	return &CodecError{Step: step, Err: err}
}
