package model

import "errors"

// Sentinel errors for the demographic model. Callers match these with
// errors.Is; the wrapped messages name the offending deme, epoch, pulse,
// or migration.
var (
	// ErrOutOfBounds indicates a time query outside an epoch's interval.
	ErrOutOfBounds = errors.New("time out of bounds")

	// ErrIndexOutOfRange indicates a deme, epoch, pulse, or migration
	// index past the end of its sequence.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNotFound indicates a name lookup that matched no deme.
	ErrNotFound = errors.New("not found")

	// ErrInvalidModel indicates a structural invariant violation detected
	// while building or converting a graph.
	ErrInvalidModel = errors.New("invalid model")
)
