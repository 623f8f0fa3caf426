package forward

import "errors"

var (
	// ErrInvalidState indicates an operation invoked outside the state
	// it is valid in, e.g. UpdateState before BeginTimeIteration.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotComputed indicates a request for a derived quantity that the
	// last UpdateState did not produce, e.g. ancestry proportions for a
	// child with zero offspring size.
	ErrNotComputed = errors.New("not computed")
)
