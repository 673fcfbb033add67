package physics

import "errors"

var (
	// ErrInvalidArgument reports a malformed run parameter, such as a
	// non-positive time step.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidInput reports initial conditions that cannot be simulated:
	// no bodies, a non-positive mass, or a body count that doesn't match the
	// bodies given.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotInitialized is returned when stepping an engine that has no
	// universe yet.
	ErrNotInitialized = errors.New("engine not initialized")
)
