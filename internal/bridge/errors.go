package bridge

import "errors"

// Domain errors for the bridge.
var (
	// ErrUnknownCommand is returned by Execute for an unrecognised command id.
	ErrUnknownCommand = errors.New("bridge: unknown command")

	// ErrInvalidOptions is returned when a required dependency is missing.
	ErrInvalidOptions = errors.New("bridge: invalid options")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("bridge: already started")
)
