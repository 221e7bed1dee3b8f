package broker

import "errors"

// Domain errors for the broker client.
var (
	// ErrStartFailed is returned when the broker connection cannot be established.
	ErrStartFailed = errors.New("broker: start failed")

	// ErrDiscoveryFailed is returned when publishing or removing discovery fails.
	ErrDiscoveryFailed = errors.New("broker: discovery failed")

	// ErrInvalidOptions is returned when the client options are incomplete.
	ErrInvalidOptions = errors.New("broker: invalid options")
)
