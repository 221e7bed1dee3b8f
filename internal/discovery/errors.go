package discovery

import "errors"

// Domain-specific errors for discovery metadata.
var (
	// ErrMissingKind is returned when a discovery topic is built without a component kind.
	ErrMissingKind = errors.New("discovery: component kind is required")

	// ErrMissingObjectID is returned when a discovery topic is built without an object id.
	ErrMissingObjectID = errors.New("discovery: object id is required")

	// ErrInvalidRecord is returned when a record table violates the registry invariants.
	ErrInvalidRecord = errors.New("discovery: invalid record definition")
)
