package tokencache

import "errors"

// Domain errors for the token cache.
var (
	// ErrCorrupt is returned when the cache file cannot be decoded or authenticated.
	ErrCorrupt = errors.New("tokencache: file corrupt or written on another machine")

	// ErrNoPath is returned when no cache path is configured.
	ErrNoPath = errors.New("tokencache: path is required")
)
