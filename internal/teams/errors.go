package teams

import "errors"

// Domain-specific errors for the conferencing API client.
var (
	// ErrConnectionFailed is returned when the websocket handshake fails.
	ErrConnectionFailed = errors.New("teams: connection failed")

	// ErrSendFailed is returned when a command frame cannot be written.
	ErrSendFailed = errors.New("teams: send failed")

	// ErrClientClosed is returned when connecting a client that has been closed.
	ErrClientClosed = errors.New("teams: client closed")

	// ErrInvalidOptions is returned by NewClient for unusable options.
	ErrInvalidOptions = errors.New("teams: invalid options")
)
