package realtime

import "errors"

// Sentinel errors for realtime connections.
var (
	// ErrMissingCredential is returned when no "Bearer <token>" credential was supplied.
	ErrMissingCredential = errors.New("realtime: missing bearer credential")

	// ErrUnauthorized is returned when the Authenticator rejects a token.
	ErrUnauthorized = errors.New("realtime: unauthorized")

	// ErrHubClosed is returned when connecting to a hub that has been closed.
	ErrHubClosed = errors.New("realtime: hub closed")

	// ErrInvalidSubject is returned for subjects with an unknown kind or non-positive ID.
	ErrInvalidSubject = errors.New("realtime: invalid subject")
)
