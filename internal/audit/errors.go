package audit

import "errors"

var (
	// ErrInvalidEntry is returned when an entry lacks a garden, action or subject.
	ErrInvalidEntry = errors.New("audit: invalid entry")
)
