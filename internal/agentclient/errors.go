package agentclient

import "errors"

var (
	// ErrDisabled is returned by New when no agent service URL is configured.
	ErrDisabled = errors.New("agent: service disabled")

	// ErrServiceError is returned when the agent service answers with a
	// status other than 200.
	ErrServiceError = errors.New("agent: service error")

	// ErrInvalidResponse is returned when a 200 response is not a JSON object.
	ErrInvalidResponse = errors.New("agent: invalid response")
)
