package esp

import "errors"

// Sentinel errors returned by the device event handlers. The router logs
// them and moves on; none of them stop dispatch.
var (
	// ErrMissingField is returned when a required payload field is absent or null.
	ErrMissingField = errors.New("esp: missing field")

	// ErrInvalidField is returned when a payload field has the wrong type or value.
	ErrInvalidField = errors.New("esp: invalid field")

	// ErrInvalidTopic is returned when the MAC cannot be extracted from the topic.
	ErrInvalidTopic = errors.New("esp: invalid topic")
)
