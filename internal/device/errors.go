package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // drop the message
//	}
var (
	// ErrDeviceNotFound is returned when no device exists for a board and kind.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrESPNotFound is returned when no controller board has the given MAC or ID.
	ErrESPNotFound = errors.New("device: esp not found")

	// ErrUserNotFound is returned when a user key or ID does not exist.
	ErrUserNotFound = errors.New("device: user not found")

	// ErrGardenNotFound is returned when a garden ID does not exist.
	ErrGardenNotFound = errors.New("device: garden not found")

	// ErrAgentNotFound is returned when a garden has no agent.
	ErrAgentNotFound = errors.New("device: agent not found")

	// ErrUnknownKind is returned for sensor or actuator names that map to no kind.
	ErrUnknownKind = errors.New("device: unknown kind")

	// ErrUnknownAction is returned for action strings other than on and off.
	ErrUnknownAction = errors.New("device: unknown action")

	// ErrUnsupportedAction is returned when a kind has no control mapping for an action.
	ErrUnsupportedAction = errors.New("device: unsupported action")

	// ErrNoMatchingDevices is returned when a control request resolves to no device.
	ErrNoMatchingDevices = errors.New("device: no matching devices")

	// ErrExists is returned when creating an entity that violates a uniqueness rule.
	ErrExists = errors.New("device: already exists")
)
