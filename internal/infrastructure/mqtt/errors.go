package mqtt

import "errors"

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected client.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	// It is the only MQTT error that is fatal at startup.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned for an empty topic or pattern, or a
	// placeholder value that is not a single topic level.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")

	// ErrTLSConfig is returned when the CA, certificate or key files cannot be loaded.
	ErrTLSConfig = errors.New("mqtt: invalid TLS configuration")

	// ErrNoMessage is returned by Router.LastMessage when a topic has no history.
	ErrNoMessage = errors.New("mqtt: no message received on topic")

	// ErrTemplateMismatch is returned when a topic does not fit a template.
	ErrTemplateMismatch = errors.New("mqtt: topic does not match template")

	// ErrMissingPlaceholder is returned when a template value is absent.
	ErrMissingPlaceholder = errors.New("mqtt: missing placeholder value")

	// ErrInvalidTemplate is returned by ParseTemplate for malformed templates.
	ErrInvalidTemplate = errors.New("mqtt: invalid topic template")

	// ErrRouterStopped is returned when a message arrives after the receive loop exited.
	ErrRouterStopped = errors.New("mqtt: router stopped")

	// ErrRouterRunning is returned when Run is called on a router that is already running.
	ErrRouterRunning = errors.New("mqtt: router already running")
)
