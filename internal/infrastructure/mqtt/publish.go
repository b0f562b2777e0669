package mqtt

import "fmt"

// maxPayloadSize caps outbound payloads (1MB), matching typical broker limits.
const maxPayloadSize = 1 << 20

// Publish sends a raw payload to topic.
//
// QoS Levels:
//   - 0: At most once (device commands use this by default)
//   - 1: At least once
//   - 2: Exactly once
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected, or a wrapped
//     ErrPublishFailed
//
// Example:
//
//	topic := "AA:BB:CC:DD:EE:FF/device/control"
//	err := client.Publish(topic, []byte(`{"action":{"id":0}}`), 0, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}
