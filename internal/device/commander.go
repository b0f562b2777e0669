package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gardencore/internal/infrastructure/mqtt"
)

// Publisher sends JSON payloads to the broker. *mqtt.Router implements it.
type Publisher interface {
	Publish(topic string, payload any, qos byte, retain bool) error
}

// Outbound board topics.
var (
	controlTopic = mqtt.MustTemplate(mqtt.TemplateDeviceControl)
	resetTopic   = mqtt.MustTemplate(mqtt.TemplateReset)
	stopTopic    = mqtt.MustTemplate(mqtt.TemplateStop)
	resumeTopic  = mqtt.MustTemplate(mqtt.TemplateResume)
)

// controlPayload is the body of a {mac}/device/control message.
type controlPayload struct {
	Action controlAction `json:"action"`
}

type controlAction struct {
	ID ControlCode `json:"id"`
}

// Commander publishes device commands on the topic router.
//
// It never changes a device's Enabled state: that only moves when the
// board confirms on {mac}/device/confirm.
type Commander struct {
	pub    Publisher
	store  Store
	qos    byte
	logger Logger
}

// NewCommander creates a Commander publishing with the given QoS.
func NewCommander(pub Publisher, store Store, qos byte) *Commander {
	return &Commander{
		pub:    pub,
		store:  store,
		qos:    qos,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for command operations.
func (c *Commander) SetLogger(logger Logger) {
	c.logger = logger
}

// ControlDevice switches every device of kind on the given boards.
//
// Parameters:
//   - ctx: Context for the device lookup
//   - esps: Boards to target, typically every board in one garden
//   - kind: Actuator kind to switch
//   - action: ActionOn or ActionOff
//
// Returns:
//   - error: ErrUnsupportedAction if kind has no control for action,
//     ErrNoMatchingDevices if no board carries the kind, or the joined
//     publish errors
func (c *Commander) ControlDevice(ctx context.Context, esps []ESP, kind Kind, action ActionKind) error {
	control, err := ControlFor(kind, action)
	if err != nil {
		return err
	}

	ids := make([]int64, 0, len(esps))
	for _, e := range esps {
		ids = append(ids, e.ID)
	}

	devices, err := c.store.DevicesForESPs(ctx, ids)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	var targets []Device
	for _, d := range devices {
		if d.Kind == kind && d.MAC != "" {
			targets = append(targets, d)
		}
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: %s", ErrNoMatchingDevices, kind)
	}

	payload := controlPayload{Action: controlAction{ID: control.Code}}

	var errs []error
	for _, d := range targets {
		topic, err := boardTopic(controlTopic, d.MAC)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := c.pub.Publish(topic, payload, c.qos, false); err != nil {
			errs = append(errs, fmt.Errorf("publishing %s: %w", topic, err))
			continue
		}
		c.logger.Info("device command published",
			"mac", d.MAC, "device_id", d.ID, "command", control.Path, "code", int(control.Code))
	}
	return errors.Join(errs...)
}

// Reset asks a board to restart.
func (c *Commander) Reset(_ context.Context, esp ESP) error {
	return c.sendEmpty(resetTopic, esp.MAC)
}

// Stop pauses a board's control loop.
func (c *Commander) Stop(_ context.Context, esp ESP) error {
	return c.sendEmpty(stopTopic, esp.MAC)
}

// Resume resumes a stopped board.
func (c *Commander) Resume(_ context.Context, esp ESP) error {
	return c.sendEmpty(resumeTopic, esp.MAC)
}

func (c *Commander) sendEmpty(tmpl mqtt.Template, mac string) error {
	topic, err := boardTopic(tmpl, mac)
	if err != nil {
		return err
	}
	if err := c.pub.Publish(topic, struct{}{}, c.qos, false); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	c.logger.Info("board command published", "topic", topic)
	return nil
}

// boardTopic addresses tmpl to one board. A MAC that is empty or spans
// topic levels fails with the mqtt package's topic errors.
func boardTopic(tmpl mqtt.Template, mac string) (string, error) {
	topic, err := tmpl.Concrete(map[string]string{"mac": mac})
	if err != nil {
		return "", fmt.Errorf("addressing board %q: %w", mac, err)
	}
	return topic, nil
}
