package esp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/nerrad567/gardencore/internal/device"
	"github.com/nerrad567/gardencore/internal/infrastructure/mqtt"
)

// Mirror receives a copy of telemetry for time-series storage.
// *influxdb.Client implements it.
type Mirror interface {
	WriteReading(mac, kind string, value float64, at time.Time)
	WriteESPStatus(mac string, online bool)
}

// Deps are the collaborators shared by every handler.
type Deps struct {
	Store    device.Store
	Notifier device.Notifier
	Emitter  *Emitter

	// Mirror is optional.
	Mirror Mirror

	Logger Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

func (d *Deps) defaults() {
	if d.Logger == nil {
		d.Logger = noopLogger{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// handler holds what every handler family shares: its template and deps.
type handler struct {
	tmpl mqtt.Template
	deps Deps
}

func newHandler(tmpl string, deps Deps) handler {
	deps.defaults()
	return handler{tmpl: mqtt.MustTemplate(tmpl), deps: deps}
}

// Template returns the topic template the handler is subscribed on.
func (h handler) Template() mqtt.Template {
	return h.tmpl
}

func (h handler) mac(topic string) (string, error) {
	mac, err := h.tmpl.Value(topic, "mac")
	if err != nil || mac == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}
	return mac, nil
}

// required returns field from payload, failing when it is absent or null.
func required(payload []byte, field string) (gjson.Result, error) {
	res := gjson.GetBytes(payload, field)
	if !res.Exists() || res.Type == gjson.Null {
		return res, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return res, nil
}

// =============================================================================
// {mac}/device/sensor
// =============================================================================

// SensorHandler persists sensor readings and pushes new_reading events.
type SensorHandler struct {
	handler
}

// NewSensorHandler creates the {mac}/device/sensor handler.
func NewSensorHandler(deps Deps) *SensorHandler {
	return &SensorHandler{newHandler(mqtt.TemplateDeviceSensor, deps)}
}

// Handle processes {"sensor": "<name>", "values": [<number>...]}.
func (h *SensorHandler) Handle(ctx context.Context, msg mqtt.Message) error {
	sensor, err := required(msg.Payload, "sensor")
	if err != nil {
		return err
	}
	kind, err := device.SensorKind(sensor.String())
	if err != nil {
		return err
	}

	raw, err := required(msg.Payload, "values")
	if err != nil {
		return err
	}
	if !raw.IsArray() {
		return fmt.Errorf("%w: values must be a list", ErrInvalidField)
	}

	values := make([]float64, 0, len(raw.Array()))
	for _, v := range raw.Array() {
		if v.Type != gjson.Number {
			return fmt.Errorf("%w: values must be numbers, got %s", ErrInvalidField, v.Raw)
		}
		values = append(values, v.Float())
	}

	mac, err := h.mac(msg.Topic)
	if err != nil {
		return err
	}

	dev, err := h.deps.Store.DeviceByMAC(ctx, mac, kind)
	if err != nil {
		return err
	}

	now := h.deps.Now()
	text := make([]string, len(values))
	for i, v := range values {
		text[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if err := h.deps.Store.AddReadings(ctx, dev.ID, text, now); err != nil {
		return fmt.Errorf("storing readings: %w", err)
	}
	if h.deps.Mirror != nil {
		for _, v := range values {
			h.deps.Mirror.WriteReading(mac, string(kind), v, now)
		}
	}

	h.deps.Logger.Debug("readings stored", "mac", mac, "kind", kind, "count", len(values))

	if _, err := h.deps.Emitter.Emit(ctx, dev, EventNewReading, map[string]any{"values": values}); err != nil {
		return fmt.Errorf("emitting %s: %w", EventNewReading, err)
	}
	return nil
}

// =============================================================================
// {mac}/device/confirm
// =============================================================================

// ConfirmHandler records actuator confirmations.
type ConfirmHandler struct {
	handler
}

// NewConfirmHandler creates the {mac}/device/confirm handler.
func NewConfirmHandler(deps Deps) *ConfirmHandler {
	return &ConfirmHandler{newHandler(mqtt.TemplateDeviceConfirm, deps)}
}

// Handle processes {"device": "<name>", "action": "on"|"off", "status": <bool>}.
//
// The actuator_confirm event is pushed first. When status is truthy the
// device's Enabled state follows action and the owner, if any, gets an
// alert notification. A failed notification does not undo the event.
func (h *ConfirmHandler) Handle(ctx context.Context, msg mqtt.Message) error {
	name, err := required(msg.Payload, "device")
	if err != nil {
		return err
	}
	kind, err := device.ActuatorKind(name.String())
	if err != nil {
		return err
	}

	rawAction, err := required(msg.Payload, "action")
	if err != nil {
		return err
	}
	action, err := device.ParseAction(rawAction.String())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidField, err)
	}

	status, err := required(msg.Payload, "status")
	if err != nil {
		return err
	}

	mac, err := h.mac(msg.Topic)
	if err != nil {
		return err
	}

	dev, err := h.deps.Store.DeviceByMAC(ctx, mac, kind)
	if err != nil {
		return err
	}

	rcpt, emitErr := h.deps.Emitter.Emit(ctx, dev, EventActuatorConfirm, map[string]any{
		"action": action,
		"status": status.Value(),
	})
	if emitErr != nil {
		emitErr = fmt.Errorf("emitting %s: %w", EventActuatorConfirm, emitErr)
	}

	if !status.Bool() {
		return emitErr
	}

	enabled := device.EnabledFor(action)
	if err := h.deps.Store.SetDeviceEnabled(ctx, dev.ID, enabled); err != nil {
		return errors.Join(emitErr, fmt.Errorf("storing enabled state: %w", err))
	}
	h.deps.Logger.Info("actuator confirmed", "mac", mac, "kind", kind, "enabled", enabled.String())

	if rcpt.UserID == nil {
		return emitErr
	}
	message := fmt.Sprintf("Device %s is %s", kind, enabled)
	if err := h.deps.Notifier.Notify(ctx, *rcpt.UserID, message, device.NotificationAlert); err != nil {
		h.deps.Logger.Warn("notification failed", "mac", mac, "user_id", *rcpt.UserID, "error", err)
	}
	return emitErr
}

// =============================================================================
// {mac}/conn
// =============================================================================

// ConnHandler pairs a board with the account whose key it presents.
type ConnHandler struct {
	handler
}

// NewConnHandler creates the {mac}/conn handler.
func NewConnHandler(deps Deps) *ConnHandler {
	return &ConnHandler{newHandler(mqtt.TemplateConn, deps)}
}

// Handle processes {"userKey": "<key>"}.
func (h *ConnHandler) Handle(ctx context.Context, msg mqtt.Message) error {
	key, err := required(msg.Payload, "userKey")
	if err != nil {
		return err
	}

	mac, err := h.mac(msg.Topic)
	if err != nil {
		return err
	}

	esp, err := h.deps.Store.ESPByMAC(ctx, mac)
	if err != nil {
		return err
	}

	user, err := h.deps.Store.UserByKey(ctx, key.String())
	if err != nil {
		return err
	}

	if err := h.deps.Store.BindESP(ctx, esp.ID, user.ID); err != nil {
		return fmt.Errorf("binding board: %w", err)
	}
	h.deps.Logger.Info("board paired", "mac", mac, "user_id", user.ID)

	message := fmt.Sprintf("ESP %s is connected to your account", esp.MAC)
	if err := h.deps.Notifier.Notify(ctx, user.ID, message, device.NotificationAlert); err != nil {
		return fmt.Errorf("notifying user %d: %w", user.ID, err)
	}
	return nil
}

// =============================================================================
// {mac}/status
// =============================================================================

// StatusHandler records board connectivity.
type StatusHandler struct {
	handler
}

// NewStatusHandler creates the {mac}/status handler.
func NewStatusHandler(deps Deps) *StatusHandler {
	return &StatusHandler{newHandler(mqtt.TemplateStatus, deps)}
}

// Handle processes {"online": <bool>}.
func (h *StatusHandler) Handle(ctx context.Context, msg mqtt.Message) error {
	online, err := required(msg.Payload, "online")
	if err != nil {
		return err
	}
	if !online.IsBool() {
		return fmt.Errorf("%w: online must be a boolean", ErrInvalidField)
	}

	mac, err := h.mac(msg.Topic)
	if err != nil {
		return err
	}

	esp, err := h.deps.Store.ESPByMAC(ctx, mac)
	if err != nil {
		return err
	}

	if err := h.deps.Store.SetESPOnline(ctx, esp.ID, online.Bool()); err != nil {
		return fmt.Errorf("storing online flag: %w", err)
	}
	if h.deps.Mirror != nil {
		h.deps.Mirror.WriteESPStatus(mac, online.Bool())
	}

	h.deps.Logger.Info("board status", "mac", mac, "online", online.Bool())
	return nil
}
