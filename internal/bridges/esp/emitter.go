package esp

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gardencore/internal/device"
)

// Realtime event names.
const (
	EventNewReading      = "new_reading"
	EventActuatorConfirm = "actuator_confirm"
)

// Pusher delivers realtime events. *realtime.Hub implements it.
type Pusher interface {
	SendToUser(ctx context.Context, userID int64, data any) error
	SendToAgent(ctx context.Context, agentID int64, data any) error
}

// Recipients records who an event was pushed to.
type Recipients struct {
	UserID  *int64
	AgentID *int64
}

// Emitter resolves a device to its board, garden, owner and agent and
// pushes realtime events to them.
type Emitter struct {
	store  device.Store
	push   Pusher
	logger Logger
}

// NewEmitter creates an Emitter.
func NewEmitter(store device.Store, push Pusher) *Emitter {
	return &Emitter{store: store, push: push, logger: noopLogger{}}
}

// SetLogger sets the logger for event delivery.
func (e *Emitter) SetLogger(logger Logger) {
	e.logger = logger
}

// Emit pushes the envelope
//
//	{event, device_type, esp_mac, garden_id, device_id, ...extra}
//
// to the board's owner and, separately, to the garden's agent if it has
// one. The owner is the user the board is bound to, falling back to the
// garden's owner for boards not yet paired.
//
// Returns:
//   - Recipients: who received the event
//   - error: lookup or push failures; a missing owner or agent is not an error
func (e *Emitter) Emit(ctx context.Context, dev *device.Device, event string, extra map[string]any) (Recipients, error) {
	var rcpt Recipients

	esp, err := e.store.ESPByMAC(ctx, dev.MAC)
	if err != nil {
		return rcpt, fmt.Errorf("resolving board: %w", err)
	}

	var garden *device.Garden
	if esp.GardenID != nil {
		garden, err = e.store.GardenByID(ctx, *esp.GardenID)
		if err != nil && !errors.Is(err, device.ErrGardenNotFound) {
			return rcpt, fmt.Errorf("resolving garden: %w", err)
		}
	}

	rcpt.UserID = esp.UserID
	if rcpt.UserID == nil && garden != nil {
		rcpt.UserID = garden.UserID
	}

	envelope := make(map[string]any, len(extra)+5)
	for k, v := range extra {
		envelope[k] = v
	}
	envelope["event"] = event
	envelope["device_type"] = dev.Kind
	envelope["esp_mac"] = dev.MAC
	envelope["garden_id"] = esp.GardenID
	envelope["device_id"] = dev.ID

	var errs []error
	if rcpt.UserID != nil {
		if err := e.push.SendToUser(ctx, *rcpt.UserID, envelope); err != nil {
			errs = append(errs, fmt.Errorf("pushing to user %d: %w", *rcpt.UserID, err))
		} else {
			e.logger.Debug("realtime event sent", "event", event, "user_id", *rcpt.UserID)
		}
	} else {
		e.logger.Warn("no owner for board", "mac", dev.MAC, "event", event)
	}

	if garden != nil {
		agent, err := e.store.AgentByGarden(ctx, garden.ID)
		switch {
		case errors.Is(err, device.ErrAgentNotFound):
		case err != nil:
			errs = append(errs, fmt.Errorf("resolving agent: %w", err))
		default:
			rcpt.AgentID = &agent.ID
			if err := e.push.SendToAgent(ctx, agent.ID, envelope); err != nil {
				errs = append(errs, fmt.Errorf("pushing to agent %d: %w", agent.ID, err))
			}
		}
	}

	return rcpt, errors.Join(errs...)
}
