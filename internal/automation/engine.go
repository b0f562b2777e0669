package automation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/nerrad567/gardencore/internal/device"
)

// GardenResolver is what the executor needs from the entity store.
type GardenResolver interface {
	ESPsByGarden(ctx context.Context, gardenID int64) ([]device.ESP, error)
	GardenByID(ctx context.Context, id int64) (*device.Garden, error)
}

// DeviceController switches actuators. *device.Commander implements it.
type DeviceController interface {
	ControlDevice(ctx context.Context, esps []device.ESP, kind device.Kind, action device.ActionKind) error
}

// AgentTrigger wakes a garden's agent.
type AgentTrigger interface {
	Trigger(ctx context.Context, gardenID int64) error
}

// maxJobExecutionTime bounds a single fired job, including the agent call.
const maxJobExecutionTime = 60 * time.Second

// Executor runs the task a fired job names.
//
// Thread Safety: Execute is safe for concurrent use.
type Executor struct {
	gardens GardenResolver
	devices DeviceController
	notify  device.Notifier
	agents  AgentTrigger
	logger  Logger
}

// NewExecutor creates an executor.
//
// Parameters:
//   - gardens: Resolves a garden's boards and owner
//   - devices: Publishes actuator commands
//   - notify: Stores the owner's "Action ... is executed" notification
//   - agents: Wakes agents for heartbeat jobs (may be nil when no agent
//     service is configured)
func NewExecutor(gardens GardenResolver, devices DeviceController, notify device.Notifier, agents AgentTrigger) *Executor {
	return &Executor{
		gardens: gardens,
		devices: devices,
		notify:  notify,
		agents:  agents,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the executor.
func (e *Executor) SetLogger(logger Logger) {
	e.logger = logger
}

// Execute dispatches job by task name.
//
// Returns:
//   - error: ErrUnknownTask, ErrInvalidArgs, or the task's own error
func (e *Executor) Execute(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, maxJobExecutionTime)
	defer cancel()

	switch job.Task {
	case TaskRunScheduledAction:
		if len(job.Args) != 2 {
			return fmt.Errorf("%w: %s wants [garden_id, action], got %d args", ErrInvalidArgs, job.ID, len(job.Args))
		}
		gardenID, err := argInt64(job.Args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", job.ID, err)
		}
		name, ok := job.Args[1].(string)
		if !ok {
			return fmt.Errorf("%w: %s action is %T", ErrInvalidArgs, job.ID, job.Args[1])
		}
		return e.RunScheduledAction(ctx, gardenID, ScheduleAction(name))

	case TaskTriggerAgent:
		if len(job.Args) != 1 {
			return fmt.Errorf("%w: %s wants [garden_id], got %d args", ErrInvalidArgs, job.ID, len(job.Args))
		}
		gardenID, err := argInt64(job.Args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", job.ID, err)
		}
		return e.TriggerAgent(ctx, gardenID)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownTask, string(job.Task))
	}
}

// RunScheduledAction switches the action's actuator kind on every board of
// the garden, then notifies the garden owner.
// A failed notification is logged and does not fail the action.
func (e *Executor) RunScheduledAction(ctx context.Context, gardenID int64, action ScheduleAction) error {
	kind, act, err := action.Control()
	if err != nil {
		return err
	}

	esps, err := e.gardens.ESPsByGarden(ctx, gardenID)
	if err != nil {
		return fmt.Errorf("loading boards of garden %d: %w", gardenID, err)
	}
	if err := e.devices.ControlDevice(ctx, esps, kind, act); err != nil {
		return fmt.Errorf("garden %d %s: %w", gardenID, action, err)
	}
	e.logger.Info("scheduled action executed", "garden_id", gardenID, "action", string(action))

	garden, err := e.gardens.GardenByID(ctx, gardenID)
	if err != nil {
		e.logger.Warn("scheduled action owner lookup failed", "garden_id", gardenID, "error", err)
		return nil
	}
	if garden.UserID == nil {
		return nil
	}

	msg := fmt.Sprintf("Action %s is executed", action)
	if err := e.notify.Notify(ctx, *garden.UserID, msg, device.NotificationAlert); err != nil {
		e.logger.Warn("scheduled action notification failed", "garden_id", gardenID, "user_id", *garden.UserID, "error", err)
	}
	return nil
}

// TriggerAgent wakes the garden's agent.
func (e *Executor) TriggerAgent(ctx context.Context, gardenID int64) error {
	if e.agents == nil {
		return fmt.Errorf("%w: no agent service configured", ErrUnknownTask)
	}
	if err := e.agents.Trigger(ctx, gardenID); err != nil {
		return fmt.Errorf("triggering agent of garden %d: %w", gardenID, err)
	}
	e.logger.Info("agent triggered", "garden_id", gardenID)
	return nil
}

// argInt64 reads an integer task argument. Stored args decode as float64.
func argInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidArgs, n)
		}
		return int64(n), nil
	case json.Number:
		id, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("%w: %v is %T", ErrInvalidArgs, v, v)
	}
}
