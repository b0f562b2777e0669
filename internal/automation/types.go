package automation

import (
	"fmt"

	"github.com/nerrad567/gardencore/internal/device"
)

// Task names the work a job performs when it fires. The values match the
// task names already stored in deployed keyspaces.
type Task string

// Tasks.
const (
	// TaskRunScheduledAction switches one actuator kind across a garden.
	// Args: [gardenID, ScheduleAction].
	TaskRunScheduledAction Task = "schedulers.tasks.run_scheduled_action"

	// TaskTriggerAgent wakes the garden's agent. Args: [gardenID].
	TaskTriggerAgent Task = "schedulers.tasks.trigger_agent"
)

// Job is a scheduled recurring task as callers see it.
type Job struct {
	ID          string  `json:"task_id"`
	Task        Task    `json:"task"`
	Cron        Crontab `json:"cron"`
	Args        []any   `json:"args"`
	Enabled     bool    `json:"enabled"`
	CreatedByAI bool    `json:"created_by_ai"`
}

// IsAgentHeartbeat reports whether the job is a garden's agent heartbeat.
func (j *Job) IsAgentHeartbeat() bool {
	return IsAgentJobID(j.ID)
}

// jobDefinition is the stored form of a job, kept in the layout beat
// schedulers already read from the same keyspace.
type jobDefinition struct {
	Name     string         `json:"name"`
	Task     Task           `json:"task"`
	Schedule scheduleDef    `json:"schedule"`
	Args     []any          `json:"args"`
	Kwargs   map[string]any `json:"kwargs"`
	Options  jobOptions     `json:"options"`

	// Enabled is a pointer so a missing field reads as enabled.
	Enabled *bool `json:"enabled,omitempty"`
}

type scheduleDef struct {
	Type string `json:"__type__"`
	Crontab
}

type jobOptions struct {
	CreatedByAI bool `json:"created_by_ai"`
}

func definitionFor(j *Job) jobDefinition {
	enabled := j.Enabled
	args := j.Args
	if args == nil {
		args = []any{}
	}
	return jobDefinition{
		Name:     j.ID,
		Task:     j.Task,
		Schedule: scheduleDef{Type: "crontab", Crontab: j.Cron},
		Args:     args,
		Kwargs:   map[string]any{},
		Options:  jobOptions{CreatedByAI: j.CreatedByAI},
		Enabled:  &enabled,
	}
}

func (d *jobDefinition) job() Job {
	enabled := true
	if d.Enabled != nil {
		enabled = *d.Enabled
	}
	args := d.Args
	if args == nil {
		args = []any{}
	}
	return Job{
		ID:          d.Name,
		Task:        d.Task,
		Cron:        d.Schedule.Crontab,
		Args:        args,
		Enabled:     enabled,
		CreatedByAI: d.Options.CreatedByAI,
	}
}

// Actor is who is asking to change a job.
type Actor string

// Actors.
const (
	ActorUser  Actor = "user"
	ActorAgent Actor = "agent"
)

// Operation is a direct mutation of one job.
type Operation string

// Operations.
const (
	OpUpdate     Operation = "update"
	OpDelete     Operation = "delete"
	OpToggle     Operation = "toggle"
	OpSetEnabled Operation = "set_enabled"
)

// ScheduleAction is a device action a user or agent can schedule.
type ScheduleAction string

// Schedule actions.
const (
	ActionWaterOn       ScheduleAction = "WATER_ON"
	ActionWaterOff      ScheduleAction = "WATER_OFF"
	ActionAtomizeOn     ScheduleAction = "ATOMIZE_ON"
	ActionAtomizeOff    ScheduleAction = "ATOMIZE_OFF"
	ActionFanOn         ScheduleAction = "FAN_ON"
	ActionFanOff        ScheduleAction = "FAN_OFF"
	ActionHeatingMatOn  ScheduleAction = "HEATING_MAT_ON"
	ActionHeatingMatOff ScheduleAction = "HEATING_MAT_OFF"
)

// ParseScheduleAction validates an action name.
func ParseScheduleAction(s string) (ScheduleAction, error) {
	a := ScheduleAction(s)
	if _, _, err := a.Control(); err != nil {
		return "", err
	}
	return a, nil
}

// Control returns the actuator kind and state the action drives.
func (a ScheduleAction) Control() (device.Kind, device.ActionKind, error) {
	switch a {
	case ActionWaterOn:
		return device.KindWaterer, device.ActionOn, nil
	case ActionWaterOff:
		return device.KindWaterer, device.ActionOff, nil
	case ActionAtomizeOn:
		return device.KindAtomizer, device.ActionOn, nil
	case ActionAtomizeOff:
		return device.KindAtomizer, device.ActionOff, nil
	case ActionFanOn:
		return device.KindFanner, device.ActionOn, nil
	case ActionFanOff:
		return device.KindFanner, device.ActionOff, nil
	case ActionHeatingMatOn:
		return device.KindHeater, device.ActionOn, nil
	case ActionHeatingMatOff:
		return device.KindHeater, device.ActionOff, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownAction, string(a))
	}
}
