package automation

import "errors"

// Domain errors for the automation package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, automation.ErrPolicyViolation) {
//	    // reject with 403
//	}
var (
	// ErrJobNotFound is returned when a job ID does not exist in the store.
	ErrJobNotFound = errors.New("schedule: job not found")

	// ErrJobExists is returned when creating a job with an ID that already exists.
	ErrJobExists = errors.New("schedule: job already exists")

	// ErrInvalidJobID is returned for job IDs not of the form garden_<id>_<token>.
	ErrInvalidJobID = errors.New("schedule: invalid job id")

	// ErrInvalidCron is returned when a cron expression is not five valid fields.
	ErrInvalidCron = errors.New("schedule: invalid cron expression")

	// ErrUnknownWeekday is returned for weekday names outside mon..sun.
	ErrUnknownWeekday = errors.New("schedule: unknown weekday")

	// ErrInvalidTime is returned when an hour or minute is out of range.
	ErrInvalidTime = errors.New("schedule: invalid time of day")

	// ErrInvalidInterval is returned when an agent heartbeat interval is not positive.
	ErrInvalidInterval = errors.New("schedule: interval must be greater than 0")

	// ErrPolicyViolation is returned when an actor may not mutate a job.
	ErrPolicyViolation = errors.New("schedule: policy violation")

	// ErrUnknownAction is returned for schedule actions with no device mapping.
	ErrUnknownAction = errors.New("schedule: unknown action")

	// ErrUnknownTask is returned when a fired job names a task nothing handles.
	ErrUnknownTask = errors.New("schedule: unknown task")

	// ErrInvalidArgs is returned when a job's args do not fit its task.
	ErrInvalidArgs = errors.New("schedule: invalid task args")
)
