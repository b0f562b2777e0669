package automation

import (
	"context"
	"errors"
	"fmt"
)

// Service applies the job mutation policy on top of a Scheduler. API
// handlers and the agent tooling go through Service; only the Runner and
// tests use Scheduler directly.
//
// Thread Safety: safe for concurrent use if the Store is.
type Service struct {
	sched  *Scheduler
	logger Logger
}

// NewService creates a policy-enforcing service over sched.
func NewService(sched *Scheduler) *Service {
	return &Service{sched: sched, logger: noopLogger{}}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// List returns every job of a garden.
func (s *Service) List(ctx context.Context, gardenID int64) ([]Job, error) {
	return s.sched.List(ctx, gardenID)
}

// CreateAction schedules a device action for a garden. Jobs an agent
// creates are flagged created_by_ai.
func (s *Service) CreateAction(ctx context.Context, gardenID int64, cronExpr string, action ScheduleAction, actor Actor) (string, error) {
	if _, _, err := action.Control(); err != nil {
		return "", err
	}
	if actor != ActorUser && actor != ActorAgent {
		return "", fmt.Errorf("%w: unknown actor %q", ErrPolicyViolation, actor)
	}

	args := []any{gardenID, string(action)}
	return s.sched.Create(ctx, TaskRunScheduledAction, cronExpr, args, NewJobID(gardenID), actor == ActorAgent)
}

// CreateWeeklyAction schedules a device action on the given weekdays.
func (s *Service) CreateWeeklyAction(ctx context.Context, gardenID int64, days []string, hour, minute int, action ScheduleAction, actor Actor) (string, error) {
	cronExpr, err := WeeklyCron(days, hour, minute)
	if err != nil {
		return "", err
	}
	return s.CreateAction(ctx, gardenID, cronExpr, action, actor)
}

// CreateAgentHeartbeat schedules the garden's agent to wake every
// intervalMinutes minutes.
func (s *Service) CreateAgentHeartbeat(ctx context.Context, gardenID int64, intervalMinutes int) (string, error) {
	if intervalMinutes <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidInterval, intervalMinutes)
	}

	cronExpr := fmt.Sprintf("*/%d * * * *", intervalMinutes)
	args := []any{gardenID}
	return s.sched.Create(ctx, TaskTriggerAgent, cronExpr, args, NewAgentJobID(gardenID), false)
}

// Update replaces a job's recurrence if actor may modify it.
func (s *Service) Update(ctx context.Context, jobID, cronExpr string, actor Actor) error {
	if _, err := s.authorize(ctx, jobID, actor, OpUpdate); err != nil {
		return err
	}
	return s.sched.Update(ctx, jobID, cronExpr)
}

// Delete removes a job if actor may modify it.
func (s *Service) Delete(ctx context.Context, jobID string, actor Actor) error {
	if _, err := s.authorize(ctx, jobID, actor, OpDelete); err != nil {
		return err
	}
	return s.sched.Delete(ctx, jobID)
}

// Toggle flips a job's enabled flag if actor may modify it, returning the
// new value. The policy is the same as for Update and Delete.
func (s *Service) Toggle(ctx context.Context, jobID string, actor Actor) (bool, error) {
	if _, err := s.authorize(ctx, jobID, actor, OpToggle); err != nil {
		return false, err
	}
	return s.sched.Toggle(ctx, jobID)
}

// SetEnableForGarden enables or disables every agent heartbeat of a garden.
// It is the only way heartbeat jobs change.
//
// Returns:
//   - []Job: The heartbeat jobs, with Enabled set to enable
//   - error: ErrJobNotFound if the garden has no heartbeat, or the joined
//     per-job errors
func (s *Service) SetEnableForGarden(ctx context.Context, gardenID int64, enable bool) ([]Job, error) {
	jobs, err := s.sched.List(ctx, gardenID)
	if err != nil {
		return nil, err
	}

	var heartbeats []Job
	for _, j := range jobs {
		if j.IsAgentHeartbeat() {
			heartbeats = append(heartbeats, j)
		}
	}
	if len(heartbeats) == 0 {
		return nil, fmt.Errorf("%w: no agent job for garden %d", ErrJobNotFound, gardenID)
	}

	var errs []error
	for i := range heartbeats {
		if err := s.sched.SetEnabled(ctx, heartbeats[i].ID, enable); err != nil {
			errs = append(errs, err)
			continue
		}
		heartbeats[i].Enabled = enable
	}
	return heartbeats, errors.Join(errs...)
}

// DeleteAllAICreated removes every AI-created job of a garden and returns
// what was removed.
func (s *Service) DeleteAllAICreated(ctx context.Context, gardenID int64) ([]Job, error) {
	jobs, err := s.sched.List(ctx, gardenID)
	if err != nil {
		return nil, err
	}

	var deleted []Job
	var errs []error
	for _, j := range jobs {
		if !j.CreatedByAI {
			continue
		}
		if err := s.sched.Delete(ctx, j.ID); err != nil && !errors.Is(err, ErrJobNotFound) {
			errs = append(errs, err)
			continue
		}
		deleted = append(deleted, j)
	}

	if len(deleted) > 0 {
		s.logger.Info("AI-created jobs deleted", "garden_id", gardenID, "count", len(deleted))
	}
	return deleted, errors.Join(errs...)
}

func (s *Service) authorize(ctx context.Context, jobID string, actor Actor, op Operation) (*Job, error) {
	if _, err := ParseGardenID(jobID); err != nil {
		return nil, err
	}

	job, err := s.sched.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := Authorize(job, actor, op); err != nil {
		s.logger.Warn("job mutation denied", "job_id", jobID, "actor", string(actor), "op", string(op))
		return nil, err
	}
	return job, nil
}
