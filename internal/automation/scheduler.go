package automation

import (
	"context"
	"fmt"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Scheduler performs job CRUD over a Store with no ownership checks.
// Service wraps it with the mutation policy.
//
// Thread Safety: safe for concurrent use if the Store is.
type Scheduler struct {
	store  Store
	logger Logger
}

// NewScheduler creates a scheduler over store.
func NewScheduler(store Store) *Scheduler {
	return &Scheduler{store: store, logger: noopLogger{}}
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	s.logger = logger
}

// List returns every job of a garden.
func (s *Scheduler) List(ctx context.Context, gardenID int64) ([]Job, error) {
	return s.store.List(ctx, gardenID)
}

// Get returns one job.
func (s *Scheduler) Get(ctx context.Context, jobID string) (*Job, error) {
	return s.store.Get(ctx, jobID)
}

// Create inserts a new enabled job.
//
// Parameters:
//   - ctx: Context for the store call
//   - task: Task to run when the job fires
//   - cronExpr: "minute hour day-of-month month day-of-week"
//   - args: Positional task arguments
//   - jobID: Unique job ID, garden_<id>_<token>
//   - createdByAI: Provenance flag consulted by the mutation policy
//
// Returns:
//   - string: The job ID
//   - error: ErrInvalidCron, ErrJobExists, or a store error
func (s *Scheduler) Create(ctx context.Context, task Task, cronExpr string, args []any, jobID string, createdByAI bool) (string, error) {
	tab, err := ParseCrontab(cronExpr)
	if err != nil {
		return "", err
	}

	job := &Job{
		ID:          jobID,
		Task:        task,
		Cron:        tab,
		Args:        args,
		Enabled:     true,
		CreatedByAI: createdByAI,
	}
	if err := s.store.Create(ctx, job); err != nil {
		return "", err
	}

	s.logger.Info("job created", "job_id", jobID, "task", string(task), "cron", tab.String(), "created_by_ai", createdByAI)
	return jobID, nil
}

// Update replaces a job's recurrence.
func (s *Scheduler) Update(ctx context.Context, jobID, cronExpr string) error {
	tab, err := ParseCrontab(cronExpr)
	if err != nil {
		return err
	}

	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	job.Cron = tab
	if err := s.store.Save(ctx, job); err != nil {
		return err
	}

	s.logger.Info("job updated", "job_id", jobID, "cron", tab.String())
	return nil
}

// Delete removes a job.
func (s *Scheduler) Delete(ctx context.Context, jobID string) error {
	if err := s.store.Delete(ctx, jobID); err != nil {
		return err
	}
	s.logger.Info("job deleted", "job_id", jobID)
	return nil
}

// SetEnabled sets a job's enabled flag.
func (s *Scheduler) SetEnabled(ctx context.Context, jobID string, enabled bool) error {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	job.Enabled = enabled
	if err := s.store.Save(ctx, job); err != nil {
		return fmt.Errorf("setting enabled: %w", err)
	}
	s.logger.Info("job enabled changed", "job_id", jobID, "enabled", enabled)
	return nil
}

// Toggle flips a job's enabled flag and returns the new value.
func (s *Scheduler) Toggle(ctx context.Context, jobID string) (bool, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return false, err
	}
	job.Enabled = !job.Enabled
	if err := s.store.Save(ctx, job); err != nil {
		return false, fmt.Errorf("toggling: %w", err)
	}
	s.logger.Info("job toggled", "job_id", jobID, "enabled", job.Enabled)
	return job.Enabled, nil
}
