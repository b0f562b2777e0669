package automation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/robfig/cron/v3"
)

// JobExecutor runs a fired job. *Executor implements it.
type JobExecutor interface {
	Execute(ctx context.Context, job Job) error
}

// defaultSyncInterval is used when NewRunner is given a non-positive interval.
const defaultSyncInterval = 15 * time.Second

type scheduledEntry struct {
	id          cron.EntryID
	fingerprint string
}

// Runner fires enabled jobs from the Store on their cron schedule.
//
// The Store is the source of truth: Runner reloads it every sync interval
// and adds, replaces or removes cron entries to match. A job that is still
// running when its next tick arrives is skipped.
//
// Thread Safety: Sync, Scheduled and RunJob are safe for concurrent use.
type Runner struct {
	store    Store
	exec     JobExecutor
	cron     *cron.Cron
	interval time.Duration
	logger   Logger

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]scheduledEntry
}

// NewRunner creates a runner evaluating cron expressions in loc.
func NewRunner(store Store, exec JobExecutor, loc *time.Location, interval time.Duration) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	return &Runner{
		store: store,
		exec:  exec,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		interval: interval,
		logger:   noopLogger{},
		ctx:      context.Background(),
		entries:  make(map[string]scheduledEntry),
	}
}

// SetLogger sets the logger for the runner.
func (r *Runner) SetLogger(logger Logger) {
	r.logger = logger
}

// Run syncs, starts the cron scheduler and resyncs every interval until ctx
// is cancelled. It waits for running jobs before returning.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	if err := r.Sync(ctx); err != nil {
		r.logger.Error("initial job sync failed", "error", err)
	}

	r.cron.Start()
	r.logger.Info("job runner started", "sync_interval", r.interval.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-r.cron.Stop().Done()
			r.logger.Info("job runner stopped")
			return nil
		case <-ticker.C:
			if err := r.Sync(ctx); err != nil {
				r.logger.Warn("job sync failed", "error", err)
			}
		}
	}
}

// Sync reconciles cron entries with the enabled jobs in the Store.
func (r *Runner) Sync(ctx context.Context) error {
	jobs, err := r.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing jobs: %w", err)
	}

	wanted := make(map[string]Job, len(jobs))
	for _, j := range jobs {
		if j.Enabled {
			wanted[j.ID] = j
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, entry := range r.entries {
		j, ok := wanted[id]
		if ok && fingerprint(j) == entry.fingerprint {
			continue
		}
		r.cron.Remove(entry.id)
		delete(r.entries, id)
		r.logger.Debug("job unscheduled", "job_id", id)
	}

	for id, j := range wanted {
		if _, ok := r.entries[id]; ok {
			continue
		}
		sched, err := j.Cron.Schedule()
		if err != nil {
			r.logger.Warn("skipping job with bad schedule", "job_id", id, "error", err)
			continue
		}
		job := j
		entryID := r.cron.Schedule(sched, cron.FuncJob(func() { r.fire(job) }))
		r.entries[id] = scheduledEntry{id: entryID, fingerprint: fingerprint(j)}
		r.logger.Debug("job scheduled", "job_id", id, "cron", j.Cron.String())
	}
	return nil
}

// Scheduled returns the IDs of jobs with a live cron entry, sorted.
func (r *Runner) Scheduled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RunJob executes a stored job immediately, regardless of its schedule or
// enabled flag.
func (r *Runner) RunJob(ctx context.Context, jobID string) error {
	job, err := r.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	return r.exec.Execute(ctx, *job)
}

func (r *Runner) fire(job Job) {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()

	start := time.Now()
	if err := r.exec.Execute(ctx, job); err != nil {
		r.logger.Error("scheduled job failed", "job_id", job.ID, "task", string(job.Task), "error", err)
		return
	}
	r.logger.Info("scheduled job completed", "job_id", job.ID, "task", string(job.Task), "duration", time.Since(start).String())
}

func fingerprint(j Job) string {
	data, err := json.Marshal(struct {
		Task Task   `json:"task"`
		Cron string `json:"cron"`
		Args []any  `json:"args"`
	}{j.Task, j.Cron.String(), j.Args})
	if err != nil {
		return j.Cron.String()
	}
	return string(data)
}
