package automation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Store is the durable keyspace behind the scheduler.
// Writes are last-write-wins; there is no optimistic concurrency control.
type Store interface {
	// Create inserts a job, or returns ErrJobExists.
	Create(ctx context.Context, job *Job) error

	// Get returns a job, or ErrJobNotFound.
	Get(ctx context.Context, id string) (*Job, error)

	// Save overwrites a job's definition.
	Save(ctx context.Context, job *Job) error

	// Delete removes a job, or returns ErrJobNotFound.
	Delete(ctx context.Context, id string) error

	// List returns every job of a garden, ordered by ID.
	List(ctx context.Context, gardenID int64) ([]Job, error)

	// ListAll returns every job in the keyspace, ordered by ID.
	ListAll(ctx context.Context) ([]Job, error)
}

// definitionField is the hash field holding a job's JSON definition.
const definitionField = "definition"

// scanCount is the COUNT hint for keyspace scans.
const scanCount = 100

// RedisStore implements Store with one hash per job at <prefix><jobID>.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	logger Logger
}

// NewRedisStore creates a store over client. Keys are namespaced by prefix,
// for example "redbeat:".
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *RedisStore) SetLogger(logger Logger) {
	s.logger = logger
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Create inserts a job with HSETNX so an existing definition is never replaced.
func (s *RedisStore) Create(ctx context.Context, job *Job) error {
	data, err := json.Marshal(definitionFor(job))
	if err != nil {
		return fmt.Errorf("encoding job %s: %w", job.ID, err)
	}

	created, err := s.client.HSetNX(ctx, s.key(job.ID), definitionField, data).Result()
	if err != nil {
		return fmt.Errorf("creating job %s: %w", job.ID, err)
	}
	if !created {
		return fmt.Errorf("%w: %s", ErrJobExists, job.ID)
	}
	return nil
}

// Get returns the job stored under id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	job, err := s.load(ctx, s.key(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, err
	}
	return job, nil
}

// Save overwrites the job's definition.
func (s *RedisStore) Save(ctx context.Context, job *Job) error {
	data, err := json.Marshal(definitionFor(job))
	if err != nil {
		return fmt.Errorf("encoding job %s: %w", job.ID, err)
	}
	if err := s.client.HSet(ctx, s.key(job.ID), definitionField, data).Err(); err != nil {
		return fmt.Errorf("saving job %s: %w", job.ID, err)
	}
	return nil
}

// Delete removes the job's key.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("deleting job %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return nil
}

// List returns every job whose ID starts with garden_<gardenID>_.
func (s *RedisStore) List(ctx context.Context, gardenID int64) ([]Job, error) {
	return s.scan(ctx, s.prefix+gardenJobPrefix(gardenID)+"*")
}

// ListAll returns every garden job under the prefix.
func (s *RedisStore) ListAll(ctx context.Context) ([]Job, error) {
	return s.scan(ctx, s.prefix+jobIDPrefix+"*")
}

func (s *RedisStore) scan(ctx context.Context, pattern string) ([]Job, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", pattern, err)
	}

	jobs := make([]Job, 0, len(keys))
	for _, key := range keys {
		job, err := s.load(ctx, key)
		if err != nil {
			// Keys without a definition belong to other writers; skip them.
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, errBadDefinition) {
				s.logger.Warn("skipping unreadable job definition", "key", key, "error", err)
				continue
			}
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs, nil
}

var errBadDefinition = errors.New("schedule: unreadable definition")

func (s *RedisStore) load(ctx context.Context, key string) (*Job, error) {
	data, err := s.client.HGet(ctx, key, definitionField).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}

	var def jobDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errBadDefinition, key, err)
	}
	job := def.job()
	return &job, nil
}
