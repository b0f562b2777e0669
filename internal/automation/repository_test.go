package automation

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const testPrefix = "redbeat:"

// newTestStore returns a RedisStore backed by an in-process miniredis.
func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, testPrefix), mr
}

func testJob(id string) *Job {
	return &Job{
		ID:      id,
		Task:    TaskRunScheduledAction,
		Cron:    Crontab{Minute: "30", Hour: "6", DayOfMonth: "*", Month: "*", DayOfWeek: "1,5"},
		Args:    []any{int64(1), "WATER_ON"},
		Enabled: true,
	}
}

func TestRedisStore_CreateGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, testJob("garden_1_aaa")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, "garden_1_aaa")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Task != TaskRunScheduledAction || !got.Enabled || got.CreatedByAI {
		t.Errorf("Get() = %+v", got)
	}
	if got.Cron.String() != "30 6 * * 1,5" {
		t.Errorf("Cron = %q", got.Cron.String())
	}
	if len(got.Args) != 2 || got.Args[0] != float64(1) || got.Args[1] != "WATER_ON" {
		t.Errorf("Args = %#v", got.Args)
	}

	if err := store.Create(ctx, testJob("garden_1_aaa")); !errors.Is(err, ErrJobExists) {
		t.Errorf("Create() duplicate error = %v, want ErrJobExists", err)
	}
	if _, err := store.Get(ctx, "garden_1_nope"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Get() missing error = %v, want ErrJobNotFound", err)
	}
}

func TestRedisStore_DefinitionLayout(t *testing.T) {
	store, mr := newTestStore(t)

	job := testJob("garden_1_aaa")
	job.CreatedByAI = true
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	raw := mr.HGet(testPrefix+"garden_1_aaa", "definition")
	var def map[string]any
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if def["name"] != "garden_1_aaa" || def["task"] != string(TaskRunScheduledAction) || def["enabled"] != true {
		t.Errorf("definition = %v", def)
	}
	sched, _ := def["schedule"].(map[string]any)
	if sched["minute"] != "30" || sched["hour"] != "6" || sched["day_of_week"] != "1,5" ||
		sched["day_of_month"] != "*" || sched["month_of_year"] != "*" {
		t.Errorf("schedule = %v", sched)
	}
	opts, _ := def["options"].(map[string]any)
	if opts["created_by_ai"] != true {
		t.Errorf("options = %v", opts)
	}
}

func TestRedisStore_MissingEnabledReadsTrue(t *testing.T) {
	store, mr := newTestStore(t)

	mr.HSet(testPrefix+"garden_2_legacy", "definition",
		`{"name":"garden_2_legacy","task":"schedulers.tasks.trigger_agent","schedule":{"minute":"*/5","hour":"*","day_of_month":"*","month_of_year":"*","day_of_week":"*"},"args":[2]}`)

	got, err := store.Get(context.Background(), "garden_2_legacy")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Enabled {
		t.Error("Enabled = false, want true for a definition without the field")
	}
}

func TestRedisStore_SaveDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	job := testJob("garden_1_aaa")
	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	job.Enabled = false
	if err := store.Save(ctx, job); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Enabled {
		t.Error("Enabled = true after Save(false)")
	}

	if err := store.Delete(ctx, job.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrJobNotFound", err)
	}
}

func TestRedisStore_List(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"garden_1_b", "garden_1_a", "garden_12_c", "garden_2_d"} {
		if err := store.Create(ctx, testJob(id)); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}
	// Foreign keys under the prefix are ignored.
	mr.HSet(testPrefix+"garden_1_other", "last_run", "0")
	mr.HSet(testPrefix+"garden_1_broken", "definition", "{not json")

	jobs, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "garden_1_a" || jobs[1].ID != "garden_1_b" {
		t.Errorf("List(1) = %v, want [garden_1_a garden_1_b]", jobIDs(jobs))
	}

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("ListAll() = %v, want 4 jobs", jobIDs(all))
	}
}

func jobIDs(jobs []Job) []string {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return ids
}
