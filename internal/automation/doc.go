// Package automation provides the dynamic scheduler for Garden Core.
//
// Jobs are recurring tasks stored in Redis, one hash per job, and fired by
// a cron runner. Each job belongs to a garden, encoded in its ID
// (garden_<id>_<token>), and carries a provenance flag that decides who may
// change it.
//
// Architecture:
//
//	┌───────────────────────────────────────────────────────┐
//	│   Service (service.go)  ── Authorize (policy.go)       │
//	│        │                                              │
//	│        ▼                                              │
//	│   Scheduler (scheduler.go) ──▶ Store / RedisStore      │
//	│                                  (repository.go)      │
//	│                                       ▲               │
//	│   Runner (runner.go) ── sync ─────────┘               │
//	│        │ fires                                        │
//	│        ▼                                              │
//	│   Executor (engine.go)                                │
//	│     run_scheduled_action ─▶ Commander + notification  │
//	│     trigger_agent        ─▶ AgentTrigger              │
//	└───────────────────────────────────────────────────────┘
//
// # Mutation policy
//
// Agent heartbeat jobs (IDs containing "_agent_") are never modified
// directly; SetEnableForGarden is their only switch. AI-created jobs may be
// modified only by the agent, and every other job only by the user. Update,
// Delete and Toggle all enforce the same rule.
//
// # Key Types
//
//   - Job / Crontab: a scheduled task and its five-field recurrence
//   - Store / RedisStore: the durable keyspace
//   - Scheduler: CRUD without policy
//   - Service: CRUD with policy, plus garden-wide bulk operations
//   - Runner / Executor: fire enabled jobs and run their tasks
//
// # Usage
//
//	store := automation.NewRedisStore(rdb, cfg.Redis.KeyPrefix)
//	svc := automation.NewService(automation.NewScheduler(store))
//
//	cronExpr, err := automation.WeeklyCron([]string{"mon", "fri"}, 6, 30)
//	if err != nil {
//	    return err
//	}
//	jobID, err := svc.CreateAction(ctx, gardenID, cronExpr, automation.ActionWaterOn, automation.ActorUser)
//
// # Thread Safety
//
// All exported types are safe for concurrent use. Concurrent writes to the
// same job are last-write-wins.
package automation
