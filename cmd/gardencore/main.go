// Garden Core - garden device backend
//
// This is the main entry point for the Garden Core application. It wires
// the broker router, the ESP device handlers, the realtime WebSocket hub,
// the Redis-backed schedule store with its cron runner and the HTTP API
// into one process.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gardencore/internal/agentclient"
	"github.com/nerrad567/gardencore/internal/api"
	"github.com/nerrad567/gardencore/internal/audit"
	"github.com/nerrad567/gardencore/internal/auth"
	"github.com/nerrad567/gardencore/internal/automation"
	"github.com/nerrad567/gardencore/internal/bridges/esp"
	"github.com/nerrad567/gardencore/internal/device"
	"github.com/nerrad567/gardencore/internal/infrastructure/config"
	"github.com/nerrad567/gardencore/internal/infrastructure/database"
	"github.com/nerrad567/gardencore/internal/infrastructure/influxdb"
	"github.com/nerrad567/gardencore/internal/infrastructure/logging"
	"github.com/nerrad567/gardencore/internal/infrastructure/mqtt"
	"github.com/nerrad567/gardencore/internal/realtime"
	"github.com/nerrad567/gardencore/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// agentTokenTTL is the lifetime of the token handed to the agent service
// with each trigger.
const agentTokenTTL = 15 * time.Minute

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Garden Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Database
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	applied, err := db.Migrate(ctx, migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete", "applied", applied)

	store := device.NewSQLiteStore(db.DB)

	// MQTT
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection", "dropped_points", influxClient.Dropped())
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Warn("InfluxDB mirror error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
			"reading_measurement", cfg.InfluxDB.ReadingMeasurement,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Realtime hub
	verifier, err := auth.NewJWTVerifier(cfg.Security.JWT.Secret)
	if err != nil {
		return fmt.Errorf("creating token verifier: %w", err)
	}
	hub := realtime.NewHub(verifier)
	hub.SetLogger(log.Component("realtime"))
	defer hub.Close()

	// Topic router and device handlers
	qos := byte(cfg.MQTT.QoS)
	router := mqtt.NewRouter(mqttClient, mqtt.RouterOptions{
		HistorySize:   cfg.MQTT.HistorySize,
		QoS:           qos,
		InboundBuffer: cfg.MQTT.InboundBuffer,
		Logger:        log.Component("router"),
	})

	emitter := esp.NewEmitter(store, hub)
	emitter.SetLogger(log.Component("events"))

	espDeps := esp.Deps{
		Store:    store,
		Notifier: store,
		Emitter:  emitter,
		Logger:   log.Component("esp"),
	}
	if influxClient != nil {
		espDeps.Mirror = influxClient
	}
	if err := esp.Register(router, esp.Handlers(espDeps)...); err != nil {
		return fmt.Errorf("registering device handlers: %w", err)
	}

	commander := device.NewCommander(router, store, qos)
	commander.SetLogger(log.Component("commander"))

	// Scheduler (optional)
	var (
		schedules *automation.Service
		runner    *automation.Runner
	)
	if cfg.Scheduler.Enabled {
		schedules, runner, err = startScheduler(ctx, cfg, store, commander, log)
		if err != nil {
			return err
		}
	} else {
		log.Info("scheduler disabled")
	}

	// API
	apiServer, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Logger:    log.Component("api"),
		Hub:       hub,
		Auth:      verifier,
		Gardens:   store,
		Schedules: schedules,
		Boards:    store,
		Commands:  commander,
		Audit:     audit.NewSQLiteRecorder(db.DB),
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return router.Run(gctx)
	})
	if runner != nil {
		g.Go(func() error {
			return runner.Run(gctx)
		})
	}
	if err := apiServer.Start(gctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	g.Go(func() error {
		<-gctx.Done()
		return apiServer.Close()
	})

	log.Info("initialisation complete, waiting for shutdown signal")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("Garden Core stopped")
	return nil
}

// startScheduler connects to Redis and builds the schedule service, its
// executor and the cron runner.
//
// Returns:
//   - *automation.Service: Job management for the API
//   - *automation.Runner: Cron runner; the caller runs it
//   - error: If Redis is unreachable or the timezone is invalid
func startScheduler(ctx context.Context, cfg *config.Config, store *device.SQLiteStore, commander *device.Commander, log *logging.Logger) (*automation.Service, *automation.Runner, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	go func() {
		<-ctx.Done()
		log.Info("closing Redis connection")
		if err := rdb.Close(); err != nil {
			log.Error("error closing Redis", "error", err)
		}
	}()
	log.Info("Redis connected", "addr", cfg.Redis.Addr, "key_prefix", cfg.Redis.KeyPrefix)

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("loading scheduler timezone: %w", err)
	}

	jobs := automation.NewRedisStore(rdb, cfg.Redis.KeyPrefix)
	jobs.SetLogger(log.Component("schedule_store"))

	sched := automation.NewScheduler(jobs)
	sched.SetLogger(log.Component("scheduler"))

	service := automation.NewService(sched)
	service.SetLogger(log.Component("schedules"))

	var agents automation.AgentTrigger
	client, err := agentclient.New(cfg.Agent.BaseURL, cfg.GetAgentTimeout(), store)
	switch {
	case err == nil:
		client.SetLogger(log.Component("agent"))
		secret := cfg.Security.JWT.Secret
		client.SetTokenIssuer(func(subject realtime.Subject) (string, error) {
			return auth.GenerateToken(subject, secret, agentTokenTTL)
		})
		agents = client
	case errors.Is(err, agentclient.ErrDisabled):
		log.Info("agent service disabled; heartbeat jobs will fail")
	default:
		return nil, nil, fmt.Errorf("creating agent client: %w", err)
	}

	executor := automation.NewExecutor(store, commander, store, agents)
	executor.SetLogger(log.Component("executor"))

	runner := automation.NewRunner(jobs, executor, loc, cfg.GetSyncInterval())
	runner.SetLogger(log.Component("runner"))

	return service, runner, nil
}

// getConfigPath returns the configuration file path.
// Uses GARDENCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GARDENCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
