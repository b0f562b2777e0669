package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gardencore/internal/audit"
	"github.com/nerrad567/gardencore/internal/automation"
	"github.com/nerrad567/gardencore/internal/device"
	"github.com/nerrad567/gardencore/internal/infrastructure/config"
	"github.com/nerrad567/gardencore/internal/infrastructure/logging"
	"github.com/nerrad567/gardencore/internal/realtime"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// GardenAccess resolves who may act on a garden. device.Store implements it.
type GardenAccess interface {
	GardenByID(ctx context.Context, id int64) (*device.Garden, error)
	AgentByGarden(ctx context.Context, gardenID int64) (*device.Agent, error)
}

// Boards looks up controller boards. device.Store implementations provide it.
type Boards interface {
	ESPByID(ctx context.Context, id int64) (*device.ESP, error)
	ESPsByGarden(ctx context.Context, gardenID int64) ([]device.ESP, error)
}

// DeviceCommands publishes commands to boards. *device.Commander implements it.
type DeviceCommands interface {
	ControlDevice(ctx context.Context, esps []device.ESP, kind device.Kind, action device.ActionKind) error
	Reset(ctx context.Context, esp device.ESP) error
	Stop(ctx context.Context, esp device.ESP) error
	Resume(ctx context.Context, esp device.ESP) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	Hub     *realtime.Hub
	Auth    realtime.Authenticator
	Gardens GardenAccess

	// Schedules is optional; schedule routes answer 503 without it.
	Schedules *automation.Service

	// Boards and Commands are optional; device routes answer 503 without
	// both.
	Boards   Boards
	Commands DeviceCommands

	// Audit is optional; without it mutations are not recorded.
	Audit audit.Recorder

	Version string
}

// Server is the HTTP API server for Garden Core.
//
// It manages the HTTP listener, routes and middleware. The realtime Hub is
// owned by the caller; Close does not close it.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	hub       *realtime.Hub
	auth      realtime.Authenticator
	gardens   GardenAccess
	schedules *automation.Service
	boards    Boards
	commands  DeviceCommands
	audit     audit.Recorder
	version   string
	server    *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Hub == nil {
		return nil, fmt.Errorf("realtime hub is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if deps.Gardens == nil {
		return nil, fmt.Errorf("garden access is required")
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		hub:       deps.Hub,
		auth:      deps.Auth,
		gardens:   deps.Gardens,
		schedules: deps.Schedules,
		boards:    deps.Boards,
		commands:  deps.Commands,
		audit:     deps.Audit,
		version:   deps.Version,
	}, nil
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections. Hijacked WebSocket
// connections are not tracked by http.Server; close the Hub for those.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
