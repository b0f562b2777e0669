package device

import (
	"context"
	"time"
)

// Store is the entity storage the device event handlers, the command
// publisher and the scheduler depend on. Lookups return the package's
// not-found errors so callers can drop messages with errors.Is.
//
// SQLiteStore is the reference implementation; any other backend must be
// safe for concurrent use.
type Store interface {
	// ESPByMAC returns the board with the given broker identity, or ErrESPNotFound.
	ESPByMAC(ctx context.Context, mac string) (*ESP, error)

	// ESPsByGarden returns every board in a garden.
	ESPsByGarden(ctx context.Context, gardenID int64) ([]ESP, error)

	// DeviceByMAC returns the device of a kind on a board, or ErrDeviceNotFound.
	DeviceByMAC(ctx context.Context, mac string, kind Kind) (*Device, error)

	// DevicesForESPs returns every device on the given boards, with MAC set.
	DevicesForESPs(ctx context.Context, espIDs []int64) ([]Device, error)

	// GardenByID returns a garden, or ErrGardenNotFound.
	GardenByID(ctx context.Context, id int64) (*Garden, error)

	// AgentByGarden returns a garden's agent, or ErrAgentNotFound.
	AgentByGarden(ctx context.Context, gardenID int64) (*Agent, error)

	// UserByKey returns the user with a pairing key, or ErrUserNotFound.
	UserByKey(ctx context.Context, key string) (*User, error)

	// AddReadings persists one reading per value, all stamped with at.
	AddReadings(ctx context.Context, deviceID int64, values []string, at time.Time) error

	// SetDeviceEnabled records an actuator's confirmed state.
	SetDeviceEnabled(ctx context.Context, deviceID int64, enabled Enabled) error

	// SetESPOnline records a board's online flag.
	SetESPOnline(ctx context.Context, espID int64, online bool) error

	// BindESP makes userID the board's owner.
	BindESP(ctx context.Context, espID, userID int64) error
}

// Notifier stores user notifications.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message string, typ NotificationType) error
}

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
