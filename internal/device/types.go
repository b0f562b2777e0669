package device

import "time"

// User is an account that can own gardens and pair boards.
type User struct {
	ID int64 `json:"id"`

	// UserKey is the pairing secret a board sends on {mac}/conn.
	UserKey string `json:"-"`

	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Garden groups boards under one owner.
type Garden struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Agent is the autonomous actor attached to a garden, if any.
type Agent struct {
	ID       int64  `json:"id"`
	GardenID int64  `json:"garden_id"`
	Context  string `json:"context"`
}

// ESP is a controller board, addressed on the broker by its MAC.
type ESP struct {
	ID        int64     `json:"id"`
	MAC       string    `json:"mac"`
	GardenID  *int64    `json:"garden_id,omitempty"`
	UserID    *int64    `json:"user_id,omitempty"`
	Online    bool      `json:"online"`
	CreatedAt time.Time `json:"created_at"`
}

// Device is a sensor or actuator mounted on a board. A board carries at
// most one device of each kind.
type Device struct {
	ID      int64   `json:"id"`
	ESPID   int64   `json:"esp_id"`
	Kind    Kind    `json:"kind"`
	Enabled Enabled `json:"enabled"`

	// MAC of the owning board, filled by lookups that join esp_devices.
	MAC string `json:"mac,omitempty"`
}

// Reading is one persisted sensor value. Values are stored as the decimal
// text the board reported, so 42.5 is kept as "42.5".
type Reading struct {
	ID        int64     `json:"id"`
	DeviceID  int64     `json:"device_id"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationType classifies a user notification.
type NotificationType string

// Notification types.
const (
	NotificationAlert    NotificationType = "alert"
	NotificationReminder NotificationType = "reminder"
	NotificationSystem   NotificationType = "system"
)

// Notification is a message stored for a user.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	CreatedAt time.Time        `json:"created_at"`
}
