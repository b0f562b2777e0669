package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLiteStore implements Store and Notifier over the schema in migrations/.
//
// It is safe for concurrent use; database/sql serialises access to the
// single SQLite connection.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a store over an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

const espColumns = `id, mac, garden_id, user_id, online, created_at`

// ESPByMAC returns the board with the given MAC.
func (s *SQLiteStore) ESPByMAC(ctx context.Context, mac string) (*ESP, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+espColumns+` FROM esp_devices WHERE mac = ?`, mac)
	esp, err := scanESP(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrESPNotFound, mac)
	}
	if err != nil {
		return nil, fmt.Errorf("querying esp by mac: %w", err)
	}
	return esp, nil
}

// ESPByID returns a board by primary key.
func (s *SQLiteStore) ESPByID(ctx context.Context, id int64) (*ESP, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+espColumns+` FROM esp_devices WHERE id = ?`, id)
	esp, err := scanESP(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrESPNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying esp by id: %w", err)
	}
	return esp, nil
}

// ESPsByGarden returns every board in a garden, ordered by ID.
func (s *SQLiteStore) ESPsByGarden(ctx context.Context, gardenID int64) ([]ESP, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+espColumns+` FROM esp_devices WHERE garden_id = ? ORDER BY id`, gardenID)
	if err != nil {
		return nil, fmt.Errorf("querying esps by garden: %w", err)
	}
	defer rows.Close()

	var out []ESP
	for rows.Next() {
		esp, err := scanESP(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning esp: %w", err)
		}
		out = append(out, *esp)
	}
	return out, rows.Err()
}

// DeviceByMAC returns the device of a kind on the board with the given MAC.
func (s *SQLiteStore) DeviceByMAC(ctx context.Context, mac string, kind Kind) (*Device, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT d.id, d.esp_id, d.kind, d.enabled, e.mac
		FROM devices d
		JOIN esp_devices e ON e.id = d.esp_id
		WHERE e.mac = ? AND d.kind = ?`, mac, string(kind))

	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s on %s", ErrDeviceNotFound, kind, mac)
	}
	if err != nil {
		return nil, fmt.Errorf("querying device by mac: %w", err)
	}
	return d, nil
}

// DevicesForESPs returns every device on the given boards.
func (s *SQLiteStore) DevicesForESPs(ctx context.Context, espIDs []int64) ([]Device, error) {
	if len(espIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(espIDs)), ",")
	args := make([]any, len(espIDs))
	for i, id := range espIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.esp_id, d.kind, d.enabled, e.mac
		FROM devices d
		JOIN esp_devices e ON e.id = d.esp_id
		WHERE d.esp_id IN (`+placeholders+`)
		ORDER BY d.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices for esps: %w", err)
	}
	defer rows.Close()

	var out []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// GardenByID returns a garden.
func (s *SQLiteStore) GardenByID(ctx context.Context, id int64) (*Garden, error) {
	var (
		g       Garden
		userID  sql.NullInt64
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM gardens WHERE id = ?`, id,
	).Scan(&g.ID, &userID, &g.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrGardenNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying garden: %w", err)
	}
	g.UserID = int64Ptr(userID)
	g.CreatedAt = parseTimestamp(created)
	return &g, nil
}

// AgentByGarden returns the agent attached to a garden.
func (s *SQLiteStore) AgentByGarden(ctx context.Context, gardenID int64) (*Agent, error) {
	var a Agent
	err := s.db.QueryRowContext(ctx,
		`SELECT id, garden_id, context FROM agents WHERE garden_id = ?`, gardenID,
	).Scan(&a.ID, &a.GardenID, &a.Context)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: garden %d", ErrAgentNotFound, gardenID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying agent: %w", err)
	}
	return &a, nil
}

// UserByKey returns the user owning a pairing key.
func (s *SQLiteStore) UserByKey(ctx context.Context, key string) (*User, error) {
	var (
		u       User
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_key, email, created_at FROM users WHERE user_key = ?`, key,
	).Scan(&u.ID, &u.UserKey, &u.Email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by key: %w", err)
	}
	u.CreatedAt = parseTimestamp(created)
	return &u, nil
}

// AddReadings inserts one reading per value in a single transaction.
func (s *SQLiteStore) AddReadings(ctx context.Context, deviceID int64, values []string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stamp := formatTimestamp(at)
	for _, v := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO readings (device_id, value, created_at) VALUES (?, ?, ?)`,
			deviceID, v, stamp,
		); err != nil {
			return fmt.Errorf("inserting reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing readings: %w", err)
	}
	return nil
}

// Readings returns a device's readings, newest first, at most limit rows.
func (s *SQLiteStore) Readings(ctx context.Context, deviceID int64, limit int) ([]Reading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, device_id, value, created_at FROM readings
		WHERE device_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		var (
			r       Reading
			created string
		)
		if err := rows.Scan(&r.ID, &r.DeviceID, &r.Value, &created); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		r.CreatedAt = parseTimestamp(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SetDeviceEnabled stores an actuator's confirmed state.
func (s *SQLiteStore) SetDeviceEnabled(ctx context.Context, deviceID int64, enabled Enabled) error {
	return s.updateOne(ctx, ErrDeviceNotFound,
		`UPDATE devices SET enabled = ? WHERE id = ?`, enabledValue(enabled), deviceID)
}

// SetESPOnline stores a board's online flag.
func (s *SQLiteStore) SetESPOnline(ctx context.Context, espID int64, online bool) error {
	return s.updateOne(ctx, ErrESPNotFound,
		`UPDATE esp_devices SET online = ? WHERE id = ?`, online, espID)
}

// BindESP makes userID the owner of a board.
func (s *SQLiteStore) BindESP(ctx context.Context, espID, userID int64) error {
	return s.updateOne(ctx, ErrESPNotFound,
		`UPDATE esp_devices SET user_id = ? WHERE id = ?`, userID, espID)
}

// Notify stores a notification for a user.
func (s *SQLiteStore) Notify(ctx context.Context, userID int64, message string, typ NotificationType) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, message, type, created_at) VALUES (?, ?, ?, ?)`,
		userID, message, string(typ), formatTimestamp(s.now()))
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
		}
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// Notifications returns a user's notifications, newest first.
func (s *SQLiteStore) Notifications(ctx context.Context, userID int64) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, type, created_at FROM notifications
		WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n       Notification
			typ     string
			created string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &typ, &created); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.Type = NotificationType(typ)
		n.CreatedAt = parseTimestamp(created)
		out = append(out, n)
	}
	return out, rows.Err()
}

// =============================================================================
// Provisioning
// =============================================================================

// CreateUser inserts a user and sets its ID.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *User) error {
	return s.insert(ctx, &u.ID,
		`INSERT INTO users (user_key, email) VALUES (?, ?)`, u.UserKey, u.Email)
}

// CreateGarden inserts a garden and sets its ID.
func (s *SQLiteStore) CreateGarden(ctx context.Context, g *Garden) error {
	return s.insert(ctx, &g.ID,
		`INSERT INTO gardens (user_id, name) VALUES (?, ?)`, nullInt64(g.UserID), g.Name)
}

// CreateAgent attaches an agent to a garden and sets its ID.
func (s *SQLiteStore) CreateAgent(ctx context.Context, a *Agent) error {
	return s.insert(ctx, &a.ID,
		`INSERT INTO agents (garden_id, context) VALUES (?, ?)`, a.GardenID, a.Context)
}

// CreateESP registers a board and sets its ID.
func (s *SQLiteStore) CreateESP(ctx context.Context, e *ESP) error {
	return s.insert(ctx, &e.ID,
		`INSERT INTO esp_devices (mac, garden_id, user_id, online) VALUES (?, ?, ?, ?)`,
		e.MAC, nullInt64(e.GardenID), nullInt64(e.UserID), e.Online)
}

// CreateDevice adds a device to a board and sets its ID.
func (s *SQLiteStore) CreateDevice(ctx context.Context, d *Device) error {
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, d.Kind)
	}
	return s.insert(ctx, &d.ID,
		`INSERT INTO devices (esp_id, kind, enabled) VALUES (?, ?, ?)`,
		d.ESPID, string(d.Kind), enabledValue(d.Enabled))
}

// =============================================================================
// Helpers
// =============================================================================

func (s *SQLiteStore) insert(ctx context.Context, id *int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %w", ErrExists, err)
		}
		return fmt.Errorf("inserting: %w", err)
	}
	*id, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) updateOne(ctx context.Context, notFound error, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanESP(row rowScanner) (*ESP, error) {
	var (
		e        ESP
		gardenID sql.NullInt64
		userID   sql.NullInt64
		created  string
	)
	if err := row.Scan(&e.ID, &e.MAC, &gardenID, &userID, &e.Online, &created); err != nil {
		return nil, err
	}
	e.GardenID = int64Ptr(gardenID)
	e.UserID = int64Ptr(userID)
	e.CreatedAt = parseTimestamp(created)
	return &e, nil
}

func scanDevice(row rowScanner) (*Device, error) {
	var (
		d       Device
		kind    string
		enabled sql.NullBool
	)
	if err := row.Scan(&d.ID, &d.ESPID, &kind, &enabled, &d.MAC); err != nil {
		return nil, err
	}
	d.Kind = Kind(kind)
	switch {
	case !enabled.Valid:
		d.Enabled = EnabledUnknown
	case enabled.Bool:
		d.Enabled = EnabledOn
	default:
		d.Enabled = EnabledOff
	}
	return &d, nil
}

// enabledValue maps the tri-state onto a nullable column.
func enabledValue(e Enabled) sql.NullBool {
	switch e {
	case EnabledOn:
		return sql.NullBool{Bool: true, Valid: true}
	case EnabledOff:
		return sql.NullBool{Bool: false, Valid: true}
	default:
		return sql.NullBool{}
	}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp reads timestamps written by formatTimestamp or by the
// schema's strftime defaults. Unparseable values yield the zero time.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
