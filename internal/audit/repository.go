package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Outcome is the result of an audited attempt.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeDenied Outcome = "denied"
)

// Entry is one audited schedule mutation.
type Entry struct {
	ID          string         `json:"id"`
	GardenID    int64          `json:"garden_id"`
	JobID       string         `json:"job_id,omitempty"`
	Action      string         `json:"action"`
	SubjectKind string         `json:"subject_kind"`
	SubjectID   int64          `json:"subject_id"`
	Outcome     Outcome        `json:"outcome"`
	Details     map[string]any `json:"details,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Filter selects entries of one garden.
type Filter struct {
	GardenID int64
	JobID    string // optional
	Action   string // optional
	Limit    int    // default 50, max 200
	Offset   int
}

// Page is a window of entries plus the total matching the filter.
type Page struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Recorder stores and lists entries.
type Recorder interface {
	Record(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) (*Page, error)
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// SQLiteRecorder keeps entries in the audit_logs table.
type SQLiteRecorder struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRecorder creates a recorder on an opened, migrated database.
func NewSQLiteRecorder(db *sql.DB) *SQLiteRecorder {
	return &SQLiteRecorder{db: db, now: time.Now}
}

// Record inserts e. ID and CreatedAt are filled in when empty.
func (r *SQLiteRecorder) Record(ctx context.Context, e *Entry) error {
	if e.GardenID <= 0 || e.Action == "" || e.SubjectKind == "" {
		return fmt.Errorf("%w: garden %d action %q subject %q", ErrInvalidEntry, e.GardenID, e.Action, e.SubjectKind)
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeOK
	}
	if e.ID == "" {
		e.ID = "aud-" + uuid.NewString()[:8]
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}

	var details any
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshalling audit details: %w", err)
		}
		details = string(b)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, garden_id, job_id, action, subject_kind, subject_id, outcome, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GardenID, nullableString(e.JobID), e.Action,
		e.SubjectKind, e.SubjectID, string(e.Outcome), details,
		e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// List returns a garden's entries, newest first.
func (r *SQLiteRecorder) List(ctx context.Context, filter Filter) (*Page, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	conditions := []string{"garden_id = ?"}
	args := []any{filter.GardenID}
	if filter.JobID != "" {
		conditions = append(conditions, "job_id = ?")
		args = append(args, filter.JobID)
	}
	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	//nolint:gosec // WHERE is built from fixed column names with ? placeholders
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_logs "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting audit entries: %w", err)
	}

	//nolint:gosec // WHERE is built from fixed column names with ? placeholders
	query := `SELECT id, garden_id, job_id, action, subject_kind, subject_id, outcome, details, created_at
		FROM audit_logs ` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e              Entry
			jobID, details sql.NullString
			outcome        string
			createdAt      string
		)
		if err := rows.Scan(&e.ID, &e.GardenID, &jobID, &e.Action, &e.SubjectKind,
			&e.SubjectID, &outcome, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.JobID = jobID.String
		e.Outcome = Outcome(outcome)
		if details.Valid && details.String != "" {
			var m map[string]any
			if json.Unmarshal([]byte(details.String), &m) == nil {
				e.Details = m
			}
		}
		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing audit timestamp %q: %w", createdAt, err)
		}
		e.CreatedAt = t
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}

	return &Page{Entries: entries, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// nullableString maps "" to NULL for optional TEXT columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
