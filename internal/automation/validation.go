package automation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Job ID layout.
const (
	jobIDPrefix   = "garden_"
	agentJobInfix = "_agent_"
)

// Crontab is a five-field recurrence, stored field by field.
type Crontab struct {
	Minute     string `json:"minute"`
	Hour       string `json:"hour"`
	DayOfMonth string `json:"day_of_month"`
	Month      string `json:"month_of_year"`
	DayOfWeek  string `json:"day_of_week"`
}

// ParseCrontab parses "minute hour day-of-month month day-of-week".
// Each field must be accepted by the standard cron parser.
func ParseCrontab(expr string) (Crontab, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return Crontab{}, fmt.Errorf("%w: %q has %d fields, want 5", ErrInvalidCron, expr, len(fields))
	}

	c := Crontab{
		Minute:     fields[0],
		Hour:       fields[1],
		DayOfMonth: fields[2],
		Month:      fields[3],
		DayOfWeek:  fields[4],
	}
	if _, err := c.Schedule(); err != nil {
		return Crontab{}, err
	}
	return c, nil
}

// String returns the crontab in its five-field text form.
func (c Crontab) String() string {
	return strings.Join([]string{c.Minute, c.Hour, c.DayOfMonth, c.Month, c.DayOfWeek}, " ")
}

// Schedule returns the crontab as a cron.Schedule.
func (c Crontab) Schedule() (cron.Schedule, error) {
	sched, err := cron.ParseStandard(c.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidCron, c.String(), err)
	}
	return sched, nil
}

var weekdayNumbers = map[string]string{
	"sun": "0",
	"mon": "1",
	"tue": "2",
	"wed": "3",
	"thu": "4",
	"fri": "5",
	"sat": "6",
}

// WeeklyCron builds the cron expression for a weekly recurrence.
//
// Days keep their given order: ["mon", "fri"], 6, 30 gives "30 6 * * 1,5".
//
// Returns:
//   - string: The five-field expression
//   - error: ErrUnknownWeekday for a name outside sun..sat, ErrInvalidTime
//     if hour or minute is out of range
func WeeklyCron(days []string, hour, minute int) (string, error) {
	if hour < 0 || hour > 23 {
		return "", fmt.Errorf("%w: hour %d", ErrInvalidTime, hour)
	}
	if minute < 0 || minute > 59 {
		return "", fmt.Errorf("%w: minute %d", ErrInvalidTime, minute)
	}
	if len(days) == 0 {
		return "", fmt.Errorf("%w: no days given", ErrUnknownWeekday)
	}

	nums := make([]string, 0, len(days))
	for _, d := range days {
		n, ok := weekdayNumbers[strings.ToLower(d)]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownWeekday, d)
		}
		nums = append(nums, n)
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, strings.Join(nums, ",")), nil
}

// ParseGardenID recovers the garden from a job ID of the form
// garden_<id>_<token>.
func ParseGardenID(jobID string) (int64, error) {
	rest, ok := strings.CutPrefix(jobID, jobIDPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidJobID, jobID)
	}
	idPart, token, ok := strings.Cut(rest, "_")
	if !ok || token == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidJobID, jobID)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidJobID, jobID)
	}
	return id, nil
}

// IsAgentJobID reports whether a job ID names an agent heartbeat.
func IsAgentJobID(jobID string) bool {
	return strings.Contains(jobID, agentJobInfix)
}

// gardenJobPrefix is the key prefix every job of a garden shares.
func gardenJobPrefix(gardenID int64) string {
	return jobIDPrefix + strconv.FormatInt(gardenID, 10) + "_"
}

// NewJobID returns a fresh ID for a garden's action job.
func NewJobID(gardenID int64) string {
	return gardenJobPrefix(gardenID) + token()
}

// NewAgentJobID returns a fresh ID for a garden's agent heartbeat.
func NewAgentJobID(gardenID int64) string {
	return gardenJobPrefix(gardenID) + "agent_" + token()
}

func token() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
