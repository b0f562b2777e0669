package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/nerrad567/gardencore/internal/audit"
	"github.com/nerrad567/gardencore/internal/automation"
	"github.com/nerrad567/gardencore/internal/realtime"
)

// record writes an audit entry for a schedule mutation. Successful calls
// and policy denials are recorded; other failures are not. Recording
// errors are logged and never fail the request.
func (s *Server) record(r *http.Request, gardenID int64, jobID, action string, subject realtime.Subject, err error, details map[string]any) {
	if s.audit == nil {
		return
	}

	outcome := audit.OutcomeOK
	if err != nil {
		if !errors.Is(err, automation.ErrPolicyViolation) {
			return
		}
		outcome = audit.OutcomeDenied
	}

	entry := &audit.Entry{
		GardenID:    gardenID,
		JobID:       jobID,
		Action:      action,
		SubjectKind: string(subject.Kind),
		SubjectID:   subject.ID,
		Outcome:     outcome,
		Details:     details,
	}
	if recErr := s.audit.Record(r.Context(), entry); recErr != nil {
		s.logger.Warn("recording audit entry failed",
			"error", recErr,
			"action", action,
			"job_id", jobID,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	}
}

// handleScheduleHistory lists the audit trail of a garden's schedules.
// Only the garden owner may read it.
func (s *Server) handleScheduleHistory(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "audit trail is not configured")
		return
	}

	gardenID, subject, ok := s.gardenRequest(w, r)
	if !ok {
		return
	}
	if subject.Kind != realtime.SubjectUser {
		writeForbidden(w, "only the garden owner can read the schedule history")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		GardenID: gardenID,
		JobID:    q.Get("job_id"),
		Action:   q.Get("action"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid offset")
			return
		}
		filter.Offset = n
	}

	page, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit entries failed", "error", err, "garden_id", gardenID)
		writeInternalError(w, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, page)
}
