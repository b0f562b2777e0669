package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/nerrad567/gardencore/internal/automation"
	"github.com/nerrad567/gardencore/internal/device"
	"github.com/nerrad567/gardencore/internal/realtime"
)

// errGardenForbidden is returned when a subject has no access to a garden.
var errGardenForbidden = errors.New("api: no access to garden")

type createScheduleRequest struct {
	Action string `json:"action"`
	Cron   string `json:"cron"`
}

type weeklyScheduleRequest struct {
	DaysOfWeek []string `json:"days_of_week"`
	Hour       int      `json:"hour"`
	Minute     int      `json:"minute"`
	Action     string   `json:"action"`
}

type updateScheduleRequest struct {
	Cron string `json:"cron"`
}

type heartbeatRequest struct {
	Interval int `json:"interval"`
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

type jobIDResponse struct {
	TaskID string `json:"task_id"`
}

// handleListSchedules returns every job of a garden.
func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	gardenID, _, ok := s.gardenRequest(w, r)
	if !ok {
		return
	}

	jobs, err := s.schedules.List(r.Context(), gardenID)
	if err != nil {
		s.requestFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// handleCreateSchedule creates a cron job running a device action.
func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	gardenID, subject, ok := s.gardenRequest(w, r)
	if !ok {
		return
	}

	var req createScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := s.schedules.CreateAction(r.Context(), gardenID, req.Cron, automation.ScheduleAction(req.Action), actorFor(subject))
	if err != nil {
		s.requestFailed(w, r, err)
		return
	}
	s.record(r, gardenID, id, "create", subject, nil, map[string]any{"action": req.Action, "cron": req.Cron})
	writeJSON(w, http.StatusCreated, jobIDResponse{TaskID: id})
}

// handleCreateWeeklySchedule creates a job from weekdays and a time of day.
func (s *Server) handleCreateWeeklySchedule(w http.ResponseWriter, r *http.Request) {
	gardenID, subject, ok := s.gardenRequest(w, r)
	if !ok {
		return
	}

	var req weeklyScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := s.schedules.CreateWeeklyAction(r.Context(), gardenID, req.DaysOfWeek, req.Hour, req.Minute,
		automation.ScheduleAction(req.Action), actorFor(subject))
	if err != nil {
		s.requestFailed(w, r, err)
		return
	}
	s.record(r, gardenID, id, "create", subject, nil, map[string]any{"action": req.Action, "days_of_week": req.DaysOfWeek})
	writeJSON(w, http.StatusCreated, jobIDResponse{TaskID: id})
}

// handleDeleteAISchedules removes every AI-created job of a garden.
// Only the garden owner may do this.
func (s *Server) handleDeleteAISchedules(w http.ResponseWriter, r *http.Request) {
	gardenID, subject, ok := s.gardenRequest(w, r)
	if !ok {
		return
	}
	if subject.Kind != realtime.SubjectUser {
		writeForbidden(w, "only the garden owner can clear AI schedules")
		return
	}

	deleted, err := s.schedules.DeleteAllAICreated(r.Context(), gardenID)
	if err != nil {
		s.requestFailed(w, r, err)
		return
	}
	s.record(r, gardenID, "", "delete_ai", subject, nil, map[string]any{"deleted": len(deleted)})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

// handleCreateAgentHeartbeat schedules the garden's agent to wake periodically.
func (s *Server) handleCreateAgentHeartbeat(w http.ResponseWriter, r *http.Request) {
	gardenID, subject, ok := s.gardenRequest(w, r)
	if !ok {
		return
	}
	if subject.Kind != realtime.SubjectUser {
		writeForbidden(w, "only the garden owner can schedule the agent")
		return
	}

	var req heartbeatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := s.schedules.CreateAgentHeartbeat(r.Context(), gardenID, req.Interval)
	if err != nil {
		s.requestFailed(w, r, err)
		return
	}
	s.record(r, gardenID, id, "create_heartbeat", subject, nil, map[string]any{"interval": req.Interval})
	writeJSON(w, http.StatusCreated, jobIDResponse{TaskID: id})
}

// handleSetAgentScheduleEnabled switches every agent heartbeat of a garden.
func (s *Server) handleSetAgentScheduleEnabled(w http.ResponseWriter, r *http.Request) {
	gardenID, subject, ok := s.gardenRequest(w, r)
	if !ok {
		return
	}
	if subject.Kind != realtime.SubjectUser {
		writeForbidden(w, "only the garden owner can switch the agent")
		return
	}

	var req enabledRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		writeBadRequest(w, "enabled is required")
		return
	}

	jobs, err := s.schedules.SetEnableForGarden(r.Context(), gardenID, *req.Enabled)
	if err != nil {
		s.requestFailed(w, r, err)
		return
	}
	s.record(r, gardenID, "", "set_heartbeat_enabled", subject, nil, map[string]any{"enabled": *req.Enabled})
	writeJSON(w, http.StatusOK, jobs)
}

// handleUpdateSchedule replaces a job's cron expression.
func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	jobID, gardenID, subject, ok := s.jobRequest(w, r)
	if !ok {
		return
	}

	var req updateScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := s.schedules.Update(r.Context(), jobID, req.Cron, actorFor(subject))
	s.record(r, gardenID, jobID, "update", subject, err, map[string]any{"cron": req.Cron})
	if err != nil {
		s.requestFailed(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateWeeklySchedule replaces a job's recurrence with a weekly one.
// The job's action is kept.
func (s *Server) handleUpdateWeeklySchedule(w http.ResponseWriter, r *http.Request) {
	jobID, gardenID, subject, ok := s.jobRequest(w, r)
	if !ok {
		return
	}

	var req weeklyScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cronExpr, err := automation.WeeklyCron(req.DaysOfWeek, req.Hour, req.Minute)
	if err != nil {
		s.requestFailed(w, r, err)
		return
	}
	err = s.schedules.Update(r.Context(), jobID, cronExpr, actorFor(subject))
	s.record(r, gardenID, jobID, "update", subject, err, map[string]any{"cron": cronExpr})
	if err != nil {
		s.requestFailed(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteSchedule removes a job.
func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	jobID, gardenID, subject, ok := s.jobRequest(w, r)
	if !ok {
		return
	}

	err := s.schedules.Delete(r.Context(), jobID, actorFor(subject))
	s.record(r, gardenID, jobID, "delete", subject, err, nil)
	if err != nil {
		s.requestFailed(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleSchedule flips a job's enabled flag.
func (s *Server) handleToggleSchedule(w http.ResponseWriter, r *http.Request) {
	jobID, gardenID, subject, ok := s.jobRequest(w, r)
	if !ok {
		return
	}

	enabled, err := s.schedules.Toggle(r.Context(), jobID, actorFor(subject))
	s.record(r, gardenID, jobID, "toggle", subject, err, nil)
	if err != nil {
		s.requestFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task_id": jobID, "enabled": enabled})
}

// gardenRequest parses {gardenID} and checks the caller may act on it.
// On failure it writes the response and returns ok=false.
func (s *Server) gardenRequest(w http.ResponseWriter, r *http.Request) (int64, realtime.Subject, bool) {
	if s.schedules == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "scheduler is not configured")
		return 0, realtime.Subject{}, false
	}

	subject, ok := subjectFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "not authenticated")
		return 0, realtime.Subject{}, false
	}

	gardenID, err := strconv.ParseInt(chi.URLParam(r, "gardenID"), 10, 64)
	if err != nil || gardenID <= 0 {
		writeBadRequest(w, "invalid garden id")
		return 0, realtime.Subject{}, false
	}

	if err := s.checkGardenAccess(r.Context(), subject, gardenID); err != nil {
		s.requestFailed(w, r, err)
		return 0, realtime.Subject{}, false
	}
	return gardenID, subject, true
}

// jobRequest parses {jobID}, recovers its garden and checks access to it.
func (s *Server) jobRequest(w http.ResponseWriter, r *http.Request) (string, int64, realtime.Subject, bool) {
	if s.schedules == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "scheduler is not configured")
		return "", 0, realtime.Subject{}, false
	}

	subject, ok := subjectFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "not authenticated")
		return "", 0, realtime.Subject{}, false
	}

	jobID := chi.URLParam(r, "jobID")
	gardenID, err := automation.ParseGardenID(jobID)
	if err != nil {
		s.requestFailed(w, r, err)
		return "", 0, realtime.Subject{}, false
	}

	if err := s.checkGardenAccess(r.Context(), subject, gardenID); err != nil {
		s.requestFailed(w, r, err)
		return "", 0, realtime.Subject{}, false
	}
	return jobID, gardenID, subject, true
}

// checkGardenAccess allows the garden's owner and the garden's own agent.
func (s *Server) checkGardenAccess(ctx context.Context, subject realtime.Subject, gardenID int64) error {
	switch subject.Kind {
	case realtime.SubjectUser:
		garden, err := s.gardens.GardenByID(ctx, gardenID)
		if err != nil {
			return err
		}
		if garden.UserID == nil || *garden.UserID != subject.ID {
			return fmt.Errorf("%w: %d", errGardenForbidden, gardenID)
		}
		return nil
	case realtime.SubjectAgent:
		agent, err := s.gardens.AgentByGarden(ctx, gardenID)
		if err != nil {
			if errors.Is(err, device.ErrAgentNotFound) {
				return fmt.Errorf("%w: %d", errGardenForbidden, gardenID)
			}
			return err
		}
		if agent.ID != subject.ID {
			return fmt.Errorf("%w: %d", errGardenForbidden, gardenID)
		}
		return nil
	default:
		return fmt.Errorf("%w: %d", errGardenForbidden, gardenID)
	}
}

func (s *Server) requestFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errGardenForbidden) {
		writeForbidden(w, "no access to this garden")
		return
	}
	if status := writeScheduleError(w, err); status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	}
}

// decodeBody decodes a JSON request body, writing 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func actorFor(subject realtime.Subject) automation.Actor {
	if subject.Kind == realtime.SubjectAgent {
		return automation.ActorAgent
	}
	return automation.ActorUser
}
