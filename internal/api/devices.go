package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gardencore/internal/device"
	"github.com/nerrad567/gardencore/internal/realtime"
)

// boardCommand is a whole-board command sent on {mac}/reset, /stop or /resume.
type boardCommand string

const (
	boardReset  boardCommand = "reset"
	boardStop   boardCommand = "stop"
	boardResume boardCommand = "resume"
)

type commandResponse struct {
	Command string `json:"command"`
	Boards  int    `json:"boards"`
}

// handleControlDevices switches one actuator kind on every board of a
// garden. {target}/{action} is a control path such as "water/on".
func (s *Server) handleControlDevices(w http.ResponseWriter, r *http.Request) {
	if !s.devicesConfigured(w) {
		return
	}
	subject, ok := subjectFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "not authenticated")
		return
	}
	gardenID, err := strconv.ParseInt(chi.URLParam(r, "gardenID"), 10, 64)
	if err != nil || gardenID <= 0 {
		writeBadRequest(w, "invalid garden id")
		return
	}
	if err := s.checkGardenAccess(r.Context(), subject, gardenID); err != nil {
		s.requestFailed(w, r, err)
		return
	}

	path := chi.URLParam(r, "target") + "/" + chi.URLParam(r, "action")
	kind, action, err := device.ParseControlPath(path)
	if err != nil {
		s.requestFailed(w, r, err)
		return
	}

	esps, err := s.boards.ESPsByGarden(r.Context(), gardenID)
	if err != nil {
		s.requestFailed(w, r, err)
		return
	}
	if err := s.commands.ControlDevice(r.Context(), esps, kind, action); err != nil {
		s.requestFailed(w, r, err)
		return
	}

	s.record(r, gardenID, "", "device_control", subject, nil, map[string]any{"command": path})
	writeJSON(w, http.StatusAccepted, commandResponse{Command: path, Boards: len(esps)})
}

// handleBoardCommand returns a handler sending cmd to one board.
func (s *Server) handleBoardCommand(cmd boardCommand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.devicesConfigured(w) {
			return
		}
		subject, ok := subjectFromContext(r.Context())
		if !ok {
			writeUnauthorized(w, "not authenticated")
			return
		}
		espID, err := strconv.ParseInt(chi.URLParam(r, "espID"), 10, 64)
		if err != nil || espID <= 0 {
			writeBadRequest(w, "invalid esp id")
			return
		}

		esp, err := s.boards.ESPByID(r.Context(), espID)
		if err != nil {
			s.requestFailed(w, r, err)
			return
		}
		if err := s.checkBoardAccess(r, subject, esp); err != nil {
			s.requestFailed(w, r, err)
			return
		}

		switch cmd {
		case boardReset:
			err = s.commands.Reset(r.Context(), *esp)
		case boardStop:
			err = s.commands.Stop(r.Context(), *esp)
		case boardResume:
			err = s.commands.Resume(r.Context(), *esp)
		}
		if err != nil {
			s.requestFailed(w, r, err)
			return
		}

		if esp.GardenID != nil {
			s.record(r, *esp.GardenID, "", "board_"+string(cmd), subject, nil, map[string]any{"esp_id": esp.ID})
		}
		writeJSON(w, http.StatusAccepted, commandResponse{Command: string(cmd), Boards: 1})
	}
}

// checkBoardAccess lets a user act on a board they own, and any subject
// act on a board in a garden they can access.
func (s *Server) checkBoardAccess(r *http.Request, subject realtime.Subject, esp *device.ESP) error {
	if subject.Kind == realtime.SubjectUser && esp.UserID != nil && *esp.UserID == subject.ID {
		return nil
	}
	if esp.GardenID == nil {
		return fmt.Errorf("%w: esp %d", errGardenForbidden, esp.ID)
	}
	return s.checkGardenAccess(r.Context(), subject, *esp.GardenID)
}

func (s *Server) devicesConfigured(w http.ResponseWriter) bool {
	if s.boards == nil || s.commands == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "device control is not configured")
		return false
	}
	return true
}
