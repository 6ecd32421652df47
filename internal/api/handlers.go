package api

import (
	"log/slog"
	"net/http"

	"github.com/edusuite/schoolbot/internal/models"
)

// healthHandler reports liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.healthHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("schoolbot is running", nil))
}

// sessionsResult is the payload returned by the sessions endpoint.
type sessionsResult struct {
	Active int                      `json:"active"`
	States map[models.StateType]int `json:"states"`
}

// sessionsHandler reports the number of live dialogue sessions and their
// per-state breakdown. It never exposes session scratch data.
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.sessionsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	result := sessionsResult{
		Active: s.sessions.Len(),
		States: s.sessions.States(),
	}
	slog.Debug("Server.sessionsHandler: reporting sessions", "active", result.Active)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}
