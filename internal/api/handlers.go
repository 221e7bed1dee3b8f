package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lafe/teams2mqtt/internal/bridge"
	"github.com/lafe/teams2mqtt/internal/teams"
)

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	Upstream        string `json:"upstream"`
	BrokerEnabled   bool   `json:"broker_enabled"`
	BrokerConnected bool   `json:"broker_connected"`
}

// handleHealth reports 200 when the upstream connection is open and the
// broker, if enabled, is connected. Otherwise it reports 503.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.bridge.Status()

	resp := HealthResponse{
		Status:          "ok",
		Version:         s.version,
		Upstream:        st.Upstream,
		BrokerEnabled:   st.BrokerEnabled,
		BrokerConnected: st.BrokerConnected,
	}

	status := http.StatusOK
	if st.Upstream != teams.StateOpen.String() || (st.BrokerEnabled && !st.BrokerConnected) {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

func (s *Server) handleMeeting(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.bridge.Status())
}

func (s *Server) handleListCommands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"commands": bridge.Commands()})
}

// handleExecuteCommand runs one command. The upstream client acknowledges
// asynchronously, so success means the command was sent or skipped.
func (s *Server) handleExecuteCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.bridge.Execute(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"command": id, "status": "accepted"})
	case errors.Is(err, bridge.ErrUnknownCommand):
		writeNotFound(w, "unknown command: "+id)
	default:
		s.logger.Error("command failed", "command", id, "error", err, "request_id", r.Context().Value(ctxKeyRequestID))
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
	}
}
