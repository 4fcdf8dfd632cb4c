package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/scoreline-core/internal/orchestrator"
	"github.com/nerrad567/scoreline-core/internal/scorefeed"
)

// handleWatch attaches a device to a live game.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")

	var body struct {
		League string `json:"league"`
		GameID string `json:"game_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if body.League == "" || body.GameID == "" {
		writeBadRequest(w, "league and game_id are required")
		return
	}

	if err := s.orch.Watch(r.Context(), host, body.League, body.GameID); err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	status, _ := s.orch.Status(host)
	writeJSON(w, http.StatusOK, status)
}

// handleStop detaches a device and turns it off.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")

	if err := s.orch.Stop(r.Context(), host); err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	status, _ := s.orch.Status(host)
	writeJSON(w, http.StatusOK, status)
}

// handleSimulate starts or updates a simulation on a device.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")

	var params orchestrator.SimulateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if params.WinPct < 0 || params.WinPct > 1 {
		writeBadRequest(w, "win_pct must be between 0 and 1")
		return
	}

	if err := s.orch.Simulate(r.Context(), host, params); err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	status, _ := s.orch.Status(host)
	writeJSON(w, http.StatusOK, status)
}

// handleSimulateStop ends a simulation.
func (s *Server) handleSimulateStop(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")

	if err := s.orch.SimulateStop(r.Context(), host); err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	status, _ := s.orch.Status(host)
	writeJSON(w, http.StatusOK, status)
}

// writeOrchestratorError maps orchestrator errors to HTTP responses.
func (s *Server) writeOrchestratorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrUnknownDevice):
		writeNotFound(w, err.Error())
	case errors.Is(err, orchestrator.ErrUnknownLeague):
		writeBadRequest(w, err.Error())
	case errors.Is(err, orchestrator.ErrNotWatching),
		errors.Is(err, orchestrator.ErrNotSimulating):
		writeConflict(w, err.Error())
	case errors.Is(err, scorefeed.ErrGameNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, scorefeed.ErrUpstream):
		writeUpstreamError(w, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
