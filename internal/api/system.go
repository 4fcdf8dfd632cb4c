package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/scoreline-core/internal/history"
)

// handleListHistory returns recorded finished games, newest first.
//
// Query parameters: league, device, limit.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"entries": []history.Entry{},
			"count":   0,
		})
		return
	}

	filter := history.Filter{
		League: r.URL.Query().Get("league"),
		Device: r.URL.Query().Get("device"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	entries, err := s.history.List(r.Context(), filter)
	if err != nil {
		writeInternalError(w, "history query failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// discoveryScanWindow bounds one mDNS browse.
const discoveryScanWindow = 5 * time.Second

// handleDiscoveryScan browses the local network for WLED devices.
// The scan blocks for the full window; callers should expect a few seconds.
func (s *Server) handleDiscoveryScan(w http.ResponseWriter, r *http.Request) {
	devices, err := s.scanner(r.Context(), discoveryScanWindow)
	if err != nil {
		writeInternalError(w, "discovery scan failed: "+err.Error())
		return
	}

	// Flag hosts that are already configured.
	cfg := s.store.Get()
	type found struct {
		Host       string `json:"host"`
		Name       string `json:"name"`
		Addr       string `json:"addr"`
		Port       int    `json:"port"`
		Configured bool   `json:"configured"`
	}
	out := make([]found, 0, len(devices))
	for _, dev := range devices {
		out = append(out, found{
			Host:       dev.Host,
			Name:       dev.Name,
			Addr:       dev.Addr,
			Port:       dev.Port,
			Configured: cfg.Device(dev.Host) != nil,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": out,
		"count":   len(out),
	})
}

// handleConfigReload re-reads the configuration file from disk.
func (s *Server) handleConfigReload(w http.ResponseWriter, _ *http.Request) {
	if err := s.store.Reload(); err != nil {
		writeBadRequest(w, "config reload failed: "+err.Error())
		return
	}

	s.logger.Info("configuration reloaded via API")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}
