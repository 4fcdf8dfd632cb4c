package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/scoreline-core/internal/infrastructure/config"
	"github.com/nerrad567/scoreline-core/internal/orchestrator"
)

// deviceResponse joins a device's configuration with its runtime status.
type deviceResponse struct {
	config.DeviceConfig
	Status *orchestrator.DeviceStatus `json:"status,omitempty"`
}

// handleListDevices returns every configured device with runtime status.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	cfg := s.store.Get()

	out := make([]deviceResponse, 0, len(cfg.Devices))
	for _, dev := range cfg.Devices {
		resp := deviceResponse{DeviceConfig: dev}
		if status, err := s.orch.Status(dev.Host); err == nil {
			resp.Status = &status
		}
		out = append(out, resp)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": out,
		"count":   len(out),
	})
}

// handleGetDevice returns one device's configuration and runtime status.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")

	dev := s.store.Get().Device(host)
	if dev == nil {
		writeNotFound(w, "device not found: "+host)
		return
	}

	resp := deviceResponse{DeviceConfig: *dev}
	if status, err := s.orch.Status(host); err == nil {
		resp.Status = &status
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCreateDevice adds a device to the configuration.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var dev config.DeviceConfig
	if err := json.NewDecoder(r.Body).Decode(&dev); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	if err := s.store.AddDevice(dev); err != nil {
		if errors.Is(err, config.ErrDeviceExists) {
			writeConflict(w, err.Error())
			return
		}
		writeBadRequest(w, err.Error())
		return
	}

	s.logger.Info("device created", "host", dev.Host)
	writeJSON(w, http.StatusCreated, dev)
}

// handleDeleteDevice removes a device from the configuration.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")

	if err := s.store.RemoveDevice(host); err != nil {
		if errors.Is(err, config.ErrDeviceNotFound) {
			writeNotFound(w, err.Error())
			return
		}
		writeInternalError(w, err.Error())
		return
	}

	s.logger.Info("device deleted", "host", host)
	writeJSON(w, http.StatusOK, map[string]string{"deleted": host})
}

// handleUpdateDisplay replaces a device's display override.
// A null body clears the override so the device follows the global defaults.
func (s *Server) handleUpdateDisplay(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")

	var display *config.DisplayConfig
	if err := json.NewDecoder(r.Body).Decode(&display); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	if err := s.store.UpdateDeviceDisplay(host, display); err != nil {
		if errors.Is(err, config.ErrDeviceNotFound) {
			writeNotFound(w, err.Error())
			return
		}
		writeBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"updated": host})
}

// handleUpdatePostGame replaces a device's post-game override.
func (s *Server) handleUpdatePostGame(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")

	var postGame *config.PostGameConfig
	if err := json.NewDecoder(r.Body).Decode(&postGame); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	if err := s.store.UpdateDevicePostGame(host, postGame); err != nil {
		if errors.Is(err, config.ErrDeviceNotFound) {
			writeNotFound(w, err.Error())
			return
		}
		writeBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"updated": host})
}

// handleUpdateWatchList replaces a device's auto-watch list.
func (s *Server) handleUpdateWatchList(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")

	var body struct {
		WatchList []string `json:"watch_list"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	if err := s.store.UpdateWatchList(host, body.WatchList); err != nil {
		if errors.Is(err, config.ErrDeviceNotFound) {
			writeNotFound(w, err.Error())
			return
		}
		writeBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"updated":    host,
		"watch_list": body.WatchList,
	})
}

// handleStatusAll returns runtime status for the whole fleet.
func (s *Server) handleStatusAll(w http.ResponseWriter, _ *http.Request) {
	statuses := s.orch.StatusAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": statuses,
		"count":   len(statuses),
	})
}
