package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/scoreline-core/internal/discovery"
	"github.com/nerrad567/scoreline-core/internal/infrastructure/config"
	"github.com/nerrad567/scoreline-core/internal/infrastructure/logging"
	"github.com/nerrad567/scoreline-core/internal/orchestrator"
	"github.com/nerrad567/scoreline-core/internal/scorefeed"
	"github.com/nerrad567/scoreline-core/internal/teams"
)

const testConfig = `
leagues:
  nfl:
    name: "NFL"
    sport: "football/nfl"
    teams:
      GB:
        display: "Green Bay Packers"
        colors: [[24, 48, 40], [255, 184, 28]]
devices:
  - host: "wled-den.local"
    name: "Den Strip"
    start: 0
    end: 300
`

// mockConductor records calls and returns canned results.
type mockConductor struct {
	watchCalls    []string
	stopCalls     []string
	simulateCalls []orchestrator.SimulateParams
	simStopCalls  []string
	err           error
}

func (m *mockConductor) Watch(_ context.Context, host, league, gameID string) error {
	m.watchCalls = append(m.watchCalls, fmt.Sprintf("%s/%s/%s", host, league, gameID))
	return m.err
}

func (m *mockConductor) Stop(_ context.Context, host string) error {
	m.stopCalls = append(m.stopCalls, host)
	return m.err
}

func (m *mockConductor) Simulate(_ context.Context, _ string, params orchestrator.SimulateParams) error {
	m.simulateCalls = append(m.simulateCalls, params)
	return m.err
}

func (m *mockConductor) SimulateStop(_ context.Context, host string) error {
	m.simStopCalls = append(m.simStopCalls, host)
	return m.err
}

func (m *mockConductor) Status(host string) (orchestrator.DeviceStatus, error) {
	if m.err != nil {
		return orchestrator.DeviceStatus{}, m.err
	}
	return orchestrator.DeviceStatus{Host: host, Mode: orchestrator.ModeIdle}, nil
}

func (m *mockConductor) StatusAll() []orchestrator.DeviceStatus {
	return []orchestrator.DeviceStatus{
		{Host: "wled-den.local", Mode: orchestrator.ModeIdle},
	}
}

// mockFeed serves a fixed scoreboard.
type mockFeed struct {
	games []scorefeed.GameSummary
	err   error
}

func (m *mockFeed) GetScoreboard(context.Context, string, string) ([]scorefeed.GameSummary, error) {
	return m.games, m.err
}

func newTestServer(t *testing.T) (*Server, *mockConductor) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	store, err := config.NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	conductor := &mockConductor{}
	srv, err := New(Deps{
		Config:       store,
		Orchestrator: conductor,
		Teams:        teams.NewDirectory(store),
		Feed: &mockFeed{games: []scorefeed.GameSummary{
			{ID: "401547001", Status: scorefeed.StatusIn},
		}},
		Logger: logging.New(config.LoggingConfig{Level: "error", Format: "json"}, "test"),
		Scanner: func(context.Context, time.Duration) ([]discovery.Device, error) {
			return []discovery.Device{
				{Host: "wled-den.local", Name: "Den", Addr: "192.168.1.50", Port: 80},
				{Host: "wled-new.local", Name: "New", Addr: "192.168.1.51", Port: 80},
			}, nil
		},
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, conductor
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
}

func TestHandleListLeagues(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/leagues", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(1) {
		t.Errorf("count = %v, want 1", body["count"])
	}
}

func TestHandleListTeams_UnknownLeague(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/leagues/mls/teams", nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleListGames(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/leagues/nfl/games", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(1) {
		t.Errorf("count = %v, want 1", body["count"])
	}
}

func TestDeviceLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	newDev := map[string]any{
		"host": "wled-bar.local", "name": "Bar", "start": 0, "end": 120,
	}
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices", newDev)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	// Duplicate host is a conflict.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/devices", newDev)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/devices/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["count"] != float64(2) {
		t.Errorf("device count = %v, want 2", body["count"])
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/v1/devices/wled-bar.local", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/v1/devices/wled-bar.local", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing status = %d, want 404", rec.Code)
	}
}

func TestHandleWatch(t *testing.T) {
	srv, conductor := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/wled-den.local/watch",
		map[string]string{"league": "nfl", "game_id": "401547001"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(conductor.watchCalls) != 1 || conductor.watchCalls[0] != "wled-den.local/nfl/401547001" {
		t.Errorf("watchCalls = %v", conductor.watchCalls)
	}
}

func TestHandleWatch_MissingFields(t *testing.T) {
	srv, conductor := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/wled-den.local/watch",
		map[string]string{"league": "nfl"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(conductor.watchCalls) != 0 {
		t.Error("invalid request reached the orchestrator")
	}
}

func TestHandleWatch_UnknownDevice(t *testing.T) {
	srv, conductor := newTestServer(t)
	conductor.err = orchestrator.ErrUnknownDevice

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/nope.local/watch",
		map[string]string{"league": "nfl", "game_id": "401547001"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleSimulate_InvalidWinPct(t *testing.T) {
	srv, conductor := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/wled-den.local/simulate",
		map[string]any{"league": "nfl", "home": "GB", "away": "CHI", "win_pct": 1.5})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(conductor.simulateCalls) != 0 {
		t.Error("invalid simulate reached the orchestrator")
	}
}

func TestHandleStop_Conflict(t *testing.T) {
	srv, conductor := newTestServer(t)
	conductor.err = orchestrator.ErrNotWatching

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/wled-den.local/stop", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestHandleStatusAll(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/status", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["count"] != float64(1) {
		t.Errorf("count = %v, want 1", body["count"])
	}
}

func TestHandleListHistory_NoRepository(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/history", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["count"] != float64(0) {
		t.Errorf("count = %v, want 0 without repository", body["count"])
	}
}

func TestHandleDiscoveryScan(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/discovery/scan", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	devices, ok := body["devices"].([]any)
	if !ok || len(devices) != 2 {
		t.Fatalf("devices = %v, want 2 entries", body["devices"])
	}

	// The configured host is flagged, the new one is not.
	first := devices[0].(map[string]any)
	if first["configured"] != true {
		t.Errorf("wled-den.local configured = %v, want true", first["configured"])
	}
	second := devices[1].(map[string]any)
	if second["configured"] != false {
		t.Errorf("wled-new.local configured = %v, want false", second["configured"])
	}
}

func TestHandleUpdateWatchList(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/v1/devices/wled-den.local/watchlist",
		map[string]any{"watch_list": []string{"nfl:GB"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	dev := srv.store.Get().Device("wled-den.local")
	if len(dev.WatchList) != 1 || dev.WatchList[0] != "nfl:GB" {
		t.Errorf("WatchList = %v, want [nfl:GB]", dev.WatchList)
	}
}

func TestHandleUpdateWatchList_UnknownLeague(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/v1/devices/wled-den.local/watchlist",
		map[string]any{"watch_list": []string{"mls:ATL"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown league", rec.Code)
	}
}

func TestHandleConfigReload(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/config/reload", nil)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}
