package config

import (
	"errors"
	"os"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestStore_AddDevice(t *testing.T) {
	store := newTestStore(t)

	err := store.AddDevice(DeviceConfig{Host: "wled-bar.local", Name: "Bar", Start: 0, End: 120})
	if err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}

	if store.Get().Device("wled-bar.local") == nil {
		t.Error("added device not present in snapshot")
	}

	// The change must survive a reload from disk.
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if store.Get().Device("wled-bar.local") == nil {
		t.Error("added device not persisted to disk")
	}
}

func TestStore_AddDevice_Duplicate(t *testing.T) {
	store := newTestStore(t)

	err := store.AddDevice(DeviceConfig{Host: "wled-den.local", Start: 0, End: 60})
	if !errors.Is(err, ErrDeviceExists) {
		t.Errorf("AddDevice() error = %v, want ErrDeviceExists", err)
	}
}

func TestStore_RemoveDevice(t *testing.T) {
	store := newTestStore(t)

	if err := store.RemoveDevice("wled-den.local"); err != nil {
		t.Fatalf("RemoveDevice() error = %v", err)
	}
	if store.Get().Device("wled-den.local") != nil {
		t.Error("removed device still present")
	}

	err := store.RemoveDevice("wled-den.local")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("RemoveDevice() second call error = %v, want ErrDeviceNotFound", err)
	}
}

func TestStore_FailedMutationLeavesConfigUntouched(t *testing.T) {
	store := newTestStore(t)
	before := store.Get()

	// An invalid display override must fail validation before the swap.
	err := store.UpdateDeviceDisplay("wled-den.local", &DisplayConfig{MinTeamPct: 2.0})
	if err == nil {
		t.Fatal("UpdateDeviceDisplay() expected validation error, got nil")
	}

	if store.Get() != before {
		t.Error("snapshot pointer changed after failed mutation")
	}
	if store.Get().Device("wled-den.local").Display != nil {
		t.Error("failed mutation left a display override behind")
	}
}

func TestStore_UpdateWatchList(t *testing.T) {
	store := newTestStore(t)

	if err := store.UpdateWatchList("wled-den.local", []string{"nfl:CHI", "nfl:GB"}); err != nil {
		t.Fatalf("UpdateWatchList() error = %v", err)
	}

	got := store.Get().Device("wled-den.local").WatchList
	if len(got) != 2 || got[0] != "nfl:CHI" {
		t.Errorf("watch list = %v, want [nfl:CHI nfl:GB]", got)
	}

	err := store.UpdateWatchList("wled-den.local", []string{"xfl:GB"})
	if err == nil {
		t.Error("UpdateWatchList() expected error for unknown league, got nil")
	}
}

func TestStore_SubscribeNotifiedOnMutation(t *testing.T) {
	store := newTestStore(t)

	var seen *Config
	store.Subscribe(func(c *Config) { seen = c })

	if err := store.UpdateSimulator(SimulatorConfig{League: "nfl", Home: "CHI", Away: "GB", WinPct: 0.8}); err != nil {
		t.Fatalf("UpdateSimulator() error = %v", err)
	}

	if seen == nil {
		t.Fatal("subscriber not invoked")
	}
	if seen.Simulator.Home != "CHI" {
		t.Errorf("subscriber snapshot Home = %q, want CHI", seen.Simulator.Home)
	}
	if seen != store.Get() {
		t.Error("subscriber received a different snapshot than Get()")
	}
}

func TestStore_ReloadInvalidFileKeepsCurrent(t *testing.T) {
	store := newTestStore(t)
	before := store.Get()

	if err := os.WriteFile(store.Path(), []byte("api: {port: -1}"), 0600); err != nil {
		t.Fatalf("failed to corrupt config: %v", err)
	}

	if err := store.Reload(); err == nil {
		t.Error("Reload() expected error for invalid file, got nil")
	}
	if store.Get() != before {
		t.Error("invalid reload replaced the snapshot")
	}
}

func TestConfig_Clone_Independent(t *testing.T) {
	cfg := defaultConfig()
	cfg.Devices = []DeviceConfig{{
		Host: "a.local", Start: 0, End: 50,
		WatchList: []string{"nfl:GB"},
		PostGame:  &PostGameConfig{Action: PostGameOff},
	}}
	cfg.Leagues = map[string]LeagueConfig{
		"nfl": {Sport: "football/nfl", Teams: map[string]TeamConfig{
			"GB": {Display: "Green Bay", Colors: []RGB{{1, 2, 3}, {4, 5, 6}}},
		}},
	}

	cpy := cfg.Clone()
	cpy.Devices[0].WatchList[0] = "nfl:CHI"
	cpy.Devices[0].PostGame.Action = PostGamePreset
	team := cpy.Leagues["nfl"].Teams["GB"]
	team.Colors[0] = RGB{9, 9, 9}

	if cfg.Devices[0].WatchList[0] != "nfl:GB" {
		t.Error("clone shares watch list backing array")
	}
	if cfg.Devices[0].PostGame.Action != PostGameOff {
		t.Error("clone shares post-game pointer")
	}
	if cfg.Leagues["nfl"].Teams["GB"].Colors[0] != (RGB{1, 2, 3}) {
		t.Error("clone shares team colors backing array")
	}
}
