package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// filePermissions is the permission mode for the persisted config file.
const filePermissions = 0600

// Logger defines the logging interface used by the Store and Watcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store owns the live configuration instance.
//
// All consumers hold a *Store and call Get() for the current snapshot; the
// returned *Config must be treated as immutable. Mutations are applied to a
// clone, validated, persisted to disk, and then swapped in atomically under
// the store lock, so a failed mutation never disturbs the running config.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Store struct {
	mu       sync.RWMutex
	path     string
	cfg      *Config
	onChange []func(*Config)
	logger   Logger
}

// NewStore loads the configuration file and returns a store around it.
func NewStore(path string) (*Store, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{
		path:   path,
		cfg:    cfg,
		logger: noopLogger{},
	}, nil
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.mu.Lock()
	s.logger = logger
	s.mu.Unlock()
}

// Get returns the current configuration snapshot.
// Callers must not modify the returned value.
func (s *Store) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Subscribe registers a callback invoked with the new snapshot after every
// successful reload or mutation. Callbacks run synchronously on the mutating
// goroutine and must not call back into the store's mutation methods.
func (s *Store) Subscribe(fn func(*Config)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Reload re-reads the configuration file and swaps in the result.
// An unreadable or invalid file leaves the current config untouched.
func (s *Store) Reload() error {
	cfg, err := Load(s.path)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}

	s.mu.Lock()
	s.cfg = cfg
	subs := append([]func(*Config){}, s.onChange...)
	s.mu.Unlock()

	s.logger.Info("configuration reloaded", "path", s.path, "devices", len(cfg.Devices))
	for _, fn := range subs {
		fn(cfg)
	}
	return nil
}

// mutate clones the current config, applies fn, validates, persists and
// swaps the result in. Any failure leaves the prior config in place.
func (s *Store) mutate(fn func(*Config) error) error {
	s.mu.Lock()
	next := s.cfg.Clone()
	s.mu.Unlock()

	if err := fn(next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if err := s.save(next); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = next
	subs := append([]func(*Config){}, s.onChange...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
	return nil
}

// save persists a config to disk via write-then-rename so a crash mid-write
// never truncates the live file.
func (s *Store) save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, filePermissions); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// AddDevice appends a new device to the fleet and persists the change.
func (s *Store) AddDevice(dev DeviceConfig) error {
	return s.mutate(func(c *Config) error {
		if c.Device(dev.Host) != nil {
			return fmt.Errorf("%w: %s", ErrDeviceExists, dev.Host)
		}
		c.Devices = append(c.Devices, dev)
		return nil
	})
}

// RemoveDevice deletes a device from the fleet and persists the change.
func (s *Store) RemoveDevice(host string) error {
	return s.mutate(func(c *Config) error {
		for i := range c.Devices {
			if c.Devices[i].Host == host {
				c.Devices = append(c.Devices[:i], c.Devices[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, host)
	})
}

// UpdateDeviceDisplay replaces a device's display override.
// A nil display clears the override, falling back to the global section.
func (s *Store) UpdateDeviceDisplay(host string, display *DisplayConfig) error {
	return s.mutate(func(c *Config) error {
		dev := c.Device(host)
		if dev == nil {
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, host)
		}
		dev.Display = display
		return nil
	})
}

// UpdateDevicePostGame replaces a device's post-game override.
// A nil policy clears the override, falling back to the global section.
func (s *Store) UpdateDevicePostGame(host string, postGame *PostGameConfig) error {
	return s.mutate(func(c *Config) error {
		dev := c.Device(host)
		if dev == nil {
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, host)
		}
		dev.PostGame = postGame
		return nil
	})
}

// UpdateWatchList replaces a device's auto-watch list.
func (s *Store) UpdateWatchList(host string, watchList []string) error {
	return s.mutate(func(c *Config) error {
		dev := c.Device(host)
		if dev == nil {
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, host)
		}
		dev.WatchList = append([]string{}, watchList...)
		return nil
	})
}

// UpdateSimulator replaces the simulator defaults.
func (s *Store) UpdateSimulator(sim SimulatorConfig) error {
	return s.mutate(func(c *Config) error {
		c.Simulator = sim
		return nil
	})
}

// Clone creates a complete independent copy of the Config.
// All slice and map fields are cloned so modifications to the copy do not
// affect the original.
func (c *Config) Clone() *Config {
	cpy := *c

	if c.Devices != nil {
		cpy.Devices = make([]DeviceConfig, len(c.Devices))
		for i := range c.Devices {
			cpy.Devices[i] = c.Devices[i].clone()
		}
	}

	if c.Leagues != nil {
		cpy.Leagues = make(map[string]LeagueConfig, len(c.Leagues))
		for id, league := range c.Leagues {
			cpy.Leagues[id] = league.clone()
		}
	}

	return &cpy
}

func (d DeviceConfig) clone() DeviceConfig {
	cpy := d
	if d.Display != nil {
		display := *d.Display
		cpy.Display = &display
	}
	if d.PostGame != nil {
		postGame := *d.PostGame
		cpy.PostGame = &postGame
	}
	if d.WatchList != nil {
		cpy.WatchList = append([]string{}, d.WatchList...)
	}
	return cpy
}

func (l LeagueConfig) clone() LeagueConfig {
	cpy := l
	if l.Teams != nil {
		cpy.Teams = make(map[string]TeamConfig, len(l.Teams))
		for abbr, team := range l.Teams {
			t := team
			if team.Colors != nil {
				t.Colors = append([]RGB{}, team.Colors...)
			}
			cpy.Teams[abbr] = t
		}
	}
	return cpy
}
