package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Scoreline Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	API       APIConfig               `yaml:"api"`
	WebSocket WebSocketConfig         `yaml:"websocket"`
	Logging   LoggingConfig           `yaml:"logging"`
	Poller    PollerConfig            `yaml:"poller"`
	Feed      FeedConfig              `yaml:"feed"`
	Display   DisplayConfig           `yaml:"display"`
	PostGame  PostGameConfig          `yaml:"post_game"`
	Simulator SimulatorConfig         `yaml:"simulator"`
	History   HistoryConfig           `yaml:"history"`
	MQTT      MQTTConfig              `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig          `yaml:"influxdb"`
	Devices   []DeviceConfig          `yaml:"devices"`
	Leagues   map[string]LeagueConfig `yaml:"leagues"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// PollerConfig contains the intervals for the three background loops and the
// concurrency and staleness policies applied across the device fleet.
type PollerConfig struct {
	// ScoreInterval is how often watched games are polled (seconds).
	ScoreInterval int `yaml:"score_interval"`

	// AutoWatchInterval is how often watch lists are scanned for live games (seconds).
	AutoWatchInterval int `yaml:"auto_watch_interval"`

	// ReconcileInterval is how often observed device state is compared against
	// what the orchestrator believes it pushed (seconds).
	ReconcileInterval int `yaml:"reconcile_interval"`

	// MaxConcurrentPushes bounds concurrent render-and-push fan-out per tick.
	MaxConcurrentPushes int `yaml:"max_concurrent_pushes"`

	// MaxConsecutiveFailures stops a device's watch after this many failed
	// polls in a row. 0 disables the policy and stale state is kept forever.
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures"`
}

// FeedConfig contains score feed client settings.
type FeedConfig struct {
	// BaseURL overrides the upstream API root. Empty means the public default.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// RGB is a single color triple as stored in YAML ([r, g, b]).
type RGB [3]uint8

// DisplayConfig contains the parameters of the win-probability layout.
// A copy exists at the root (global defaults) and optionally per device.
type DisplayConfig struct {
	// MinTeamPct is the minimum share of team pixels either side keeps,
	// regardless of how lopsided the probability gets. Must be in (0, 0.5).
	MinTeamPct float64 `yaml:"min_team_pct"`

	// ContestedZonePixels is the width of the divider bar between the teams.
	ContestedZonePixels int `yaml:"contested_zone_pixels"`

	// DarkBufferPixels is the width of the dark gap on each side of the divider.
	DarkBufferPixels int `yaml:"dark_buffer_pixels"`

	// TransitionMS is the device-side transition time for state pushes.
	TransitionMS int `yaml:"transition_ms"`

	// ChaseSpeed is the base chase effect speed (0-255) before tension modulation.
	ChaseSpeed int `yaml:"chase_speed"`

	// ChaseIntensity controls chase segment sizing (0-255, higher = smaller).
	ChaseIntensity int `yaml:"chase_intensity"`

	// DividerPreset selects the divider animation: scanner, solid or blend.
	DividerPreset string `yaml:"divider_preset"`

	// DividerColor is the divider bar color.
	DividerColor RGB `yaml:"divider_color"`
}

// PostGameAction identifies the one-shot sequence run when a watched game ends.
type PostGameAction string

// PostGameAction constants.
const (
	PostGameOff          PostGameAction = "off"
	PostGameFadeOff      PostGameAction = "fade_off"
	PostGameFlashThenOff PostGameAction = "flash_then_off"
	PostGameRestore      PostGameAction = "restore"
	PostGamePreset       PostGameAction = "preset"
)

// AllPostGameActions returns all valid post-game action values.
func AllPostGameActions() []PostGameAction {
	return []PostGameAction{
		PostGameOff, PostGameFadeOff, PostGameFlashThenOff, PostGameRestore, PostGamePreset,
	}
}

// PostGameConfig contains the post-game policy. A copy exists at the root
// (global defaults) and optionally per device.
type PostGameConfig struct {
	Action PostGameAction `yaml:"action"`

	// FadeSeconds is the fade duration for fade_off (also the tail fade of
	// flash_then_off).
	FadeSeconds float64 `yaml:"fade_seconds"`

	// FlashCount is the number of winner-color flashes for flash_then_off.
	FlashCount int `yaml:"flash_count"`

	// FlashDurationMS is each on/off half-cycle for flash_then_off.
	FlashDurationMS int `yaml:"flash_duration_ms"`

	// PresetID is the device preset pushed by the preset action.
	PresetID int `yaml:"preset_id"`
}

// SimulatorConfig contains defaults for manual simulation runs.
type SimulatorConfig struct {
	League string  `yaml:"league"`
	Home   string  `yaml:"home"`
	Away   string  `yaml:"away"`
	WinPct float64 `yaml:"win_pct"`
}

// HistoryConfig contains the finished-game history database settings.
type HistoryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains the optional event broker connection settings.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      int    `yaml:"qos"`

	// ReconnectInitialDelay / ReconnectMaxDelay are in seconds.
	ReconnectInitialDelay int `yaml:"reconnect_initial_delay"`
	ReconnectMaxDelay     int `yaml:"reconnect_max_delay"`
}

// InfluxDBConfig contains the optional time-series database settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// DeviceConfig describes one controlled WLED device. Identity is the network
// host; the pixel range [Start, End) is the slice of the strip this install
// owns (anything outside is blacked out on every push).
type DeviceConfig struct {
	Host  string `yaml:"host"`
	Name  string `yaml:"name"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`

	// Display and PostGame override the global sections when present.
	Display  *DisplayConfig  `yaml:"display,omitempty"`
	PostGame *PostGameConfig `yaml:"post_game,omitempty"`

	// WatchList holds "league:team" pairs scanned by the auto-watch loop.
	WatchList []string `yaml:"watch_list,omitempty"`
}

// LeagueConfig describes one league: upstream sport identifier and team table.
type LeagueConfig struct {
	Name  string                `yaml:"name"`
	Sport string                `yaml:"sport"`
	Teams map[string]TeamConfig `yaml:"teams"`
}

// TeamConfig holds the display name and [primary, secondary] colors of a team.
type TeamConfig struct {
	Display string `yaml:"display"`
	Colors  []RGB  `yaml:"colors"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SCORELINE_SECTION_KEY
// For example: SCORELINE_API_PORT, SCORELINE_MQTT_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Poller: PollerConfig{
			ScoreInterval:       30,
			AutoWatchInterval:   120,
			ReconcileInterval:   60,
			MaxConcurrentPushes: 8,
		},
		Feed: FeedConfig{
			Timeout: 10,
		},
		Display: DisplayConfig{
			MinTeamPct:          0.05,
			ContestedZonePixels: 6,
			DarkBufferPixels:    4,
			TransitionMS:        500,
			ChaseSpeed:          185,
			ChaseIntensity:      190,
			DividerPreset:       "scanner",
			DividerColor:        RGB{200, 80, 0},
		},
		PostGame: PostGameConfig{
			Action:          PostGameFadeOff,
			FadeSeconds:     3.0,
			FlashCount:      3,
			FlashDurationMS: 500,
		},
		Simulator: SimulatorConfig{
			League: "nfl",
			Home:   "GB",
			Away:   "CHI",
			WinPct: 0.5,
		},
		History: HistoryConfig{
			Enabled:     true,
			Path:        "./data/scoreline.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Host:                  "localhost",
			Port:                  1883,
			ClientID:              "scoreline-core",
			QoS:                   1,
			ReconnectInitialDelay: 1,
			ReconnectMaxDelay:     60,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SCORELINE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SCORELINE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("SCORELINE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("SCORELINE_FEED_BASE_URL"); v != "" {
		cfg.Feed.BaseURL = v
	}
	if v := os.Getenv("SCORELINE_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("SCORELINE_MQTT_HOST"); v != "" {
		cfg.MQTT.Host = v
	}
	if v := os.Getenv("SCORELINE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("SCORELINE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv("SCORELINE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Poller.ScoreInterval < 1 {
		errs = append(errs, "poller.score_interval must be at least 1 second")
	}
	if c.Poller.AutoWatchInterval < 1 {
		errs = append(errs, "poller.auto_watch_interval must be at least 1 second")
	}
	if c.Poller.ReconcileInterval < 1 {
		errs = append(errs, "poller.reconcile_interval must be at least 1 second")
	}
	if c.Poller.MaxConcurrentPushes < 1 {
		errs = append(errs, "poller.max_concurrent_pushes must be at least 1")
	}
	if c.Poller.MaxConsecutiveFailures < 0 {
		errs = append(errs, "poller.max_consecutive_failures must not be negative")
	}

	if msg := validateDisplay("display", &c.Display); msg != "" {
		errs = append(errs, msg)
	}
	if msg := validatePostGame("post_game", &c.PostGame); msg != "" {
		errs = append(errs, msg)
	}

	seen := make(map[string]struct{}, len(c.Devices))
	for i := range c.Devices {
		dev := &c.Devices[i]
		prefix := fmt.Sprintf("devices[%d]", i)
		if dev.Host == "" {
			errs = append(errs, prefix+".host is required")
		}
		if _, dup := seen[dev.Host]; dup {
			errs = append(errs, prefix+".host duplicates "+dev.Host)
		}
		seen[dev.Host] = struct{}{}

		if dev.Start < 0 || dev.End <= dev.Start {
			errs = append(errs, prefix+": pixel range must satisfy 0 <= start < end")
		}
		if dev.Display != nil {
			if msg := validateDisplay(prefix+".display", dev.Display); msg != "" {
				errs = append(errs, msg)
			}
		}
		if dev.PostGame != nil {
			if msg := validatePostGame(prefix+".post_game", dev.PostGame); msg != "" {
				errs = append(errs, msg)
			}
		}
		for _, watch := range dev.WatchList {
			league, _, ok := SplitWatchTarget(watch)
			if !ok {
				errs = append(errs, fmt.Sprintf("%s.watch_list entry %q must be league:team", prefix, watch))
				continue
			}
			if _, known := c.Leagues[league]; !known {
				errs = append(errs, fmt.Sprintf("%s.watch_list references unknown league %q", prefix, league))
			}
		}
	}

	for id, league := range c.Leagues {
		if league.Sport == "" {
			errs = append(errs, fmt.Sprintf("leagues.%s.sport is required", id))
		}
		for abbr, team := range league.Teams {
			if len(team.Colors) != 0 && len(team.Colors) != 2 {
				errs = append(errs, fmt.Sprintf("leagues.%s.teams.%s.colors must hold exactly two triples", id, abbr))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validateDisplay checks one display section; returns "" when valid.
func validateDisplay(prefix string, d *DisplayConfig) string {
	switch {
	case d.MinTeamPct <= 0 || d.MinTeamPct >= 0.5:
		return prefix + ".min_team_pct must be in (0, 0.5)"
	case d.ContestedZonePixels < 0:
		return prefix + ".contested_zone_pixels must not be negative"
	case d.DarkBufferPixels < 0:
		return prefix + ".dark_buffer_pixels must not be negative"
	case d.ChaseSpeed < 0 || d.ChaseSpeed > 255:
		return prefix + ".chase_speed must be 0-255"
	case d.ChaseIntensity < 0 || d.ChaseIntensity > 255:
		return prefix + ".chase_intensity must be 0-255"
	}
	return ""
}

// validatePostGame checks one post-game section; returns "" when valid.
func validatePostGame(prefix string, p *PostGameConfig) string {
	valid := false
	for _, a := range AllPostGameActions() {
		if p.Action == a {
			valid = true
			break
		}
	}
	switch {
	case !valid:
		return fmt.Sprintf("%s.action %q is not a recognised post-game action", prefix, p.Action)
	case p.FadeSeconds < 0:
		return prefix + ".fade_seconds must not be negative"
	case p.FlashCount < 0:
		return prefix + ".flash_count must not be negative"
	case p.FlashDurationMS < 0:
		return prefix + ".flash_duration_ms must not be negative"
	}
	return ""
}

// Device returns the device config for a host, or nil if not configured.
func (c *Config) Device(host string) *DeviceConfig {
	for i := range c.Devices {
		if c.Devices[i].Host == host {
			return &c.Devices[i]
		}
	}
	return nil
}

// EffectiveDisplay returns the display parameters for a device, falling back
// to the global display section when the device carries no override.
func (c *Config) EffectiveDisplay(dev *DeviceConfig) DisplayConfig {
	if dev != nil && dev.Display != nil {
		return *dev.Display
	}
	return c.Display
}

// EffectivePostGame returns the post-game policy for a device, falling back
// to the global post_game section when the device carries no override.
func (c *Config) EffectivePostGame(dev *DeviceConfig) PostGameConfig {
	if dev != nil && dev.PostGame != nil {
		return *dev.PostGame
	}
	return c.PostGame
}

// SplitWatchTarget splits a "league:team" watch-list entry.
// League comparison is case-insensitive; team codes are upper-cased.
func SplitWatchTarget(s string) (league, team string, ok bool) {
	league, team, ok = strings.Cut(s, ":")
	if !ok || league == "" || team == "" {
		return "", "", false
	}
	return strings.ToLower(league), strings.ToUpper(team), true
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// ScorePollInterval returns the score polling interval as a Duration.
func (p PollerConfig) ScorePollInterval() time.Duration {
	return time.Duration(p.ScoreInterval) * time.Second
}

// AutoWatchPollInterval returns the auto-watch scan interval as a Duration.
func (p PollerConfig) AutoWatchPollInterval() time.Duration {
	return time.Duration(p.AutoWatchInterval) * time.Second
}

// ReconcilePollInterval returns the reconciliation interval as a Duration.
func (p PollerConfig) ReconcilePollInterval() time.Duration {
	return time.Duration(p.ReconcileInterval) * time.Second
}
