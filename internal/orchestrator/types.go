package orchestrator

import (
	"context"
	"time"

	"github.com/nerrad567/scoreline-core/internal/history"
	"github.com/nerrad567/scoreline-core/internal/infrastructure/config"
	"github.com/nerrad567/scoreline-core/internal/scorefeed"
	"github.com/nerrad567/scoreline-core/internal/wled"
)

// Mode is the lifecycle state of one device.
type Mode string

// Device modes. AutoWatching differs from Watching only in how it was
// entered; auto-watched games attach exclusively to in-progress games
// found by the watch-list scan.
const (
	ModeIdle         Mode = "idle"
	ModeWatching     Mode = "watching"
	ModeAutoWatching Mode = "auto_watching"
	ModeSimulating   Mode = "simulating"
)

// ScoreFeed supplies game data. Implemented by scorefeed.Client.
type ScoreFeed interface {
	GetGame(ctx context.Context, league, sport, gameID string) (*scorefeed.GameSnapshot, error)
	GetScoreboard(ctx context.Context, league, sport string) ([]scorefeed.GameSummary, error)
}

// DeviceLink pushes and pulls raw device state. Implemented by wled.Client.
type DeviceLink interface {
	Push(ctx context.Context, state wled.State) error
	Pull(ctx context.Context) (*wled.State, error)
}

// LinkFactory creates a DeviceLink for a host. Injected so tests can
// substitute fakes without a network.
type LinkFactory func(host string) DeviceLink

// ColorSource resolves team colors and league sport paths.
// Implemented by teams.Directory.
type ColorSource interface {
	Colors(league, abbr string) []config.RGB
	Sport(league string) (string, error)
}

// EventSink receives orchestrator events for external consumers.
// Implementations must not block; publishing is advisory.
type EventSink interface {
	// Event publishes a one-shot event of the named type.
	Event(eventType string, payload any)

	// DeviceState publishes a device's current status, retained.
	DeviceState(host string, status DeviceStatus)
}

// Sampler records win-probability samples to a time-series store.
// Implemented by tsdb.Client.
type Sampler interface {
	WriteWinProbability(league, gameID, home, away string, winPct float64, homeScore, awayScore int)
	WriteGameFinal(league, gameID, winner string, finalPct float64)
}

// HistoryRecorder persists finished games. Implemented by history.SQLiteRepository.
type HistoryRecorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

// Logger defines the logging interface used by the orchestrator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NoopSink is an EventSink that discards everything.
type NoopSink struct{}

// Event implements EventSink.
func (NoopSink) Event(string, any) {}

// DeviceState implements EventSink.
func (NoopSink) DeviceState(string, DeviceStatus) {}

// SimulateParams configures a manual simulation run.
type SimulateParams struct {
	League string  `json:"league"`
	Home   string  `json:"home"`
	Away   string  `json:"away"`
	WinPct float64 `json:"win_pct"`
}

// DeviceStatus is a point-in-time snapshot of one device's runtime state,
// safe to serialize for the API and the event stream.
type DeviceStatus struct {
	Host      string `json:"host"`
	Name      string `json:"name"`
	Mode      Mode   `json:"mode"`
	SessionID string `json:"session_id,omitempty"`

	League   string `json:"league,omitempty"`
	GameID   string `json:"game_id,omitempty"`
	HomeTeam string `json:"home_team,omitempty"`
	AwayTeam string `json:"away_team,omitempty"`

	HomeScore int     `json:"home_score"`
	AwayScore int     `json:"away_score"`
	WinPct    float64 `json:"win_pct"`
	Detail    string  `json:"detail,omitempty"`

	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastUpdate          time.Time `json:"last_update,omitempty"`
}

// GameUpdateEvent is the payload published on every applied score poll.
type GameUpdateEvent struct {
	Host      string  `json:"host"`
	League    string  `json:"league"`
	GameID    string  `json:"game_id"`
	HomeTeam  string  `json:"home_team"`
	AwayTeam  string  `json:"away_team"`
	HomeScore int     `json:"home_score"`
	AwayScore int     `json:"away_score"`
	WinPct    float64 `json:"win_pct"`
	Detail    string  `json:"detail,omitempty"`
}

// GameFinalEvent is the payload published once per game-end transition.
type GameFinalEvent struct {
	SessionID string  `json:"session_id,omitempty"`
	Host      string  `json:"host"`
	League    string  `json:"league"`
	GameID    string  `json:"game_id"`
	HomeTeam  string  `json:"home_team"`
	AwayTeam  string  `json:"away_team"`
	HomeScore int     `json:"home_score"`
	AwayScore int     `json:"away_score"`
	Winner    string  `json:"winner"`
	FinalPct  float64 `json:"final_win_pct"`
	Action    string  `json:"action"`
}
