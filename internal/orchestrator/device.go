package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/scoreline-core/internal/infrastructure/config"
	"github.com/nerrad567/scoreline-core/internal/scorefeed"
)

// gameRef identifies the game a device is currently rendering.
type gameRef struct {
	league string
	sport  string
	gameID string
}

// deviceState is the runtime state of one device. Owned exclusively by the
// orchestrator; one instance per configured device.
//
// Locking: mu guards every field. It is held for state decisions only,
// never across a network call. Pushes are serialized per device by
// pushMu so overlapping ticks cannot interleave segment updates.
type deviceState struct {
	mu     sync.Mutex
	pushMu sync.Mutex

	host string
	cfg  config.DeviceConfig
	link DeviceLink

	mode Mode
	game *gameRef

	// gen increments on every ownership transition (watch, stop,
	// simulate, post-game hand-off, detach, release). A push decided
	// under one generation is dropped if the device has since moved
	// on, so a slow render can never overwrite a later stop.
	gen uint64

	// sessionID identifies one watch or simulation run across events,
	// status reads and the final record.
	sessionID string

	// Last observed game data, for status reporting.
	lastSnap   *scorefeed.GameSnapshot
	lastStatus scorefeed.Status
	lastUpdate time.Time

	// prevPreset is the device preset captured when a watch started from
	// Idle; zero means none. Consumed by the restore post-game action.
	prevPreset int

	// simPreset is the preset captured when a simulation started.
	simPreset int
	simParams SimulateParams

	// seqCancel aborts an in-flight flash or fade sequence.
	seqCancel context.CancelFunc

	// failCount counts consecutive failed polls for the staleness policy.
	failCount int
}

// cancelSequence aborts any in-flight post-game or fade sequence.
// Caller must hold dev.mu.
func (d *deviceState) cancelSequence() {
	if d.seqCancel != nil {
		d.seqCancel()
		d.seqCancel = nil
	}
}

// watching reports whether the device is attached to a real game.
// Caller must hold dev.mu.
func (d *deviceState) watching() bool {
	return d.mode == ModeWatching || d.mode == ModeAutoWatching
}

// clearGame drops the game reference and counters after a watch ends.
// Caller must hold dev.mu.
func (d *deviceState) clearGame() {
	d.game = nil
	d.lastSnap = nil
	d.lastStatus = scorefeed.StatusUnknown
	d.failCount = 0
	d.sessionID = ""
}

// status builds a DeviceStatus snapshot. Caller must hold dev.mu.
func (d *deviceState) status() DeviceStatus {
	s := DeviceStatus{
		Host:                d.host,
		Name:                d.cfg.Name,
		Mode:                d.mode,
		SessionID:           d.sessionID,
		ConsecutiveFailures: d.failCount,
		LastUpdate:          d.lastUpdate,
	}
	if d.game != nil {
		s.League = d.game.league
		s.GameID = d.game.gameID
	}
	if d.lastSnap != nil {
		s.HomeTeam = d.lastSnap.Home.Abbreviation
		s.AwayTeam = d.lastSnap.Away.Abbreviation
		s.HomeScore = d.lastSnap.Home.Score
		s.AwayScore = d.lastSnap.Away.Score
		s.WinPct = d.lastSnap.HomeWinPct
		s.Detail = d.lastSnap.Detail
	}
	if d.mode == ModeSimulating {
		s.League = d.simParams.League
		s.HomeTeam = d.simParams.Home
		s.AwayTeam = d.simParams.Away
		s.WinPct = d.simParams.WinPct
	}
	return s
}
