package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/scoreline-core/internal/history"
	"github.com/nerrad567/scoreline-core/internal/infrastructure/config"
	"github.com/nerrad567/scoreline-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/scoreline-core/internal/render"
	"github.com/nerrad567/scoreline-core/internal/scorefeed"
	"github.com/nerrad567/scoreline-core/internal/wled"
)

// Deps contains the dependencies for the orchestrator.
// Config, Feed, Links and Colors are required; the rest are optional.
type Deps struct {
	Config  *config.Store
	Feed    ScoreFeed
	Links   LinkFactory
	Colors  ColorSource
	Events  EventSink
	Sampler Sampler
	History HistoryRecorder
	Logger  Logger
}

// Orchestrator owns one state machine per configured device and drives
// the fleet from score polls, watch commands and reconciliation.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
//   - The registry lock guards structural changes; per-device locks
//     guard state transitions. Neither is held across a network call.
type Orchestrator struct {
	store   *config.Store
	feed    ScoreFeed
	links   LinkFactory
	colors  ColorSource
	events  EventSink
	sampler Sampler
	history HistoryRecorder
	logger  Logger

	mu      sync.RWMutex
	devices map[string]*deviceState

	// baseCtx parents post-game sequences so shutdown cancels them.
	ctxMu   sync.Mutex
	baseCtx context.Context

	wg sync.WaitGroup
}

// New creates an orchestrator and populates the registry from the current
// config snapshot. It subscribes to the store so config mutations and hot
// reloads resync the fleet.
//
// Returns:
//   - *Orchestrator: Ready orchestrator (loops start with Run)
//   - error: If a required dependency is missing
func New(deps Deps) (*Orchestrator, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("orchestrator: config store is required")
	}
	if deps.Feed == nil {
		return nil, fmt.Errorf("orchestrator: score feed is required")
	}
	if deps.Links == nil {
		return nil, fmt.Errorf("orchestrator: link factory is required")
	}
	if deps.Colors == nil {
		return nil, fmt.Errorf("orchestrator: color source is required")
	}
	if deps.Events == nil {
		deps.Events = NoopSink{}
	}
	if deps.Logger == nil {
		deps.Logger = noopLogger{}
	}

	o := &Orchestrator{
		store:   deps.Config,
		feed:    deps.Feed,
		links:   deps.Links,
		colors:  deps.Colors,
		events:  deps.Events,
		sampler: deps.Sampler,
		history: deps.History,
		logger:  deps.Logger,
		devices: make(map[string]*deviceState),
		baseCtx: context.Background(),
	}

	o.ApplyConfig(deps.Config.Get())
	deps.Config.Subscribe(o.ApplyConfig)

	return o, nil
}

// ApplyConfig syncs the device registry with a config snapshot.
//
// New devices are added idle; removed devices are dropped after cancelling
// any in-flight sequence; surviving devices pick up their new settings on
// the next render.
func (o *Orchestrator) ApplyConfig(cfg *config.Config) {
	o.mu.Lock()
	defer o.mu.Unlock()

	seen := make(map[string]struct{}, len(cfg.Devices))
	for _, devCfg := range cfg.Devices {
		seen[devCfg.Host] = struct{}{}
		if dev, ok := o.devices[devCfg.Host]; ok {
			dev.mu.Lock()
			dev.cfg = devCfg
			dev.mu.Unlock()
			continue
		}
		o.devices[devCfg.Host] = &deviceState{
			host: devCfg.Host,
			cfg:  devCfg,
			link: o.links(devCfg.Host),
			mode: ModeIdle,
		}
		o.logger.Info("device added", "host", devCfg.Host, "name", devCfg.Name)
	}

	for host, dev := range o.devices {
		if _, ok := seen[host]; ok {
			continue
		}
		dev.mu.Lock()
		dev.cancelSequence()
		dev.gen++
		dev.mu.Unlock()
		delete(o.devices, host)
		o.logger.Info("device removed", "host", host)
	}
}

// Close cancels in-flight sequences and waits for them to finish.
func (o *Orchestrator) Close() {
	o.mu.RLock()
	for _, dev := range o.devices {
		dev.mu.Lock()
		dev.cancelSequence()
		dev.mu.Unlock()
	}
	o.mu.RUnlock()
	o.wg.Wait()
}

// device returns the runtime state for a host.
func (o *Orchestrator) device(host string) (*deviceState, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	dev, ok := o.devices[host]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, host)
	}
	return dev, nil
}

// Watch attaches a device to a game.
//
// Entering from Idle captures the device's active preset so the restore
// post-game action has something to return to. Entering while Simulating
// clears the simulation without restoring: real games take priority.
//
// Parameters:
//   - ctx: Context for the initial fetch and push
//   - host: Device host from configuration
//   - league: Configured league identifier
//   - gameID: Upstream game identifier
//
// Returns:
//   - error: ErrUnknownDevice, ErrUnknownLeague, or feed errors from the
//     initial fetch
func (o *Orchestrator) Watch(ctx context.Context, host, league, gameID string) error {
	return o.startWatch(ctx, host, league, gameID, ModeWatching)
}

func (o *Orchestrator) startWatch(ctx context.Context, host, league, gameID string, mode Mode) error {
	dev, err := o.device(host)
	if err != nil {
		return err
	}

	sport, err := o.colors.Sport(league)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownLeague, league)
	}

	snap, err := o.feed.GetGame(ctx, league, sport, gameID)
	if err != nil {
		return fmt.Errorf("fetching game %s: %w", gameID, err)
	}

	// Best effort; an unreachable device still gets a watch, the preset
	// capture just comes up empty.
	preset := o.capturePreset(ctx, dev)

	dev.mu.Lock()
	dev.cancelSequence()
	if dev.mode == ModeIdle {
		dev.prevPreset = preset
	}
	if dev.mode == ModeSimulating {
		// Simulation loses to a real game, no restore.
		dev.simPreset = 0
		dev.simParams = SimulateParams{}
	}
	dev.mode = mode
	dev.game = &gameRef{league: league, sport: sport, gameID: gameID}
	dev.sessionID = uuid.NewString()
	dev.failCount = 0
	dev.lastStatus = scorefeed.StatusUnknown
	dev.gen++
	session := dev.sessionID
	dev.mu.Unlock()

	o.events.Event(mqtt.EventWatchStarted, map[string]string{
		"session_id": session,
		"host":       host,
		"league":     league,
		"game_id":    gameID,
		"mode":       string(mode),
	})

	o.handleSnapshot(ctx, dev, snap)
	return nil
}

// Stop detaches a device from its game and turns it off immediately.
// No post-game sequence runs; a post-game sequence already in flight is
// cancelled and the device still goes dark.
func (o *Orchestrator) Stop(ctx context.Context, host string) error {
	dev, err := o.device(host)
	if err != nil {
		return err
	}

	dev.mu.Lock()
	if !dev.watching() && dev.seqCancel == nil {
		dev.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotWatching, host)
	}
	dev.cancelSequence()
	dev.mode = ModeIdle
	dev.clearGame()
	dev.prevPreset = 0
	dev.gen++
	gen := dev.gen
	devCfg := dev.cfg
	dev.mu.Unlock()

	transition := o.store.Get().EffectiveDisplay(&devCfg).TransitionMS
	o.pushState(ctx, dev, gen, wled.State{
		On:         wled.Bool(false),
		Transition: wled.Int(transition / 100),
	})

	o.events.Event(mqtt.EventWatchStopped, map[string]string{"host": host})
	o.publishDeviceState(dev)
	return nil
}

// Simulate puts a device into simulation mode at a fixed win probability.
//
// Re-simulating an already simulating device only re-renders; the captured
// simulation preset is kept from the first entry. Empty params fall back
// to the configured simulator defaults.
func (o *Orchestrator) Simulate(ctx context.Context, host string, params SimulateParams) error {
	dev, err := o.device(host)
	if err != nil {
		return err
	}

	cfg := o.store.Get()
	if params.League == "" {
		params.League = cfg.Simulator.League
		if params.Home == "" && params.Away == "" {
			params.Home = cfg.Simulator.Home
			params.Away = cfg.Simulator.Away
		}
	}
	if params.WinPct < 0 {
		params.WinPct = 0
	}
	if params.WinPct > 1 {
		params.WinPct = 1
	}

	preset := o.capturePreset(ctx, dev)

	dev.mu.Lock()
	dev.cancelSequence()
	if dev.mode != ModeSimulating {
		// Leaving a watch for a simulation drops the game without
		// restoring; the simulation owns the exit path now.
		dev.clearGame()
		dev.prevPreset = 0
		dev.simPreset = preset
		dev.sessionID = uuid.NewString()
	}
	dev.mode = ModeSimulating
	dev.simParams = params
	dev.gen++
	gen := dev.gen
	devCfg := dev.cfg
	dev.mu.Unlock()

	home := render.PairFromConfig(o.colors.Colors(params.League, params.Home))
	away := render.PairFromConfig(o.colors.Colors(params.League, params.Away))
	disp := cfg.EffectiveDisplay(&devCfg)

	plan := render.BattlePlan(params.WinPct, home, away, devCfg.Start, devCfg.End, disp)
	o.pushState(ctx, dev, gen, plan)

	o.events.Event(mqtt.EventSimulation, map[string]any{
		"host": host, "league": params.League,
		"home": params.Home, "away": params.Away, "win_pct": params.WinPct,
	})
	o.publishDeviceState(dev)
	return nil
}

// SimulateStop ends a simulation, restoring the preset captured at
// simulate-start, or powering off when none was captured.
func (o *Orchestrator) SimulateStop(ctx context.Context, host string) error {
	dev, err := o.device(host)
	if err != nil {
		return err
	}

	dev.mu.Lock()
	if dev.mode != ModeSimulating {
		dev.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotSimulating, host)
	}
	dev.cancelSequence()
	preset := dev.simPreset
	dev.simPreset = 0
	dev.simParams = SimulateParams{}
	dev.sessionID = ""
	dev.mode = ModeIdle
	dev.gen++
	gen := dev.gen
	dev.mu.Unlock()

	if preset > 0 {
		o.pushState(ctx, dev, gen, wled.State{PresetID: preset})
	} else {
		o.pushState(ctx, dev, gen, wled.State{On: wled.Bool(false)})
	}

	o.publishDeviceState(dev)
	return nil
}

// Status returns the runtime snapshot for one device.
func (o *Orchestrator) Status(host string) (DeviceStatus, error) {
	dev, err := o.device(host)
	if err != nil {
		return DeviceStatus{}, err
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.status(), nil
}

// StatusAll returns runtime snapshots for every device, ordered by host.
func (o *Orchestrator) StatusAll() []DeviceStatus {
	o.mu.RLock()
	devs := make([]*deviceState, 0, len(o.devices))
	for _, dev := range o.devices {
		devs = append(devs, dev)
	}
	o.mu.RUnlock()

	out := make([]DeviceStatus, 0, len(devs))
	for _, dev := range devs {
		dev.mu.Lock()
		out = append(out, dev.status())
		dev.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Host < out[j].Host })
	return out
}

// handleSnapshot applies one poll result to one device: either the
// steady-state re-render, or the hand-off to the post-game sequence when
// the game has just gone final.
func (o *Orchestrator) handleSnapshot(ctx context.Context, dev *deviceState, snap *scorefeed.GameSnapshot) {
	dev.mu.Lock()
	if !dev.watching() || dev.game == nil {
		dev.mu.Unlock()
		return
	}
	wasPost := dev.lastStatus == scorefeed.StatusPost
	dev.lastStatus = snap.Status
	dev.lastSnap = snap
	dev.lastUpdate = time.Now()
	dev.failCount = 0
	game := *dev.game
	gen := dev.gen
	dev.mu.Unlock()

	if snap.Status == scorefeed.StatusPost {
		if !wasPost {
			o.startPostGame(dev, game, snap)
		}
		return
	}

	o.renderGame(ctx, dev, gen, game, snap)
}

// renderGame renders and pushes the battle layout for a snapshot.
func (o *Orchestrator) renderGame(ctx context.Context, dev *deviceState, gen uint64, game gameRef, snap *scorefeed.GameSnapshot) {
	winPct := snap.HomeWinPct
	if !snap.HasWinPct {
		winPct = 0.5
	}

	home := render.PairFromConfig(o.colors.Colors(game.league, snap.Home.Abbreviation))
	away := render.PairFromConfig(o.colors.Colors(game.league, snap.Away.Abbreviation))

	dev.mu.Lock()
	devCfg := dev.cfg
	dev.mu.Unlock()
	disp := o.store.Get().EffectiveDisplay(&devCfg)

	plan := render.BattlePlan(winPct, home, away, devCfg.Start, devCfg.End, disp)
	if !o.pushState(ctx, dev, gen, plan) {
		return
	}

	if o.sampler != nil {
		o.sampler.WriteWinProbability(
			game.league, game.gameID,
			snap.Home.Abbreviation, snap.Away.Abbreviation,
			winPct, snap.Home.Score, snap.Away.Score,
		)
	}

	o.events.Event(mqtt.EventGameUpdate, GameUpdateEvent{
		Host:      dev.host,
		League:    game.league,
		GameID:    game.gameID,
		HomeTeam:  snap.Home.Abbreviation,
		AwayTeam:  snap.Away.Abbreviation,
		HomeScore: snap.Home.Score,
		AwayScore: snap.Away.Score,
		WinPct:    winPct,
		Detail:    snap.Detail,
	})
	o.publishDeviceState(dev)
}

// pushState pushes a state document with per-device serialization. The
// generation captured when the push was decided is re-checked under the
// push lock and the push is dropped if the device has transitioned
// since, so a slow render can never land after a stop.
// Push failures are logged and absorbed; the caller keeps its state and
// the next natural cycle retries.
func (o *Orchestrator) pushState(ctx context.Context, dev *deviceState, gen uint64, state wled.State) bool {
	dev.pushMu.Lock()
	defer dev.pushMu.Unlock()

	dev.mu.Lock()
	stale := dev.gen != gen
	dev.mu.Unlock()
	if stale {
		o.logger.Debug("stale push dropped", "host", dev.host)
		return false
	}

	if err := dev.link.Push(ctx, state); err != nil {
		o.logger.Warn("device push failed", "host", dev.host, "error", err)
		return false
	}
	return true
}

// capturePreset reads the device's active preset, zero when none or when
// the device cannot be reached.
func (o *Orchestrator) capturePreset(ctx context.Context, dev *deviceState) int {
	state, err := dev.link.Pull(ctx)
	if err != nil {
		o.logger.Debug("preset capture failed", "host", dev.host, "error", err)
		return 0
	}
	if state.PresetID > 0 {
		return state.PresetID
	}
	return 0
}

// publishDeviceState emits the retained per-device status.
func (o *Orchestrator) publishDeviceState(dev *deviceState) {
	dev.mu.Lock()
	status := dev.status()
	dev.mu.Unlock()
	o.events.DeviceState(dev.host, status)
}

// recordFinal persists a finished game to history, best effort.
func (o *Orchestrator) recordFinal(dev *deviceState, game gameRef, snap *scorefeed.GameSnapshot, winner string) {
	if o.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := o.history.Record(ctx, history.Entry{
		GameID:    game.gameID,
		League:    game.league,
		Device:    dev.host,
		HomeTeam:  snap.Home.Abbreviation,
		AwayTeam:  snap.Away.Abbreviation,
		HomeScore: snap.Home.Score,
		AwayScore: snap.Away.Score,
		FinalPct:  snap.HomeWinPct,
		Winner:    winner,
	})
	if err != nil {
		o.logger.Warn("recording game history failed", "game", game.gameID, "error", err)
	}
}

// sequenceContext derives a cancellable context for a post-game sequence
// from the orchestrator's base context.
func (o *Orchestrator) sequenceContext() (context.Context, context.CancelFunc) {
	o.ctxMu.Lock()
	defer o.ctxMu.Unlock()
	return context.WithCancel(o.baseCtx)
}

func (o *Orchestrator) setBaseContext(ctx context.Context) {
	o.ctxMu.Lock()
	o.baseCtx = ctx
	o.ctxMu.Unlock()
}
