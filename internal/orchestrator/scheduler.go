package orchestrator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/scoreline-core/internal/infrastructure/config"
	"github.com/nerrad567/scoreline-core/internal/render"
	"github.com/nerrad567/scoreline-core/internal/scorefeed"
	"github.com/nerrad567/scoreline-core/internal/wled"
)

// Run drives the three periodic loops until the context is cancelled:
//
//	score     - poll every watched game, re-render attached devices
//	autowatch - scan watch lists for live games, attach idle devices
//	reconcile - pull device state, release devices taken over locally
//
// Interval changes from a config reload take effect on the next tick.
func (o *Orchestrator) Run(ctx context.Context) {
	o.setBaseContext(ctx)

	poller := o.store.Get().Poller
	scoreTicker := time.NewTicker(poller.ScorePollInterval())
	autoTicker := time.NewTicker(poller.AutoWatchPollInterval())
	reconcileTicker := time.NewTicker(poller.ReconcilePollInterval())
	defer scoreTicker.Stop()
	defer autoTicker.Stop()
	defer reconcileTicker.Stop()

	o.logger.Info("orchestrator loops started",
		"score_interval", poller.ScorePollInterval().String(),
		"auto_watch_interval", poller.AutoWatchPollInterval().String(),
		"reconcile_interval", poller.ReconcilePollInterval().String())

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator loops stopped")
			return
		case <-scoreTicker.C:
			o.scoreTick(ctx)
			scoreTicker.Reset(o.store.Get().Poller.ScorePollInterval())
		case <-autoTicker.C:
			o.autoWatchTick(ctx)
			autoTicker.Reset(o.store.Get().Poller.AutoWatchPollInterval())
		case <-reconcileTicker.C:
			o.reconcileTick(ctx)
			reconcileTicker.Reset(o.store.Get().Poller.ReconcilePollInterval())
		}
	}
}

// gameKey identifies one upstream fetch per tick.
type gameKey struct {
	league string
	gameID string
}

// scoreTick polls every distinct watched game once and fans the results
// out to the attached devices. Two devices on the same game share one
// upstream call.
func (o *Orchestrator) scoreTick(ctx context.Context) {
	o.mu.RLock()
	attached := make(map[gameKey][]*deviceState)
	refs := make(map[gameKey]gameRef)
	for _, dev := range o.devices {
		dev.mu.Lock()
		if dev.watching() && dev.game != nil {
			key := gameKey{league: dev.game.league, gameID: dev.game.gameID}
			attached[key] = append(attached[key], dev)
			refs[key] = *dev.game
		}
		dev.mu.Unlock()
	}
	o.mu.RUnlock()

	if len(attached) == 0 {
		return
	}

	maxPushes := o.store.Get().Poller.MaxConcurrentPushes
	if maxPushes <= 0 {
		maxPushes = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPushes)

	for key, devs := range attached {
		ref := refs[key]
		snap, err := o.feed.GetGame(ctx, ref.league, ref.sport, ref.gameID)
		if err != nil {
			o.logger.Warn("score poll failed",
				"league", ref.league, "game", ref.gameID, "error", err)
			for _, dev := range devs {
				o.recordPollFailure(ctx, dev)
			}
			continue
		}

		for _, dev := range devs {
			dev := dev
			g.Go(func() error {
				o.handleSnapshot(gctx, dev, snap)
				return nil
			})
		}
	}
	_ = g.Wait()
}

// recordPollFailure bumps a device's failure count and detaches the watch
// once the configured ceiling is crossed. A ceiling of zero never detaches.
func (o *Orchestrator) recordPollFailure(ctx context.Context, dev *deviceState) {
	ceiling := o.store.Get().Poller.MaxConsecutiveFailures

	dev.mu.Lock()
	if !dev.watching() {
		dev.mu.Unlock()
		return
	}
	dev.failCount++
	count := dev.failCount
	if ceiling == 0 || count < ceiling {
		dev.mu.Unlock()
		return
	}
	dev.cancelSequence()
	dev.mode = ModeIdle
	dev.clearGame()
	dev.prevPreset = 0
	dev.gen++
	gen := dev.gen
	dev.mu.Unlock()

	o.logger.Error("watch abandoned after consecutive poll failures",
		"host", dev.host, "failures", count)
	o.pushState(ctx, dev, gen, wled.State{On: wled.Bool(false)})
	o.publishDeviceState(dev)
}

// autoWatchTick scans watch lists and attaches idle devices to live games.
//
// Only devices in Idle or Simulating are eligible; a manual watch is never
// preempted. Each league's scoreboard is fetched at most once per tick.
func (o *Orchestrator) autoWatchTick(ctx context.Context) {
	type candidate struct {
		dev   *deviceState
		teams map[string][]string // league -> team codes
	}

	o.mu.RLock()
	var candidates []candidate
	leagues := make(map[string]struct{})
	for _, dev := range o.devices {
		dev.mu.Lock()
		eligible := dev.mode == ModeIdle || dev.mode == ModeSimulating
		watchList := dev.cfg.WatchList
		dev.mu.Unlock()
		if !eligible || len(watchList) == 0 {
			continue
		}

		teams := make(map[string][]string)
		for _, target := range watchList {
			league, team, ok := config.SplitWatchTarget(target)
			if !ok {
				continue
			}
			teams[league] = append(teams[league], team)
			leagues[league] = struct{}{}
		}
		if len(teams) > 0 {
			candidates = append(candidates, candidate{dev: dev, teams: teams})
		}
	}
	o.mu.RUnlock()

	if len(candidates) == 0 {
		return
	}

	// One scoreboard per league per tick, shared across devices.
	boards := make(map[string][]scorefeed.GameSummary, len(leagues))
	for league := range leagues {
		sport, err := o.colors.Sport(league)
		if err != nil {
			continue
		}
		games, err := o.feed.GetScoreboard(ctx, league, sport)
		if err != nil {
			o.logger.Warn("auto-watch scoreboard fetch failed", "league", league, "error", err)
			continue
		}
		boards[league] = games
	}

	for _, cand := range candidates {
		league, gameID := findLiveGame(cand.teams, boards)
		if gameID == "" {
			continue
		}
		if err := o.startWatch(ctx, cand.dev.host, league, gameID, ModeAutoWatching); err != nil {
			o.logger.Warn("auto-watch attach failed",
				"host", cand.dev.host, "game", gameID, "error", err)
			continue
		}
		o.logger.Info("auto-watch attached",
			"host", cand.dev.host, "league", league, "game", gameID)
	}
}

// findLiveGame returns the first in-progress game involving a watched team.
// Pre-game and final games never attach.
func findLiveGame(teams map[string][]string, boards map[string][]scorefeed.GameSummary) (league, gameID string) {
	for lg, codes := range teams {
		for _, game := range boards[lg] {
			if game.Status != scorefeed.StatusIn {
				continue
			}
			for _, code := range codes {
				if game.Involves(code) {
					return lg, game.ID
				}
			}
		}
	}
	return "", ""
}

// reconcileTick compares believed state against observed state for every
// active device and releases the ones somebody changed out from under us.
//
// A device counts as taken over when it reports off, or when neither of
// the battle segments survives. A failed pull proves nothing and never
// releases a device.
func (o *Orchestrator) reconcileTick(ctx context.Context) {
	o.mu.RLock()
	devs := make([]*deviceState, 0, len(o.devices))
	for _, dev := range o.devices {
		dev.mu.Lock()
		active := dev.mode != ModeIdle
		dev.mu.Unlock()
		if active {
			devs = append(devs, dev)
		}
	}
	o.mu.RUnlock()

	for _, dev := range devs {
		state, err := dev.link.Pull(ctx)
		if err != nil {
			o.logger.Debug("reconcile pull failed", "host", dev.host, "error", err)
			continue
		}
		if !deviceOverridden(state) {
			continue
		}

		dev.mu.Lock()
		if dev.mode == ModeIdle {
			dev.mu.Unlock()
			continue
		}
		dev.cancelSequence()
		mode := dev.mode
		dev.mode = ModeIdle
		dev.clearGame()
		dev.prevPreset = 0
		dev.simPreset = 0
		dev.simParams = SimulateParams{}
		dev.gen++
		dev.mu.Unlock()

		o.logger.Info("device released after local override",
			"host", dev.host, "was", string(mode))
		o.publishDeviceState(dev)
	}
}

// deviceOverridden reports whether observed state no longer carries the
// orchestrator's rendering.
func deviceOverridden(state *wled.State) bool {
	if !state.IsOn() {
		return true
	}
	_, home := state.SegmentByName(render.SegmentHome)
	_, away := state.SegmentByName(render.SegmentAway)
	return !home && !away
}
