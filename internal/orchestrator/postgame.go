package orchestrator

import (
	"context"
	"time"

	"github.com/nerrad567/scoreline-core/internal/infrastructure/config"
	"github.com/nerrad567/scoreline-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/scoreline-core/internal/render"
	"github.com/nerrad567/scoreline-core/internal/scorefeed"
	"github.com/nerrad567/scoreline-core/internal/wled"
)

// startPostGame runs the one-shot end-of-game hand-off.
//
// The device leaves its watch before the sequence starts: mode flips to
// Idle and the game reference is cleared under the lock, so a later poll
// of the same final game can never trigger the sequence twice. The
// sequence itself runs on its own goroutine with a cancellable context
// stored on the device; any new Watch, Stop or Simulate aborts it.
func (o *Orchestrator) startPostGame(dev *deviceState, game gameRef, snap *scorefeed.GameSnapshot) {
	winner := winnerSide(snap)

	dev.mu.Lock()
	dev.cancelSequence()
	prevPreset := dev.prevPreset
	dev.prevPreset = 0
	dev.mode = ModeIdle
	session := dev.sessionID
	dev.clearGame()
	dev.gen++
	seqGen := dev.gen
	devCfg := dev.cfg

	seqCtx, cancel := o.sequenceContext()
	dev.seqCancel = cancel
	dev.mu.Unlock()

	cfg := o.store.Get()
	pg := cfg.EffectivePostGame(&devCfg)
	disp := cfg.EffectiveDisplay(&devCfg)
	colors := o.winnerColors(game.league, snap, winner)

	o.logger.Info("game final",
		"host", dev.host, "game", game.gameID,
		"winner", winner, "action", string(pg.Action))

	if o.sampler != nil {
		o.sampler.WriteGameFinal(game.league, game.gameID, winner, snap.HomeWinPct)
	}
	o.recordFinal(dev, game, snap, winner)

	o.events.Event(mqtt.EventGameFinal, GameFinalEvent{
		SessionID: session,
		Host:      dev.host,
		League:    game.league,
		GameID:    game.gameID,
		HomeTeam:  snap.Home.Abbreviation,
		AwayTeam:  snap.Away.Abbreviation,
		HomeScore: snap.Home.Score,
		AwayScore: snap.Away.Score,
		Winner:    winner,
		FinalPct:  snap.HomeWinPct,
		Action:    string(pg.Action),
	})
	o.publishDeviceState(dev)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		o.runPostGame(seqCtx, dev, seqGen, pg, disp, colors, devCfg, prevPreset)

		// Drop the cancel hook once the sequence is over, unless a new
		// transition already replaced it.
		dev.mu.Lock()
		if dev.gen == seqGen {
			dev.seqCancel = nil
		}
		dev.mu.Unlock()
	}()
}

// winnerSide resolves the final by score. Equal scores are a tie; the
// feed's probability is never consulted here.
func winnerSide(snap *scorefeed.GameSnapshot) string {
	switch {
	case snap.Home.Score > snap.Away.Score:
		return "home"
	case snap.Away.Score > snap.Home.Score:
		return "away"
	default:
		return "tie"
	}
}

// winnerColors picks the celebration colors. Ties celebrate in neutral gray.
func (o *Orchestrator) winnerColors(league string, snap *scorefeed.GameSnapshot, winner string) render.ColorPair {
	switch winner {
	case "home":
		return render.PairFromConfig(o.colors.Colors(league, snap.Home.Abbreviation))
	case "away":
		return render.PairFromConfig(o.colors.Colors(league, snap.Away.Abbreviation))
	default:
		return render.PairFromConfig(nil)
	}
}

// runPostGame executes one post-game action to completion or cancellation.
func (o *Orchestrator) runPostGame(ctx context.Context, dev *deviceState, gen uint64, pg config.PostGameConfig, disp config.DisplayConfig, colors render.ColorPair, devCfg config.DeviceConfig, prevPreset int) {
	switch pg.Action {
	case config.PostGameOff:
		o.pushOff(ctx, dev, gen, disp.TransitionMS)

	case config.PostGameFadeOff:
		o.fadeOff(ctx, dev, gen, pg.FadeSeconds)

	case config.PostGameFlashThenOff:
		if !o.flashWinner(ctx, dev, gen, pg, colors, devCfg) {
			return
		}
		o.fadeOff(ctx, dev, gen, pg.FadeSeconds)

	case config.PostGameRestore:
		if prevPreset > 0 {
			o.pushState(ctx, dev, gen, wled.State{PresetID: prevPreset})
		} else {
			o.pushOff(ctx, dev, gen, disp.TransitionMS)
		}

	case config.PostGamePreset:
		if pg.PresetID > 0 {
			o.pushState(ctx, dev, gen, wled.State{PresetID: pg.PresetID})
		} else {
			o.pushOff(ctx, dev, gen, disp.TransitionMS)
		}

	default:
		o.pushOff(ctx, dev, gen, disp.TransitionMS)
	}
}

// flashWinner alternates full-strip winner color and dark with instant
// transitions. Returns false when cancelled mid-sequence.
func (o *Orchestrator) flashWinner(ctx context.Context, dev *deviceState, gen uint64, pg config.PostGameConfig, colors render.ColorPair, devCfg config.DeviceConfig) bool {
	half := time.Duration(pg.FlashDurationMS) * time.Millisecond
	frame := render.FlashFrame(colors, devCfg.Start, devCfg.End)

	for i := 0; i < pg.FlashCount; i++ {
		if ctx.Err() != nil {
			return false
		}
		o.pushState(ctx, dev, gen, frame)
		if !sleepCtx(ctx, half) {
			return false
		}
		o.pushState(ctx, dev, gen, wled.State{On: wled.Bool(false), Transition: wled.Int(0)})
		if !sleepCtx(ctx, half) {
			return false
		}
	}
	return true
}

// fadeOff dims to zero brightness over the fade window, waits it out,
// then powers off. The device interprets the transition in 100ms units.
func (o *Orchestrator) fadeOff(ctx context.Context, dev *deviceState, gen uint64, seconds float64) {
	if seconds <= 0 {
		o.pushOff(ctx, dev, gen, 0)
		return
	}

	o.pushState(ctx, dev, gen, wled.State{
		Brightness: wled.Int(0),
		Transition: wled.Int(int(seconds * 10)),
	})

	// Let the fade finish before cutting power, else the cut is visible.
	wait := time.Duration((seconds+0.5)*1000) * time.Millisecond
	if !sleepCtx(ctx, wait) {
		return
	}
	o.pushOff(ctx, dev, gen, 0)
}

func (o *Orchestrator) pushOff(ctx context.Context, dev *deviceState, gen uint64, transitionMS int) {
	o.pushState(ctx, dev, gen, wled.State{
		On:         wled.Bool(false),
		Transition: wled.Int(transitionMS / 100),
	})
}

// sleepCtx sleeps for d, returning false if the context was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
