// Package orchestrator drives the Scoreline device fleet: it turns live
// win-probability data into LED state and owns every device's lifecycle.
//
// Each configured device runs a small state machine (Idle, Watching,
// AutoWatching, Simulating). Commands (Watch, Stop, Simulate) and three
// periodic loops move devices between states:
//
//	┌────────────────────────────────────────────────────────┐
//	│                Orchestrator (orchestrator.go)          │
//	│                                                        │
//	│  ┌───────────┐   ┌─────────────┐   ┌───────────────┐  │
//	│  │ score loop│   │ autowatch   │   │ reconcile     │  │
//	│  │ poll games│   │ scan lists  │   │ pull devices  │  │
//	│  └─────┬─────┘   └──────┬──────┘   └──────┬────────┘  │
//	│        │                │                 │           │
//	│        ▼                ▼                 ▼           │
//	│  ┌──────────────────────────────────────────────────┐ │
//	│  │  deviceState registry (one per configured host)  │ │
//	│  │  Idle ⇄ Watching / AutoWatching / Simulating     │ │
//	│  └──────────────────────┬───────────────────────────┘ │
//	│                         │ render.BattlePlan           │
//	│                         ▼                             │
//	│                  wled.Client.Push                     │
//	└────────────────────────────────────────────────────────┘
//
// # Key Behaviors
//
//   - One upstream fetch per distinct game per score tick, shared across
//     every device attached to that game.
//   - The post-game sequence runs exactly once per game: the device
//     leaves its watch before the sequence starts, so later polls of the
//     same final game cannot re-trigger it.
//   - Reconciliation releases a device when its observed state shows a
//     local takeover (off, or battle segments gone). A failed pull never
//     releases anything.
//   - Auto-watch attaches only to in-progress games and only to devices
//     in Idle or Simulating; a manual watch is never preempted.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. Per-device mutexes
// guard state transitions and are never held across network calls;
// a separate per-device push lock keeps segment updates ordered. Every
// transition bumps a per-device generation, and a push decided under an
// older generation is dropped at the push lock, so a render that raced
// a stop or release can never resurrect the strip.
package orchestrator
