// Package scorefeed fetches live game data from the public scoreboard API.
//
// Two reads cover everything the rest of the system needs:
//
//	GetScoreboard  one league's games today (attach decisions, listings)
//	GetGame        one game's scores, status and home win probability
//
// # Win Probability
//
// The per-game summary carries a play-by-play win probability series while
// a game is live. When the series is absent (pre-game, or sports without
// live models) the client falls back to the predictor's pre-game projection.
// Games offering neither are flagged HasWinPct=false and callers treat the
// game as a coin flip.
//
// # Error Handling
//
// Transient upstream failures surface as wrapped ErrUpstream; unknown game
// IDs as ErrGameNotFound. The client never caches, retry policy belongs to
// the polling loops above it.
package scorefeed
