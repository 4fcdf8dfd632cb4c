// Package tsdb stores win-probability series in InfluxDB.
//
// The store is optional: when disabled in configuration the orchestrator
// simply skips sampling and everything else works unchanged. When enabled,
// every score poll lands one point per watched game, giving Grafana (or
// anything else reading the bucket) the full probability curve of a game.
//
// # Measurements
//
//	win_probability  tags: league, game_id, home, away
//	                 fields: home_win_pct, home_score, away_score
//	game_final       tags: league, game_id, winner
//	                 fields: home_win_pct
//
// # Write Semantics
//
// Writes are non-blocking and batched by the underlying client; a slow or
// absent InfluxDB never stalls the polling loops. Async write failures are
// surfaced through SetOnError and logged, nothing retries.
package tsdb
