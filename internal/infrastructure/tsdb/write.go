package tsdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteWinProbability records one win-probability sample for a watched game.
//
// The write is non-blocking; data is batched and sent asynchronously.
// One point lands per score poll, so a three-hour game produces a few
// hundred points that chart the whole swing of the evening.
//
// Parameters:
//   - league: League identifier (e.g. "nfl")
//   - gameID: Upstream event identifier
//   - home, away: Team abbreviations
//   - winPct: Home win probability in [0, 1]
//   - homeScore, awayScore: Current scores
func (c *Client) WriteWinProbability(league, gameID, home, away string, winPct float64, homeScore, awayScore int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"win_probability",
		map[string]string{
			"league":  league,
			"game_id": gameID,
			"home":    home,
			"away":    away,
		},
		map[string]interface{}{
			"home_win_pct": winPct,
			"home_score":   homeScore,
			"away_score":   awayScore,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteGameFinal records the closing sample for a finished game.
//
// Tagged separately from the live series so dashboards can mark finals
// without windowing tricks.
func (c *Client) WriteGameFinal(league, gameID, winner string, finalPct float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"game_final",
		map[string]string{
			"league":  league,
			"game_id": gameID,
			"winner":  winner,
		},
		map[string]interface{}{
			"home_win_pct": finalPct,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
