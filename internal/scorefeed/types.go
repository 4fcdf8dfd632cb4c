package scorefeed

import "time"

// Status is the lifecycle phase of a game as reported upstream.
type Status string

// Game status constants. Unknown covers any upstream state string the
// client does not recognise.
const (
	StatusPre     Status = "pre"
	StatusIn      Status = "in"
	StatusPost    Status = "post"
	StatusUnknown Status = "unknown"
)

// parseStatus maps the upstream state string onto a Status.
func parseStatus(state string) Status {
	switch state {
	case "pre":
		return StatusPre
	case "in":
		return StatusIn
	case "post":
		return StatusPost
	default:
		return StatusUnknown
	}
}

// TeamScore is one side of a game.
type TeamScore struct {
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"display_name"`
	Score        int    `json:"score"`
}

// GameSummary is one scoreboard row: enough to list games and to decide
// whether a watch should attach.
type GameSummary struct {
	ID        string    `json:"id"`
	League    string    `json:"league"`
	Name      string    `json:"name"`
	ShortName string    `json:"short_name"`
	Status    Status    `json:"status"`
	Detail    string    `json:"detail"`
	StartTime time.Time `json:"start_time"`
	Home      TeamScore `json:"home"`
	Away      TeamScore `json:"away"`
}

// Involves reports whether the given team abbreviation plays in this game.
func (g GameSummary) Involves(abbr string) bool {
	return g.Home.Abbreviation == abbr || g.Away.Abbreviation == abbr
}

// GameSnapshot is the full per-game read used by the score loop:
// a GameSummary plus the home win probability.
//
// HomeWinPct is in [0, 1]. HasWinPct is false when the upstream feed
// offered neither a win-probability series nor a predictor projection;
// callers fall back to 0.5 in that case.
type GameSnapshot struct {
	GameSummary

	HomeWinPct float64 `json:"home_win_pct"`
	HasWinPct  bool    `json:"has_win_pct"`
}
