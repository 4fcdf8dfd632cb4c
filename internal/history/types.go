package history

import "time"

// Outcome constants for the winner column.
const (
	OutcomeHome = "home"
	OutcomeAway = "away"
	OutcomeTie  = "tie"
)

// Entry is one finished game as recorded by the post-game handler.
type Entry struct {
	ID         int64     `json:"id"`
	GameID     string    `json:"game_id"`
	League     string    `json:"league"`
	Device     string    `json:"device"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	HomeScore  int       `json:"home_score"`
	AwayScore  int       `json:"away_score"`
	FinalPct   float64   `json:"final_win_pct"`
	Winner     string    `json:"winner"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Filter narrows List queries. Zero values mean no constraint.
type Filter struct {
	League string
	Device string
	Limit  int
}
