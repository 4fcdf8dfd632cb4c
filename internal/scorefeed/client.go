package scorefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/scoreline-core/internal/infrastructure/config"
)

// defaultBaseURL is the public scoreboard API root. Leagues are addressed
// beneath it by sport path, e.g. "football/nfl".
const defaultBaseURL = "https://site.api.espn.com/apis/site/v2/sports"

// Logger defines the logging interface used by the feed client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client fetches scoreboards and per-game win probability from the
// upstream feed.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

// New creates a feed client from configuration.
func New(cfg config.FeedConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// GetScoreboard fetches today's games for a league.
//
// Parameters:
//   - ctx: Context for cancellation
//   - league: League identifier used to tag the results (e.g. "nfl")
//   - sport: Upstream sport path (e.g. "football/nfl")
//
// Returns:
//   - []GameSummary: One entry per scoreboard game, may be empty
//   - error: If the request fails or the response cannot be decoded
func (c *Client) GetScoreboard(ctx context.Context, league, sport string) ([]GameSummary, error) {
	var resp scoreboardResponse
	if err := c.getJSON(ctx, c.baseURL+"/"+sport+"/scoreboard", &resp); err != nil {
		return nil, err
	}

	games := make([]GameSummary, 0, len(resp.Events))
	for _, ev := range resp.Events {
		summary, err := ev.toSummary(league)
		if err != nil {
			c.logger.Warn("skipping malformed scoreboard event", "league", league, "event", ev.ID, "error", err)
			continue
		}
		games = append(games, summary)
	}
	return games, nil
}

// GetGame fetches one game's current scores, status and home win probability.
//
// The win probability comes from the play-by-play series when present, with
// the pre-game predictor projection as fallback. Games offering neither are
// returned with HasWinPct false.
//
// Parameters:
//   - ctx: Context for cancellation
//   - league: League identifier used to tag the result
//   - sport: Upstream sport path
//   - gameID: Upstream event identifier
//
// Returns:
//   - *GameSnapshot: Current game state
//   - error: ErrGameNotFound if the event is unknown upstream
func (c *Client) GetGame(ctx context.Context, league, sport, gameID string) (*GameSnapshot, error) {
	endpoint := c.baseURL + "/" + sport + "/summary?event=" + url.QueryEscape(gameID)

	var resp summaryResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Header.Competitions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	ev := event{
		ID:           resp.Header.ID,
		Status:       resp.Header.Competitions[0].Status,
		Date:         resp.Header.Competitions[0].Date,
		Competitions: resp.Header.Competitions,
	}
	summary, err := ev.toSummary(league)
	if err != nil {
		return nil, fmt.Errorf("decoding game %s: %w", gameID, err)
	}
	summary.ID = gameID

	snap := &GameSnapshot{GameSummary: summary}
	if n := len(resp.WinProbability); n > 0 {
		snap.HomeWinPct = resp.WinProbability[n-1].HomeWinPercentage
		snap.HasWinPct = true
	} else if resp.Predictor != nil {
		if pct, ok := resp.Predictor.HomeTeam.GameProjection.value(); ok {
			snap.HomeWinPct = pct / 100
			snap.HasWinPct = true
		}
	}
	if snap.HomeWinPct < 0 {
		snap.HomeWinPct = 0
	}
	if snap.HomeWinPct > 1 {
		snap.HomeWinPct = 1
	}

	c.logger.Debug("fetched game",
		"league", league, "game", gameID,
		"status", snap.Status, "home_win_pct", snap.HomeWinPct)

	return snap, nil
}

// getJSON performs one GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrGameNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: %s returned %d", ErrUpstream, endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	return nil
}

// Upstream wire types. The feed mixes quoted and bare numbers for the same
// fields across sports, hence flexNumber.

type scoreboardResponse struct {
	Events []event `json:"events"`
}

type summaryResponse struct {
	Header struct {
		ID           string        `json:"id"`
		Competitions []competition `json:"competitions"`
	} `json:"header"`
	WinProbability []struct {
		HomeWinPercentage float64 `json:"homeWinPercentage"`
	} `json:"winprobability"`
	Predictor *struct {
		HomeTeam struct {
			GameProjection flexNumber `json:"gameProjection"`
		} `json:"homeTeam"`
	} `json:"predictor"`
}

type event struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Name         string        `json:"name"`
	ShortName    string        `json:"shortName"`
	Status       gameStatus    `json:"status"`
	Competitions []competition `json:"competitions"`
}

type gameStatus struct {
	Type struct {
		State  string `json:"state"`
		Detail string `json:"detail"`
	} `json:"type"`
}

type competition struct {
	Date        string       `json:"date"`
	Status      gameStatus   `json:"status"`
	Competitors []competitor `json:"competitors"`
}

type competitor struct {
	HomeAway string     `json:"homeAway"`
	Score    flexNumber `json:"score"`
	Team     struct {
		Abbreviation string `json:"abbreviation"`
		DisplayName  string `json:"displayName"`
	} `json:"team"`
}

func (e event) toSummary(league string) (GameSummary, error) {
	if len(e.Competitions) == 0 {
		return GameSummary{}, fmt.Errorf("event %s has no competitions", e.ID)
	}
	comp := e.Competitions[0]

	status := e.Status
	if status.Type.State == "" {
		status = comp.Status
	}
	date := e.Date
	if date == "" {
		date = comp.Date
	}

	summary := GameSummary{
		ID:        e.ID,
		League:    league,
		Name:      e.Name,
		ShortName: e.ShortName,
		Status:    parseStatus(status.Type.State),
		Detail:    status.Type.Detail,
	}
	if date != "" {
		if ts, err := time.Parse("2006-01-02T15:04Z", date); err == nil {
			summary.StartTime = ts
		} else if ts, err := time.Parse(time.RFC3339, date); err == nil {
			summary.StartTime = ts
		}
	}

	var haveHome, haveAway bool
	for _, c := range comp.Competitors {
		side := TeamScore{
			Abbreviation: c.Team.Abbreviation,
			DisplayName:  c.Team.DisplayName,
		}
		if v, ok := c.Score.value(); ok {
			side.Score = int(v)
		}
		switch c.HomeAway {
		case "home":
			summary.Home = side
			haveHome = true
		case "away":
			summary.Away = side
			haveAway = true
		}
	}
	if !haveHome || !haveAway {
		return GameSummary{}, fmt.Errorf("event %s is missing a home or away competitor", e.ID)
	}
	return summary, nil
}

// flexNumber decodes a JSON value that may arrive as a number or as a
// quoted numeric string.
type flexNumber struct {
	f   float64
	set bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parsing number %q: %w", s, err)
	}
	n.f = f
	n.set = true
	return nil
}

func (n flexNumber) value() (float64, bool) {
	return n.f, n.set
}
