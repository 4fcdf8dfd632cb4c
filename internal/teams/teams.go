// Package teams resolves league and team identity from configuration.
//
// It is a read-only view over the config store: leagues, their upstream
// sport paths, and per-team display names and colors. Unknown teams are
// not an error at render time; they fall back to neutral colors so a
// playoff opponent missing from the table never blocks a watch.
package teams

import (
	"errors"
	"sort"
	"strings"

	"github.com/nerrad567/scoreline-core/internal/infrastructure/config"
)

// ErrUnknownLeague indicates the league is not configured.
var ErrUnknownLeague = errors.New("teams: unknown league")

// League is one configured league.
type League struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Sport     string `json:"sport"`
	TeamCount int    `json:"team_count"`
}

// Team is one configured team within a league.
type Team struct {
	Abbreviation string       `json:"abbreviation"`
	Display      string       `json:"display"`
	Colors       []config.RGB `json:"colors,omitempty"`
}

// Directory answers identity lookups against the live config snapshot.
// It holds the store, not a snapshot, so reloads take effect immediately.
type Directory struct {
	store *config.Store
}

// NewDirectory creates a directory over a config store.
func NewDirectory(store *config.Store) *Directory {
	return &Directory{store: store}
}

// Sport returns the upstream sport path for a league.
func (d *Directory) Sport(league string) (string, error) {
	lg, ok := d.store.Get().Leagues[strings.ToLower(league)]
	if !ok {
		return "", ErrUnknownLeague
	}
	return lg.Sport, nil
}

// Colors returns a team's configured colors, or nil when the team or
// league is unknown. Callers map nil onto the neutral fallback.
func (d *Directory) Colors(league, abbr string) []config.RGB {
	lg, ok := d.store.Get().Leagues[strings.ToLower(league)]
	if !ok {
		return nil
	}
	team, ok := lg.Teams[strings.ToUpper(abbr)]
	if !ok {
		return nil
	}
	return team.Colors
}

// DisplayName returns a team's display name, falling back to the
// abbreviation when unconfigured.
func (d *Directory) DisplayName(league, abbr string) string {
	lg, ok := d.store.Get().Leagues[strings.ToLower(league)]
	if !ok {
		return abbr
	}
	if team, ok := lg.Teams[strings.ToUpper(abbr)]; ok && team.Display != "" {
		return team.Display
	}
	return abbr
}

// Leagues lists the configured leagues sorted by ID.
func (d *Directory) Leagues() []League {
	cfg := d.store.Get()
	out := make([]League, 0, len(cfg.Leagues))
	for id, lg := range cfg.Leagues {
		out = append(out, League{
			ID:        id,
			Name:      lg.Name,
			Sport:     lg.Sport,
			TeamCount: len(lg.Teams),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Teams lists a league's teams sorted by abbreviation.
func (d *Directory) Teams(league string) ([]Team, error) {
	lg, ok := d.store.Get().Leagues[strings.ToLower(league)]
	if !ok {
		return nil, ErrUnknownLeague
	}
	out := make([]Team, 0, len(lg.Teams))
	for abbr, team := range lg.Teams {
		out = append(out, Team{
			Abbreviation: abbr,
			Display:      team.Display,
			Colors:       team.Colors,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Abbreviation < out[j].Abbreviation })
	return out, nil
}
