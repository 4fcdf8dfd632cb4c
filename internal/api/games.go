package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/scoreline-core/internal/teams"
)

// handleListLeagues returns the configured leagues.
func (s *Server) handleListLeagues(w http.ResponseWriter, _ *http.Request) {
	leagues := s.teams.Leagues()
	writeJSON(w, http.StatusOK, map[string]any{
		"leagues": leagues,
		"count":   len(leagues),
	})
}

// handleListTeams returns the configured teams for a league.
func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	league := chi.URLParam(r, "league")

	list, err := s.teams.Teams(league)
	if err != nil {
		if errors.Is(err, teams.ErrUnknownLeague) {
			writeNotFound(w, "unknown league: "+league)
			return
		}
		writeInternalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"league": league,
		"teams":  list,
		"count":  len(list),
	})
}

// handleListGames returns the current scoreboard for a league.
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	league := chi.URLParam(r, "league")

	sport, err := s.teams.Sport(league)
	if err != nil {
		writeNotFound(w, "unknown league: "+league)
		return
	}

	games, err := s.feed.GetScoreboard(r.Context(), league, sport)
	if err != nil {
		writeUpstreamError(w, "scoreboard fetch failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"league": league,
		"games":  games,
		"count":  len(games),
	})
}
