// Package history persists finished games to SQLite.
//
// Each watched game produces exactly one row when it reaches its final
// state, written by the post-game handler. The table exists so "what did
// we watch last season" survives restarts; nothing in the live path reads
// from it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// schema is applied on open. Additive-only; new columns need defaults.
const schema = `
CREATE TABLE IF NOT EXISTS game_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id TEXT NOT NULL,
	league TEXT NOT NULL,
	device TEXT NOT NULL,
	home_team TEXT NOT NULL,
	away_team TEXT NOT NULL,
	home_score INTEGER NOT NULL,
	away_score INTEGER NOT NULL,
	final_win_pct REAL NOT NULL,
	winner TEXT NOT NULL,
	recorded_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
	UNIQUE(game_id, device)
);
CREATE INDEX IF NOT EXISTS idx_game_history_league ON game_history(league);
CREATE INDEX IF NOT EXISTS idx_game_history_recorded ON game_history(recorded_at);
`

// Repository stores and lists finished games.
type Repository interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

// Querier is the database surface the repository needs. Satisfied by
// *database.DB and by a raw *sql.DB.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLiteRepository implements Repository on a SQLite connection.
type SQLiteRepository struct {
	db Querier
}

// NewSQLiteRepository creates the repository and ensures the schema exists.
func NewSQLiteRepository(db Querier) (*SQLiteRepository, error) {
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		return nil, fmt.Errorf("creating game_history schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Record inserts one finished game.
//
// The (game_id, device) pair is unique: re-recording the same game for the
// same device overwrites the earlier row rather than duplicating it, which
// makes the post-game path safe to retry.
func (r *SQLiteRepository) Record(ctx context.Context, entry Entry) error {
	if entry.GameID == "" {
		return fmt.Errorf("game id is required")
	}
	if entry.Device == "" {
		return fmt.Errorf("device is required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_history
		   (game_id, league, device, home_team, away_team, home_score, away_score, final_win_pct, winner)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(game_id, device) DO UPDATE SET
		   home_score = excluded.home_score,
		   away_score = excluded.away_score,
		   final_win_pct = excluded.final_win_pct,
		   winner = excluded.winner`,
		entry.GameID, entry.League, entry.Device,
		entry.HomeTeam, entry.AwayTeam,
		entry.HomeScore, entry.AwayScore,
		entry.FinalPct, entry.Winner,
	)
	if err != nil {
		return fmt.Errorf("inserting game history: %w", err)
	}
	return nil
}

// List returns finished games ordered newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]Entry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := `SELECT id, game_id, league, device, home_team, away_team,
	                 home_score, away_score, final_win_pct, winner, recorded_at
	          FROM game_history WHERE 1=1`
	args := []any{}
	if filter.League != "" {
		query += " AND league = ?"
		args = append(args, filter.League)
	}
	if filter.Device != "" {
		query += " AND device = ?"
		args = append(args, filter.Device)
	}
	query += " ORDER BY recorded_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying game history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var recordedAt string
		if err := rows.Scan(
			&entry.ID, &entry.GameID, &entry.League, &entry.Device,
			&entry.HomeTeam, &entry.AwayTeam,
			&entry.HomeScore, &entry.AwayScore,
			&entry.FinalPct, &entry.Winner, &recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning game history: %w", err)
		}
		if ts, err := time.Parse("2006-01-02T15:04:05Z", recordedAt); err == nil {
			entry.RecordedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating game history: %w", err)
	}
	return entries, nil
}
