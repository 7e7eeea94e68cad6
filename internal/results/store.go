// Package results records final scores of finished games and serves the
// leaderboard.
package results

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/justone/internal/game"
)

// Result is the final tally of one finished game.
type Result struct {
	GameID     string    `json:"gameId"`
	Players    int       `json:"players"`
	Rounds     int       `json:"rounds"`
	Score      int       `json:"score"`
	FinishedAt time.Time `json:"finishedAt"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert stores r. A game is only recorded once; later inserts are ignored.
func (s *Store) Insert(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO game_results(game_id, players, rounds, score, finished_at)
		VALUES(?,?,?,?,?)`,
		r.GameID, r.Players, r.Rounds, r.Score, r.FinishedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// Record is an engine finish hook: it stores g's result and logs failures.
func (s *Store) Record(ctx context.Context, g *game.Game) {
	err := s.Insert(ctx, Result{
		GameID:     g.ID,
		Players:    len(g.Players),
		Rounds:     g.RoundNo,
		Score:      g.Score,
		FinishedAt: g.UpdatedAt,
	})
	if err != nil {
		log.Warn().Err(err).Str("game", g.ID).Msg("record result")
	}
}

// Leaderboard returns the best results, highest score first and earliest
// finish breaking ties. limit <= 0 means 20.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT game_id, players, rounds, score, finished_at
		FROM game_results
		ORDER BY score DESC, finished_at ASC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Result, 0, limit)
	for rows.Next() {
		var (
			r        Result
			finished string
		)
		if err := rows.Scan(&r.GameID, &r.Players, &r.Rounds, &r.Score, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}
