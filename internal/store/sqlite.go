// internal/store/sqlite.go
//
// SQLite-backed Repository. Each game is one row holding the aggregate as
// a JSON document next to a version column; updates are compare-and-swap
// on that version.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/justone/internal/game"
)

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore returns a Repository over an already migrated database.
func NewSQLiteStore(db *sql.DB) Repository {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) Save(ctx context.Context, g *game.Game) error {
	next := *g
	next.Version = g.Version + 1
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", g.ID, err)
	}
	created := g.CreatedAt.UTC().Format(time.RFC3339Nano)
	updated := g.UpdatedAt.UTC().Format(time.RFC3339Nano)

	if g.Version == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO games (id, status, version, data, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			g.ID, string(g.Status), next.Version, string(data), created, updated)
		if err != nil {
			return fmt.Errorf("insert game %s: %w", g.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrConflict
		}
		g.Version = next.Version
		return nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE games SET status=?, version=?, data=?, updated_at=?
		WHERE id=? AND version=?`,
		string(g.Status), next.Version, string(data), updated, g.ID, g.Version)
	if err != nil {
		return fmt.Errorf("update game %s: %w", g.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM games WHERE id=?`, g.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return ErrConflict
	}
	g.Version = next.Version
	return nil
}

func (s *sqliteStore) Load(ctx context.Context, id string) (*game.Game, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM games WHERE id=?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return decode(data)
}

func (s *sqliteStore) List(ctx context.Context) ([]*game.Game, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM games ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []*game.Game
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		g, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func decode(data string) (*game.Game, error) {
	var g game.Game
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	return &g, nil
}
