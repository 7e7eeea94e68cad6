package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/justone/assets"
	"github.com/robalobadob/justone/internal/db"
	"github.com/robalobadob/justone/internal/game"
)

func newGame(t *testing.T, id string, created time.Time) *game.Game {
	t.Helper()
	ws := make([]string, game.PoolSize)
	for i := range ws {
		ws[i] = fmt.Sprintf("w%02d", i)
	}
	g, err := game.New(id, "tok-"+id, "alice", ws, created)
	require.NoError(t, err)
	return g
}

func repositories(t *testing.T) map[string]Repository {
	t.Helper()
	sqldb, err := db.Open(filepath.Join(t.TempDir(), "games.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })
	require.NoError(t, db.Migrate(context.Background(), sqldb, assets.Migrations()))

	return map[string]Repository{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(sqldb),
	}
}

func TestRepositoryContract(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := repo.Load(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			g := newGame(t, "g1", t0)
			require.NoError(t, repo.Save(ctx, g))
			assert.Equal(t, int64(1), g.Version)

			dup := newGame(t, "g1", t0)
			assert.ErrorIs(t, repo.Save(ctx, dup), ErrConflict)

			a, err := repo.Load(ctx, "g1")
			require.NoError(t, err)
			b, err := repo.Load(ctx, "g1")
			require.NoError(t, err)
			assert.Equal(t, int64(1), a.Version)
			assert.Equal(t, []string{"alice"}, a.Players)
			assert.Equal(t, game.CardsPerGame, a.Deck.Len())
			assert.Equal(t, game.PhaseIdle, a.Round.Phase)
			assert.True(t, a.CreatedAt.Equal(t0))

			require.NoError(t, a.Join("bob"))
			require.NoError(t, repo.Save(ctx, a))
			assert.Equal(t, int64(2), a.Version)

			// b was loaded before a's write
			require.NoError(t, b.Join("carol"))
			assert.ErrorIs(t, repo.Save(ctx, b), ErrConflict)

			c, err := repo.Load(ctx, "g1")
			require.NoError(t, err)
			assert.Equal(t, []string{"alice", "bob"}, c.Players)

			ghost := newGame(t, "ghost", t0)
			ghost.Version = 3
			assert.ErrorIs(t, repo.Save(ctx, ghost), ErrNotFound)
		})
	}
}

func TestRepositoryList(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Save(ctx, newGame(t, "later", t0.Add(time.Minute))))
			require.NoError(t, repo.Save(ctx, newGame(t, "first", t0)))

			gs, err := repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, gs, 2)
			assert.Equal(t, "first", gs[0].ID)
			assert.Equal(t, "later", gs[1].ID)
		})
	}
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore()
	g := newGame(t, "g1", time.Now())
	require.NoError(t, repo.Save(ctx, g))

	g.Players[0] = "mallory"
	loaded, err := repo.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.Players[0])
}
