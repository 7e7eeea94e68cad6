// internal/store/memory.go
//
// In-memory implementation of the Repository interface.
// Used for development, tests, and single-process deployments where
// durability is not required.
//
// Characteristics:
//   - Stores deep copies of *game.Game keyed by ID, so callers never share
//     mutable state with the store.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Same optimistic version check as the SQLite store.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/robalobadob/justone/internal/game"
)

var (
	// ErrNotFound is returned for unknown game IDs.
	ErrNotFound = errors.New("store: game not found")
	// ErrConflict is returned by Save when the stored version moved on.
	ErrConflict = errors.New("store: version conflict")
)

// Repository defines the persistence interface for game aggregates.
type Repository interface {
	// Load retrieves a game by ID, or ErrNotFound.
	Load(ctx context.Context, id string) (*game.Game, error)

	// Save atomically inserts (Version 0) or updates (Version matching the
	// stored one) g, then bumps g.Version. A stale version yields ErrConflict.
	Save(ctx context.Context, g *game.Game) error

	// List returns every game, oldest first.
	List(ctx context.Context) ([]*game.Game, error)
}

// memory is an in-memory map-based Repository implementation.
type memory struct {
	mu    sync.RWMutex          // guards games map
	games map[string]*game.Game // keyed by Game.ID
}

// NewMemoryStore constructs a new in-memory Repository.
func NewMemoryStore() Repository {
	return &memory{games: make(map[string]*game.Game)}
}

// Save adds or updates the game in the map.
func (m *memory) Save(ctx context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.games[g.ID]
	switch {
	case !ok && g.Version != 0:
		return ErrNotFound
	case ok && cur.Version != g.Version:
		return ErrConflict
	}
	g.Version++
	m.games[g.ID] = g.Clone()
	return nil
}

// Load looks up a game by ID and returns a private copy.
func (m *memory) Load(ctx context.Context, id string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[id]; ok {
		return g.Clone(), nil
	}
	return nil, ErrNotFound
}

// List returns copies of all games ordered by creation time.
func (m *memory) List(ctx context.Context) ([]*game.Game, error) {
	m.mu.RLock()
	out := make([]*game.Game, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, g.Clone())
	}
	m.mu.RUnlock()
	sortGames(out)
	return out, nil
}

func sortGames(gs []*game.Game) {
	sort.Slice(gs, func(i, j int) bool {
		if gs[i].CreatedAt.Equal(gs[j].CreatedAt) {
			return gs[i].ID < gs[j].ID
		}
		return gs[i].CreatedAt.Before(gs[j].CreatedAt)
	})
}
