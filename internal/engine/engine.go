// internal/engine/engine.go
//
// GameEngine: the only component that mutates a Game.
//
// Every action is one unit of work against one game ID:
//   1. take the per-ID exclusive scope (in-process serialisation),
//   2. load the aggregate from the repository,
//   3. apply exactly one transition (validation errors abort untouched),
//   4. save with an optimistic version check, retrying the whole unit on
//      store.ErrConflict (another process wrote in between).
//
// Games never coordinate with each other; there is no global lock.

package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/justone/internal/apperr"
	"github.com/robalobadob/justone/internal/game"
	"github.com/robalobadob/justone/internal/store"
	"github.com/robalobadob/justone/internal/words"
)

const defaultRetries = 3

// FinishHook observes games right after they were committed as FINISHED.
type FinishHook func(ctx context.Context, g *game.Game)

// Engine orchestrates player actions against stored games.
type Engine struct {
	repo     store.Repository
	words    words.Source
	checker  game.ClueChecker
	locks    *keyedMutex
	now      func() time.Time
	newID    func() string
	retries  int
	onFinish FinishHook
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithIDs overrides game ID generation.
func WithIDs(newID func() string) Option { return func(e *Engine) { e.newID = newID } }

// WithRetries sets how many times a unit of work is retried on a version
// conflict.
func WithRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.retries = n
		}
	}
}

// WithFinishHook registers a callback for committed finishes.
func WithFinishHook(h FinishHook) Option { return func(e *Engine) { e.onFinish = h } }

// New constructs an Engine.
func New(repo store.Repository, src words.Source, checker game.ClueChecker, opts ...Option) *Engine {
	e := &Engine{
		repo:    repo,
		words:   src,
		checker: checker,
		locks:   newKeyedMutex(),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   randomID,
		retries: defaultRetries,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ------------------------------ lifecycle ----------------------------------

// Create builds a new game owned by creator.
func (e *Engine) Create(ctx context.Context, creator string) (*game.Game, error) {
	ws, err := e.words.Sample(game.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("sample words: %w", err)
	}
	g, err := game.New(e.newID(), uuid.NewString(), creator, ws, e.now())
	if err != nil {
		return nil, err
	}
	if err := e.repo.Save(ctx, g); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Conflict("game %s already exists", g.ID)
		}
		return nil, fmt.Errorf("save game %s: %w", g.ID, err)
	}
	log.Info().Str("game", g.ID).Str("creator", creator).Msg("game created")
	return g, nil
}

// Get loads a game.
func (e *Engine) Get(ctx context.Context, id string) (*game.Game, error) {
	return e.load(ctx, id)
}

// List returns all games, oldest first.
func (e *Engine) List(ctx context.Context) ([]*game.Game, error) {
	gs, err := e.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return gs, nil
}

// Start moves the game to RUNNING.
func (e *Engine) Start(ctx context.Context, id string) (*game.Game, error) {
	return e.mutate(ctx, id, "start", func(g *game.Game) error { return g.Start() })
}

// Finish totals the score and closes the game.
func (e *Engine) Finish(ctx context.Context, id string) (*game.Game, error) {
	g, err := e.mutate(ctx, id, "finish", func(g *game.Game) error { return g.Finish() })
	if err != nil {
		return nil, err
	}
	e.finished(ctx, g)
	return g, nil
}

func (e *Engine) finished(ctx context.Context, g *game.Game) {
	log.Info().Str("game", g.ID).Int("score", g.Score).Int("rounds", g.RoundNo).Msg("game finished")
	if e.onFinish != nil {
		e.onFinish(ctx, g)
	}
}

// Join adds player to the roster.
func (e *Engine) Join(ctx context.Context, id, player string) (*game.Game, error) {
	return e.mutate(ctx, id, "join", func(g *game.Game) error { return g.Join(player) })
}

// Leave removes player from the roster.
func (e *Engine) Leave(ctx context.Context, id, player string) (*game.Game, error) {
	return e.mutate(ctx, id, "leave", func(g *game.Game) error { return g.Leave(player) })
}

// -------------------------------- rounds -----------------------------------

// DrawCard puts the next card in play and returns it.
func (e *Engine) DrawCard(ctx context.Context, id string) (game.Card, error) {
	var card game.Card
	_, err := e.mutate(ctx, id, "draw", func(g *game.Game) error {
		c, err := g.DrawCard()
		card = c
		return err
	})
	return card, err
}

// ProposeWord picks the mystery word from the active card.
func (e *Engine) ProposeWord(ctx context.Context, id, player, word string) (*game.Game, error) {
	return e.mutate(ctx, id, "propose", func(g *game.Game) error { return g.ProposeWord(player, word) })
}

// Decide records a player's accept/reject vote on the proposed word.
func (e *Engine) Decide(ctx context.Context, id, player string, accept bool) (*game.Game, error) {
	return e.mutate(ctx, id, "decide", func(g *game.Game) error { return g.Decide(player, accept) })
}

// SubmitClue checks and stores a player's clue.
func (e *Engine) SubmitClue(ctx context.Context, id, player, text string, seconds int) (game.Clue, error) {
	var clue game.Clue
	_, err := e.mutate(ctx, id, "clue", func(g *game.Game) error {
		c, err := g.AddClue(player, text, seconds, e.checker)
		clue = c
		return err
	})
	return clue, err
}

// InvalidateClues marks the named clues invalid.
func (e *Engine) InvalidateClues(ctx context.Context, id string, texts []string) (*game.Game, error) {
	return e.mutate(ctx, id, "invalidate", func(g *game.Game) error {
		_, err := g.InvalidateClues(texts)
		return err
	})
}

// SkipGuessing abandons the active card.
func (e *Engine) SkipGuessing(ctx context.Context, id string) (*game.Game, error) {
	return e.mutate(ctx, id, "skip", func(g *game.Game) error { return g.SkipGuessing() })
}

// CurrentGuess reads the round's guess without mutating anything.
func (e *Engine) CurrentGuess(ctx context.Context, id string) (game.Guess, error) {
	g, err := e.load(ctx, id)
	if err != nil {
		return game.Guess{}, err
	}
	return g.CurrentGuess(), nil
}

// SubmitGuess resolves the round with player's guess.
func (e *Engine) SubmitGuess(ctx context.Context, id, player, text string, seconds int) (game.Guess, error) {
	var guess game.Guess
	_, err := e.mutate(ctx, id, "guess", func(g *game.Game) error {
		gs, err := g.MakeGuess(player, text, seconds)
		guess = gs
		return err
	})
	return guess, err
}

// -------------------------------- sweeps -----------------------------------

var errNotStale = errors.New("engine: game not stale")

// Sweep finishes RUNNING games that saw no action for longer than idle and
// returns how many it closed.
func (e *Engine) Sweep(ctx context.Context, idle time.Duration) (int, error) {
	gs, err := e.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list games: %w", err)
	}
	closed := 0
	for _, candidate := range gs {
		if candidate.Status != game.StatusRunning {
			continue
		}
		g, err := e.mutate(ctx, candidate.ID, "sweep", func(g *game.Game) error {
			if g.Status != game.StatusRunning || e.now().Sub(g.UpdatedAt) < idle {
				return errNotStale
			}
			return g.Finish()
		})
		if errors.Is(err, errNotStale) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return closed, ctx.Err()
			}
			log.Warn().Err(err).Str("game", candidate.ID).Msg("sweep game")
			continue
		}
		closed++
		e.finished(ctx, g)
	}
	return closed, nil
}

// ------------------------------- plumbing ----------------------------------

func (e *Engine) load(ctx context.Context, id string) (*game.Game, error) {
	g, err := e.repo.Load(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("no game with id %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return g, nil
}

// mutate runs one load → apply → save unit of work for game id.
func (e *Engine) mutate(ctx context.Context, id, op string, apply func(g *game.Game) error) (*game.Game, error) {
	unlock := e.locks.Lock(id)
	defer unlock()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g, err := e.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := apply(g); err != nil {
			return nil, err
		}
		g.UpdatedAt = e.now()

		err = e.repo.Save(ctx, g)
		switch {
		case err == nil:
			log.Debug().Str("game", id).Str("op", op).Int64("version", g.Version).Msg("committed")
			return g, nil
		case errors.Is(err, store.ErrConflict) && attempt < e.retries:
			log.Warn().Str("game", id).Str("op", op).Int("attempt", attempt+1).Msg("version conflict, retrying")
		case errors.Is(err, store.ErrConflict):
			return nil, apperr.Conflict("game %s changed concurrently, try again", id)
		case errors.Is(err, store.ErrNotFound):
			return nil, apperr.NotFound("no game with id %s", id)
		default:
			return nil, fmt.Errorf("save game %s: %w", id, err)
		}
	}
}

// randomID returns a compact 16-hex-char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
