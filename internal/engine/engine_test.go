package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/justone/internal/apperr"
	"github.com/robalobadob/justone/internal/clue"
	"github.com/robalobadob/justone/internal/game"
	"github.com/robalobadob/justone/internal/store"
)

// fixedWords deals words in a known order: the first card is
// cat, dog, sun, moon, tree.
type fixedWords struct{ err error }

func (f fixedWords) Sample(n int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []string{"cat", "dog", "sun", "moon", "tree"}
	for i := len(out); i < n; i++ {
		out = append(out, fmt.Sprintf("w%02d", i))
	}
	return out, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newEngine(t *testing.T, opts ...Option) (*Engine, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clk.Now)}, opts...)
	return New(store.NewMemoryStore(), fixedWords{}, clue.New(), opts...), clk
}

func setupGame(t *testing.T, e *Engine, players ...string) string {
	t.Helper()
	ctx := context.Background()
	g, err := e.Create(ctx, players[0])
	require.NoError(t, err)
	for _, p := range players[1:] {
		_, err := e.Join(ctx, g.ID, p)
		require.NoError(t, err)
	}
	_, err = e.Start(ctx, g.ID)
	require.NoError(t, err)
	return g.ID
}

func TestCreate(t *testing.T) {
	e, clk := newEngine(t, WithIDs(func() string { return "g-1" }))
	g, err := e.Create(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "g-1", g.ID)
	assert.NotEmpty(t, g.Token)
	assert.Equal(t, game.StatusCreated, g.Status)
	assert.Equal(t, int64(1), g.Version)
	assert.Equal(t, clk.Now(), g.CreatedAt)

	_, err = e.Create(context.Background(), "bob")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict), "duplicate id")
}

func TestCreateTokensAreUnique(t *testing.T) {
	e, _ := newEngine(t)
	a, err := e.Create(context.Background(), "alice")
	require.NoError(t, err)
	b, err := e.Create(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Token, b.Token)
}

func TestCreateWordPoolFailure(t *testing.T) {
	e := New(store.NewMemoryStore(), fixedWords{err: apperr.Invalid("pool too small")}, clue.New())
	_, err := e.Create(context.Background(), "alice")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}

func TestUnknownGame(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	_, err := e.Start(ctx, "nope")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	_, err = e.Finish(ctx, "nope")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	_, err = e.CurrentGuess(ctx, "nope")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestFourPlayerRound(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	players := []string{"p1", "p2", "p3", "p4"}
	id := setupGame(t, e, players...)

	g, err := e.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, game.StatusRunning, g.Status)
	assert.True(t, g.NormalMode)

	card, err := e.DrawCard(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, card.Words, "cat")

	g, err = e.ProposeWord(ctx, id, "p2", "cat")
	require.NoError(t, err)
	assert.Equal(t, 1, g.RoundNo)
	assert.Equal(t, game.WordSelected, g.Round.WordStatus)

	for i, p := range players {
		g, err = e.Decide(ctx, id, p, true)
		require.NoError(t, err)
		if i < 3 {
			assert.Equal(t, game.WordSelected, g.Round.WordStatus)
		}
	}
	assert.Equal(t, game.WordAccepted, g.Round.WordStatus)

	for i, p := range []string{"p2", "p3", "p4"} {
		c, err := e.SubmitClue(ctx, id, p, fmt.Sprintf("hint%d", i), 10)
		require.NoError(t, err)
		assert.True(t, c.Valid)
	}
	g, err = e.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 6, g.ActiveCard.Score)

	guess, err := e.SubmitGuess(ctx, id, "p1", "CAT", 12)
	require.NoError(t, err)
	assert.Equal(t, game.OutcomeCorrect, guess.Outcome)

	g, err = e.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 1, g.CorrectlyGuessed.Len())
	assert.Equal(t, 8, g.CorrectlyGuessed.Cards[0].Score)
	assert.Equal(t, game.CardsPerGame, g.CardCount())

	g, err = e.Finish(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, game.StatusFinished, g.Status)
	assert.Equal(t, 8, g.Score)
	assert.Equal(t, "p2", g.CurrentPlayer)
}

func TestThreePlayerMode(t *testing.T) {
	e, _ := newEngine(t)
	id := setupGame(t, e, "a", "b", "c")
	g, err := e.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, g.NormalMode)
}

func TestCluesAreChecked(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	id := setupGame(t, e, "a", "b", "c")
	_, err := e.DrawCard(ctx, id)
	require.NoError(t, err)
	_, err = e.ProposeWord(ctx, id, "b", "moon")
	require.NoError(t, err)
	for _, p := range []string{"a", "b", "c"} {
		_, err = e.Decide(ctx, id, p, true)
		require.NoError(t, err)
	}

	c, err := e.SubmitClue(ctx, id, "b", "Moon", 3)
	require.NoError(t, err)
	assert.False(t, c.Valid)

	g, err := e.InvalidateClues(ctx, id, []string{"moon"})
	require.NoError(t, err)
	assert.False(t, g.Round.Clues[0].Valid)
	assert.Equal(t, 2, g.ActiveCard.Score)
}

func TestSecondRejectionForbidden(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	id := setupGame(t, e, "a", "b", "c")
	_, err := e.DrawCard(ctx, id)
	require.NoError(t, err)
	_, err = e.ProposeWord(ctx, id, "b", "cat")
	require.NoError(t, err)
	_, err = e.Decide(ctx, id, "c", false)
	require.NoError(t, err)
	_, err = e.ProposeWord(ctx, id, "b", "dog")
	require.NoError(t, err)

	before, err := e.Get(ctx, id)
	require.NoError(t, err)
	_, err = e.Decide(ctx, id, "a", false)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	after, err := e.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version, "failed actions are not persisted")
	assert.Equal(t, game.WordSelected, after.Round.WordStatus)
}

func TestCurrentGuessDoesNotWrite(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	id := setupGame(t, e, "a", "b")
	before, err := e.Get(ctx, id)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		g, err := e.CurrentGuess(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, game.OutcomeNone, g.Outcome)
	}
	after, err := e.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
}

func acceptWord(t *testing.T, e *Engine, id string, players ...string) {
	t.Helper()
	ctx := context.Background()
	_, err := e.DrawCard(ctx, id)
	require.NoError(t, err)
	_, err = e.ProposeWord(ctx, id, players[1], "cat")
	require.NoError(t, err)
	for _, p := range players {
		_, err = e.Decide(ctx, id, p, true)
		require.NoError(t, err)
	}
}

func TestConcurrentGuessesResolveOnce(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	id := setupGame(t, e, "a", "b")
	acceptWord(t, e, id, "a", "b")

	const n = 16
	var (
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	var eg errgroup.Group
	for i := 0; i < n; i++ {
		text := "cat"
		if i%2 == 1 {
			text = "dog"
		}
		eg.Go(func() error {
			_, err := e.SubmitGuess(ctx, id, "a", text, 5)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperr.IsKind(err, apperr.KindConflict):
				conflicts++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)

	g, err := e.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, game.CardsPerGame, g.CardCount())
	assert.Equal(t, 0, e.locks.size())
}

func TestConcurrentVotesReachQuorum(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	players := []string{"a", "b", "c", "d", "e", "f"}
	id := setupGame(t, e, players...)
	_, err := e.DrawCard(ctx, id)
	require.NoError(t, err)
	_, err = e.ProposeWord(ctx, id, "b", "sun")
	require.NoError(t, err)

	eg, gctx := errgroup.WithContext(ctx)
	for _, p := range players {
		eg.Go(func() error {
			_, err := e.Decide(gctx, id, p, true)
			return err
		})
	}
	require.NoError(t, eg.Wait())

	g, err := e.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, game.WordAccepted, g.Round.WordStatus)
	assert.Equal(t, len(players), g.Round.DecisionCount)
}

// flakyRepo fails the first `fail` saves with a version conflict.
type flakyRepo struct {
	store.Repository
	mu    sync.Mutex
	fail  int
	saves int
}

func (f *flakyRepo) Save(ctx context.Context, g *game.Game) error {
	f.mu.Lock()
	f.saves++
	fail := f.fail > 0
	if fail {
		f.fail--
	}
	f.mu.Unlock()
	if fail {
		return store.ErrConflict
	}
	return f.Repository.Save(ctx, g)
}

func TestMutateRetriesOnVersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := &flakyRepo{Repository: store.NewMemoryStore()}
	e := New(repo, fixedWords{}, clue.New(), WithRetries(2))
	g, err := e.Create(ctx, "alice")
	require.NoError(t, err)

	repo.fail = 2
	_, err = e.Join(ctx, g.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 4, repo.saves)

	repo.fail = 3
	_, err = e.Join(ctx, g.ID, "carol")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	got, err := e.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, got.Players)
}

func TestMutateHonoursCancelledContext(t *testing.T) {
	e, _ := newEngine(t)
	id := setupGame(t, e, "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.DrawCard(ctx, id)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSweepFinishesIdleGames(t *testing.T) {
	var (
		mu       sync.Mutex
		finished []string
	)
	hook := func(_ context.Context, g *game.Game) {
		mu.Lock()
		finished = append(finished, g.ID)
		mu.Unlock()
	}
	e, clk := newEngine(t, WithFinishHook(hook))
	ctx := context.Background()

	stale := setupGame(t, e, "a", "b")
	acceptWord(t, e, stale, "a", "b")
	lobby, err := e.Create(ctx, "c")
	require.NoError(t, err)

	clk.Advance(3 * time.Hour)
	fresh := setupGame(t, e, "d")

	n, err := e.Sweep(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{stale}, finished)

	g, err := e.Get(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, game.StatusFinished, g.Status)
	assert.Equal(t, game.CardsPerGame, g.CardCount())

	for _, id := range []string{lobby.ID, fresh} {
		g, err := e.Get(ctx, id)
		require.NoError(t, err)
		assert.NotEqual(t, game.StatusFinished, g.Status)
	}
}

func TestFinishHookRunsOnExplicitFinish(t *testing.T) {
	var got *game.Game
	e, _ := newEngine(t, WithFinishHook(func(_ context.Context, g *game.Game) { got = g }))
	id := setupGame(t, e, "a")
	_, err := e.Finish(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)

	_, err = e.Finish(context.Background(), id)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}
