// internal/game/game.go
//
// Game aggregate: creation, lifecycle transitions and roster management.
// Round play (draw, word selection, clues, guess) lives in round.go.
//
// Every method validates first and mutates second, so a returned error
// always leaves the aggregate untouched.

package game

import (
	"time"

	"github.com/robalobadob/justone/internal/apperr"
)

// New builds a CREATED game for creator with a deck made from words.
// words must hold at least PoolSize entries; the caller shuffles them.
func New(id, token, creator string, words []string, now time.Time) (*Game, error) {
	if creator == "" {
		return nil, apperr.Invalid("creator id is required")
	}
	if len(words) < PoolSize {
		return nil, apperr.Invalid("need %d words to build a deck, got %d", PoolSize, len(words))
	}
	g := &Game{
		ID:            id,
		Token:         token,
		Status:        StatusCreated,
		Players:       []string{creator},
		CurrentPlayer: creator,
		NormalMode:    true,
		Deck:          NewDeck(words[:PoolSize]),
		Round:         freshRound(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return g, nil
}

func freshRound() Round {
	return Round{
		Phase:            PhaseIdle,
		WordStatus:       WordNone,
		RejectionAllowed: true,
	}
}

// Start moves a CREATED game to RUNNING and fixes the play mode from the
// roster size: exactly three players play the reduced-consensus variant.
func (g *Game) Start() error {
	if g.Status != StatusCreated {
		return apperr.Conflict("game %s is %s, cannot start", g.ID, g.Status)
	}
	g.Status = StatusRunning
	g.NormalMode = len(g.Players) != 3
	return nil
}

// Finish totals the correctly guessed pile, clears round state, passes
// the turn and marks the game FINISHED. A card still in play goes to the
// game box.
func (g *Game) Finish() error {
	if g.Status == StatusFinished {
		return apperr.Conflict("game %s is already finished", g.ID)
	}
	if g.ActiveCard != nil {
		g.Box.Add(*g.ActiveCard)
	}
	g.Score += g.CorrectlyGuessed.Score()
	g.resetRound()
	g.Status = StatusFinished
	return nil
}

// resetRound clears ephemeral round state and rotates the turn.
func (g *Game) resetRound() {
	g.ActiveCard = nil
	g.Round = freshRound()
	g.CurrentPlayer = g.nextPlayer()
}

// Chooser returns the player who proposes the mystery word: the first
// clue-giver after the guesser. A solo player chooses for themselves.
func (g *Game) Chooser() string { return g.nextPlayer() }

// nextPlayer returns the player after CurrentPlayer in join order,
// wrapping past the last one.
func (g *Game) nextPlayer() string {
	i := g.playerIndex(g.CurrentPlayer)
	return g.Players[(i+1)%len(g.Players)]
}

func (g *Game) playerIndex(id string) int {
	for i, p := range g.Players {
		if p == id {
			return i
		}
	}
	return -1
}

// HasPlayer reports whether id is on the roster.
func (g *Game) HasPlayer(id string) bool { return g.playerIndex(id) >= 0 }

// Join appends a player to the roster of a CREATED game.
func (g *Game) Join(player string) error {
	if player == "" {
		return apperr.Invalid("player id is required")
	}
	if g.Status != StatusCreated {
		return apperr.Conflict("game %s is %s, roster is fixed", g.ID, g.Status)
	}
	if g.HasPlayer(player) {
		return apperr.Conflict("player %s has already joined game %s", player, g.ID)
	}
	g.Players = append(g.Players, player)
	return nil
}

// Leave removes a player. If the leaver held the turn, it passes to the
// next remaining player exactly once. Their pending vote is withdrawn, and
// so is their clue along with the points it earned the card.
func (g *Game) Leave(player string) error {
	if g.Status == StatusFinished {
		return apperr.Conflict("game %s is finished", g.ID)
	}
	i := g.playerIndex(player)
	if i < 0 {
		return apperr.NotFound("player %s is not in game %s", player, g.ID)
	}
	if len(g.Players) == 1 {
		return apperr.Conflict("player %s is the last player of game %s", player, g.ID)
	}

	g.Players = append(g.Players[:i:i], g.Players[i+1:]...)
	if g.CurrentPlayer == player {
		n := len(g.Players)
		if g.Round.Phase == PhaseResolved {
			// The next draw rotates once more; park the turn on the
			// player before the leaver so it lands on their successor.
			g.CurrentPlayer = g.Players[(i+n-1)%n]
		} else {
			g.CurrentPlayer = g.Players[i%n]
		}
	}

	r := &g.Round
	if j := indexOf(r.Voters, player); j >= 0 {
		r.Voters = append(r.Voters[:j:j], r.Voters[j+1:]...)
		r.DecisionCount--
	}
	for j, c := range r.Clues {
		if c.Player == player {
			r.Clues = append(r.Clues[:j:j], r.Clues[j+1:]...)
			if g.ActiveCard != nil {
				g.ActiveCard.Score -= speedBonus(c.Seconds, ClueFastSeconds)
			}
			break
		}
	}
	// The remaining players may now all have accepted.
	if r.Phase == PhaseWordSelection && r.WordStatus == WordSelected &&
		r.DecisionCount > 0 && r.DecisionCount == len(g.Players) {
		r.WordStatus = WordAccepted
		r.Phase = PhaseClueCollection
	}
	return nil
}

// CardCount returns the number of cards across every pile and the
// active-card slot. It is CardsPerGame for the lifetime of a game.
func (g *Game) CardCount() int {
	n := g.Deck.Len() + g.CorrectlyGuessed.Len() + g.Box.Len()
	if g.ActiveCard != nil {
		n++
	}
	return n
}

// Clone returns a deep copy of g.
func (g *Game) Clone() *Game {
	c := *g
	c.Players = append([]string(nil), g.Players...)
	c.Deck.Cards = cloneCards(g.Deck.Cards)
	c.CorrectlyGuessed.Cards = cloneCards(g.CorrectlyGuessed.Cards)
	c.Box.Cards = cloneCards(g.Box.Cards)
	if g.ActiveCard != nil {
		ac := Card{Words: append([]string(nil), g.ActiveCard.Words...), Score: g.ActiveCard.Score}
		c.ActiveCard = &ac
	}
	c.Round.Voters = append([]string(nil), g.Round.Voters...)
	c.Round.Clues = append([]Clue(nil), g.Round.Clues...)
	if g.Round.Guess != nil {
		gs := *g.Round.Guess
		c.Round.Guess = &gs
	}
	return &c
}

func indexOf(list []string, s string) int {
	for i, x := range list {
		if x == s {
			return i
		}
	}
	return -1
}
