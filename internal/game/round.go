// internal/game/round.go
//
// Round play on the Game aggregate:
//   - DrawCard:        IDLE/RESOLVED → WORD_SELECTION (resets and rotates after a resolved round).
//   - ProposeWord:     pick a mystery word from the active card.
//   - Decide:          one player's accept/reject vote on the proposal.
//   - AddClue:         one clue per player, scored by speed.
//   - InvalidateClues: flag clues ruled illegal after the fact.
//   - SkipGuessing:    abandon the card into the game box.
//   - MakeGuess:       resolve the round, moving cards between piles.

package game

import (
	"strings"

	"github.com/robalobadob/justone/internal/apperr"
)

// ClueChecker annotates a proposed clue against the game without
// mutating it.
type ClueChecker interface {
	Check(c Clue, g *Game) Clue
}

// ClueCheckerFunc adapts a function to ClueChecker.
type ClueCheckerFunc func(c Clue, g *Game) Clue

func (f ClueCheckerFunc) Check(c Clue, g *Game) Clue { return f(c, g) }

func (g *Game) requireRunning() error {
	if g.Status != StatusRunning {
		return apperr.Conflict("game %s is %s", g.ID, g.Status)
	}
	return nil
}

func (g *Game) requirePlayer(player string) error {
	if !g.HasPlayer(player) {
		return apperr.Forbidden("player %s is not in game %s", player, g.ID)
	}
	return nil
}

// DrawCard puts the top card of the deck in play and starts a new round.
// After a resolved round the ephemeral state is cleared and the turn
// passes to the next player first.
func (g *Game) DrawCard() (Card, error) {
	if err := g.requireRunning(); err != nil {
		return Card{}, err
	}
	if !g.Round.Phase.CanTransitionTo(PhaseWordSelection) {
		return Card{}, apperr.Conflict("a card is already in play in game %s", g.ID)
	}
	if g.Deck.Len() == 0 {
		return Card{}, apperr.Conflict("deck of game %s is empty", g.ID)
	}
	if g.Round.Phase == PhaseResolved {
		g.resetRound()
	}
	c, _ := g.Deck.Draw()
	g.ActiveCard = &c
	g.RoundNo++
	g.Round.Phase = PhaseWordSelection
	return c, nil
}

// ProposeWord selects one of the active card's mystery words and opens a
// new vote on it. Only the chooser may propose, and only while no word is
// on the table or after the turn's rejection.
func (g *Game) ProposeWord(player, word string) error {
	if err := g.requireRunning(); err != nil {
		return err
	}
	if err := g.requirePlayer(player); err != nil {
		return err
	}
	if g.ActiveCard == nil {
		return apperr.Conflict("game %s has no active card", g.ID)
	}
	if g.Round.Phase != PhaseWordSelection {
		return apperr.Conflict("word for round %d is already settled", g.RoundNo)
	}
	if chooser := g.Chooser(); player != chooser {
		return apperr.Forbidden("only %s may propose the word this round", chooser)
	}
	if g.Round.WordStatus == WordSelected {
		return apperr.Conflict("%q is still being voted on", g.Round.ChosenWord)
	}
	word = strings.ToLower(strings.TrimSpace(word))
	if !g.ActiveCard.HasWord(word) {
		return apperr.Invalid("the word %q is not on the active card", word)
	}
	r := &g.Round
	r.ChosenWord = word
	r.WordStatus = WordSelected
	r.DecisionCount = 0
	r.Voters = nil
	return nil
}

// Decide records one player's vote on the proposed word.
//
// Only one rejection is allowed per turn; a second one is forbidden.
// Acceptances cast after the rejection only count as responses. The word
// is accepted once every player has accepted it.
func (g *Game) Decide(player string, accept bool) error {
	if err := g.requireRunning(); err != nil {
		return err
	}
	if err := g.requirePlayer(player); err != nil {
		return err
	}
	r := &g.Round
	if r.Phase != PhaseWordSelection || r.WordStatus == WordNone {
		return apperr.Conflict("no word is open for decision in game %s", g.ID)
	}
	if indexOf(r.Voters, player) >= 0 {
		return apperr.Conflict("player %s has already decided on %q", player, r.ChosenWord)
	}
	if !accept && !r.RejectionAllowed {
		return apperr.Forbidden("only one word can be rejected per turn")
	}

	r.DecisionCount++
	r.Voters = append(r.Voters, player)

	switch {
	case r.WordStatus == WordRejected:
	case !accept:
		r.WordStatus = WordRejected
		r.RejectionAllowed = false
	case r.DecisionCount == len(g.Players):
		r.WordStatus = WordAccepted
		r.Phase = PhaseClueCollection
	}
	return nil
}

// AddClue runs a clue through checker and adds the annotated result.
// The active card earns FastPoints for clues given within
// ClueFastSeconds and SlowPoints otherwise, valid or not.
func (g *Game) AddClue(player, text string, seconds int, checker ClueChecker) (Clue, error) {
	if err := g.requireRunning(); err != nil {
		return Clue{}, err
	}
	if err := g.requirePlayer(player); err != nil {
		return Clue{}, err
	}
	r := &g.Round
	if r.Phase != PhaseClueCollection {
		return Clue{}, apperr.Conflict("game %s is not collecting clues", g.ID)
	}
	if len(r.Clues) >= len(g.Players) {
		return Clue{}, apperr.Conflict("there are already as many clues as players")
	}
	for _, c := range r.Clues {
		if c.Player == player {
			return Clue{}, apperr.Conflict("player %s has already given a clue", player)
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Clue{}, apperr.Invalid("clue text is required")
	}
	if seconds < 0 {
		return Clue{}, apperr.Invalid("clue time must not be negative")
	}

	checked := checker.Check(Clue{Player: player, Text: text, Seconds: seconds, Valid: true}, g)
	checked.Player = player
	r.Clues = append(r.Clues, checked)
	g.ActiveCard.Score += speedBonus(seconds, ClueFastSeconds)
	return checked, nil
}

// InvalidateClues marks every clue whose text matches one of texts as
// invalid and returns how many were marked.
func (g *Game) InvalidateClues(texts []string) (int, error) {
	if err := g.requireRunning(); err != nil {
		return 0, err
	}
	n := 0
	for _, t := range texts {
		t = strings.TrimSpace(t)
		for i := range g.Round.Clues {
			c := &g.Round.Clues[i]
			if c.Valid && strings.EqualFold(c.Text, t) {
				c.Valid = false
				n++
			}
		}
	}
	return n, nil
}

// SkipGuessing abandons the active card into the game box.
func (g *Game) SkipGuessing() error {
	if err := g.requireRunning(); err != nil {
		return err
	}
	if g.ActiveCard == nil || !g.Round.Phase.CanTransitionTo(PhaseResolved) {
		return apperr.Conflict("game %s has no card to skip", g.ID)
	}
	g.Box.Add(*g.ActiveCard)
	g.ActiveCard = nil
	g.Round.Phase = PhaseResolved
	return nil
}

// CurrentGuess returns the round's guess, or one with OutcomeNone.
func (g *Game) CurrentGuess() Guess {
	if g.Round.Guess == nil {
		return Guess{Outcome: OutcomeNone}
	}
	return *g.Round.Guess
}

// MakeGuess resolves the round. A correct guess scores the active card
// and files it under correctly guessed. A wrong guess boxes the active
// card and the top of the deck; if that empties the deck, the top of the
// correctly guessed pile is boxed too.
func (g *Game) MakeGuess(player, text string, seconds int) (Guess, error) {
	if err := g.requireRunning(); err != nil {
		return Guess{}, err
	}
	if g.Round.Guess != nil {
		return Guess{}, apperr.Conflict("a guess has already been made this round")
	}
	if player != g.CurrentPlayer {
		return Guess{}, apperr.Forbidden("only %s may guess this round", g.CurrentPlayer)
	}
	if g.Round.Phase != PhaseClueCollection {
		return Guess{}, apperr.Conflict("game %s is not waiting for a guess", g.ID)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Guess{}, apperr.Invalid("guess text is required")
	}
	if seconds < 0 {
		return Guess{}, apperr.Invalid("guess time must not be negative")
	}

	guess := Guess{Player: player, Text: text, Seconds: seconds}
	card := *g.ActiveCard
	if strings.EqualFold(text, g.Round.ChosenWord) {
		guess.Outcome = OutcomeCorrect
		card.Score += speedBonus(seconds, GuessFastSeconds)
		g.CorrectlyGuessed.Push(card)
	} else {
		guess.Outcome = OutcomeWrong
		g.Box.Add(card)
		last := g.Deck.Len() == 1
		if top, ok := g.Deck.Draw(); ok {
			g.Box.Add(top)
		}
		if last {
			if top, ok := g.CorrectlyGuessed.Draw(); ok {
				g.Box.Add(top)
			}
		}
	}
	g.ActiveCard = nil
	g.Round.Guess = &guess
	g.Round.Phase = PhaseResolved
	return guess, nil
}

func speedBonus(seconds, window int) int {
	if seconds <= window {
		return FastPoints
	}
	return SlowPoints
}
