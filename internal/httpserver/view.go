package httpserver

import "github.com/robalobadob/justone/internal/game"

// gameView is the client-facing shape of a game. The guesser never sees
// the active card, the chosen word or clues ruled invalid.
type gameView struct {
	ID                string          `json:"id"`
	Status            game.Status     `json:"status"`
	PlayerIDs         []string        `json:"playerIds"`
	CurrentPlayerID   string          `json:"currentPlayerId"`
	Round             int             `json:"round"`
	Score             int             `json:"score"`
	NormalMode        bool            `json:"normalMode"`
	DeckSize          int             `json:"deckSize"`
	CorrectlyGuessed  int             `json:"correctlyGuessed"`
	GameBox           int             `json:"gameBox"`
	ActiveCard        *game.Card      `json:"activeCard,omitempty"`
	Phase             game.Phase      `json:"phase"`
	ChosenWord        string          `json:"chosenWord,omitempty"`
	WordStatus        game.WordStatus `json:"wordStatus"`
	RejectionAllowed  bool            `json:"wordRejectionAllowedThisTurn"`
	WordDecisionCount int             `json:"wordDecisionCounter"`
	Clues             []game.Clue     `json:"clues"`
	Guess             game.Guess      `json:"guess"`
	Version           int64           `json:"version"`
}

func newGameView(g *game.Game, viewer string) gameView {
	v := gameView{
		ID:                g.ID,
		Status:            g.Status,
		PlayerIDs:         g.Players,
		CurrentPlayerID:   g.CurrentPlayer,
		Round:             g.RoundNo,
		Score:             g.Score,
		NormalMode:        g.NormalMode,
		DeckSize:          g.Deck.Len(),
		CorrectlyGuessed:  g.CorrectlyGuessed.Len(),
		GameBox:           g.Box.Len(),
		ActiveCard:        g.ActiveCard,
		Phase:             g.Round.Phase,
		ChosenWord:        g.Round.ChosenWord,
		WordStatus:        g.Round.WordStatus,
		RejectionAllowed:  g.Round.RejectionAllowed,
		WordDecisionCount: g.Round.DecisionCount,
		Clues:             g.Round.Clues,
		Guess:             g.CurrentGuess(),
		Version:           g.Version,
	}
	if v.Clues == nil {
		v.Clues = []game.Clue{}
	}
	if viewer == g.CurrentPlayer && g.Round.Phase != game.PhaseResolved {
		v.ActiveCard = nil
		v.ChosenWord = ""
		valid := make([]game.Clue, 0, len(g.Round.Clues))
		for _, c := range g.Round.Clues {
			if c.Valid {
				valid = append(valid, c)
			}
		}
		v.Clues = valid
	}
	return v
}
