// internal/game/types.go
//
// Core type definitions for the Just One game aggregate.
// Defines:
//   - Status: game lifecycle (CREATED → RUNNING → FINISHED).
//   - Phase: round sub-state (IDLE → WORD_SELECTION → CLUE_COLLECTION → RESOLVED).
//   - WordStatus: consensus on the proposed mystery word.
//   - Outcome: result of a guess.
//   - Card, Clue, Guess value objects and the Game aggregate root.

package game

import "time"

// Rules of the base game.
const (
	CardsPerGame = 13
	WordsPerCard = 5
	PoolSize     = CardsPerGame * WordsPerCard

	ClueFastSeconds  = 10 // clue bonus window
	GuessFastSeconds = 15 // guess bonus window
	FastPoints       = 2
	SlowPoints       = 1
)

// Status is the game lifecycle state.
type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusRunning  Status = "RUNNING"
	StatusFinished Status = "FINISHED"
)

// WordStatus tracks consensus on the proposed mystery word.
type WordStatus string

const (
	WordNone     WordStatus = "NO_CHOSEN_WORD"
	WordSelected WordStatus = "SELECTED"
	WordRejected WordStatus = "REJECTED"
	WordAccepted WordStatus = "ACCEPTED"
)

// Outcome is the result of a guess.
type Outcome string

const (
	OutcomeNone    Outcome = "NONE"
	OutcomeCorrect Outcome = "CORRECT"
	OutcomeWrong   Outcome = "WRONG"
)

// Card holds five candidate mystery words and the points earned with it.
type Card struct {
	Words []string `json:"mysteryWords"`
	Score int      `json:"score"`
}

// HasWord reports whether w is one of the card's mystery words.
func (c *Card) HasWord(w string) bool {
	for _, x := range c.Words {
		if x == w {
			return true
		}
	}
	return false
}

// Clue is one player's hint for the round.
type Clue struct {
	Player  string `json:"player"`
	Text    string `json:"text"`
	Seconds int    `json:"submittedAtSeconds"`
	Valid   bool   `json:"isValid"`
}

// Guess is the round's single attempt at the mystery word.
type Guess struct {
	Player  string  `json:"player,omitempty"`
	Text    string  `json:"text,omitempty"`
	Seconds int     `json:"submittedAtSeconds"`
	Outcome Outcome `json:"outcome"`
}

// Round is the ephemeral per-round state, cleared on round reset.
type Round struct {
	Phase            Phase      `json:"phase"`
	ChosenWord       string     `json:"chosenWord,omitempty"`
	WordStatus       WordStatus `json:"wordStatus"`
	RejectionAllowed bool       `json:"wordRejectionAllowedThisTurn"`
	DecisionCount    int        `json:"wordDecisionCounter"`
	Voters           []string   `json:"voters"`
	Clues            []Clue     `json:"clues"`
	Guess            *Guess     `json:"guess,omitempty"`
}

// Game is the aggregate root for one table of players.
type Game struct {
	ID               string    `json:"id"`
	Token            string    `json:"token"`
	Status           Status    `json:"status"`
	Players          []string  `json:"playerIds"` // join order = turn order
	CurrentPlayer    string    `json:"currentPlayerId"`
	RoundNo          int       `json:"round"`
	Score            int       `json:"score"`
	NormalMode       bool      `json:"normalMode"`
	Deck             Deck      `json:"deck"`
	ActiveCard       *Card     `json:"activeCard,omitempty"`
	CorrectlyGuessed Deck      `json:"correctlyGuessed"`
	Box              GameBox   `json:"gameBox"`
	Round            Round     `json:"roundState"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
