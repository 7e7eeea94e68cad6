// Package clue provides the default clue legality checker.
//
// A clue is invalid when it is not exactly one word, when it equals,
// contains or is contained in the chosen word, or when another player
// already gave the same clue this round. Comparison ignores case.
package clue

import (
	"strings"
	"unicode"

	"github.com/robalobadob/justone/internal/game"
)

// Checker implements game.ClueChecker.
type Checker struct {
	// MinStem is the shortest substring overlap with the chosen word that
	// still counts as giving the word away.
	MinStem int
}

// New returns a Checker with default settings.
func New() *Checker { return &Checker{MinStem: 4} }

// Check returns c annotated with its validity. g is only read.
func (k *Checker) Check(c game.Clue, g *game.Game) game.Clue {
	text := strings.ToLower(strings.TrimSpace(c.Text))
	c.Text = strings.TrimSpace(c.Text)
	c.Valid = text != "" && singleWord(text) &&
		!k.givesAway(text, g.Round.ChosenWord) &&
		!repeated(text, g.Round.Clues)
	return c
}

func singleWord(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func (k *Checker) givesAway(clue, word string) bool {
	word = strings.ToLower(word)
	if word == "" {
		return false
	}
	if clue == word {
		return true
	}
	if len(clue) >= k.MinStem && strings.Contains(word, clue) {
		return true
	}
	return len(word) >= k.MinStem && strings.Contains(clue, word)
}

func repeated(clue string, prior []game.Clue) bool {
	for _, p := range prior {
		if strings.EqualFold(p.Text, clue) {
			return true
		}
	}
	return false
}
