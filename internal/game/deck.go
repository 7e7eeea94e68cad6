// internal/game/deck.go
//
// Card piles: Deck (ordered, FIFO from the top at index 0) and GameBox
// (unordered, append-only discard sink).

package game

// Deck is an ordered pile of cards; index 0 is the top.
type Deck struct {
	Cards []Card `json:"cards"`
}

// NewDeck partitions words into cards of WordsPerCard words each, in order.
// Leftover words that do not fill a card are ignored.
func NewDeck(words []string) Deck {
	n := len(words) / WordsPerCard
	d := Deck{Cards: make([]Card, 0, n)}
	for i := 0; i < n; i++ {
		ws := make([]string, WordsPerCard)
		copy(ws, words[i*WordsPerCard:(i+1)*WordsPerCard])
		d.Cards = append(d.Cards, Card{Words: ws})
	}
	return d
}

// Len returns the number of cards in the deck.
func (d *Deck) Len() int { return len(d.Cards) }

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, bool) {
	if len(d.Cards) == 0 {
		return Card{}, false
	}
	c := d.Cards[0]
	d.Cards = d.Cards[1:]
	return c, true
}

// Push appends c at the bottom.
func (d *Deck) Push(c Card) { d.Cards = append(d.Cards, c) }

// Score sums the score of every card in the deck.
func (d *Deck) Score() int {
	total := 0
	for _, c := range d.Cards {
		total += c.Score
	}
	return total
}

// GameBox holds cards removed from play without being counted.
type GameBox struct {
	Cards []Card `json:"cards"`
}

// Add drops c into the box.
func (b *GameBox) Add(c Card) { b.Cards = append(b.Cards, c) }

// Len returns the number of cards in the box.
func (b *GameBox) Len() int { return len(b.Cards) }

func cloneCards(in []Card) []Card {
	if in == nil {
		return nil
	}
	out := make([]Card, len(in))
	for i, c := range in {
		out[i] = Card{Words: append([]string(nil), c.Words...), Score: c.Score}
	}
	return out
}
