package game

// Phase is the round sub-state. It is stored explicitly instead of being
// inferred from the word status, clue count and guess.
type Phase string

const (
	PhaseIdle           Phase = "IDLE"            // no active card
	PhaseWordSelection  Phase = "WORD_SELECTION"  // proposing and voting on the mystery word
	PhaseClueCollection Phase = "CLUE_COLLECTION" // word accepted, clues and the guess come in
	PhaseResolved       Phase = "RESOLVED"        // card guessed or skipped, waiting for the next draw
)

var phaseTransitions = map[Phase][]Phase{
	PhaseIdle:           {PhaseWordSelection},
	PhaseWordSelection:  {PhaseClueCollection, PhaseResolved},
	PhaseClueCollection: {PhaseResolved},
	PhaseResolved:       {PhaseWordSelection},
}

// CanTransitionTo reports whether a round may move from p to target.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range phaseTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

func (p Phase) String() string { return string(p) }
