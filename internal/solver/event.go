package solver

import (
	"github.com/robalobadob/wordle/apps/solver/internal/game"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// Kind tags an Event.
type Kind uint8

const (
	CellUpdate Kind = iota + 1
	Finished
)

func (k Kind) String() string {
	switch k {
	case CellUpdate:
		return "cell"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Reason explains why a run finished.
type Reason string

const (
	ReasonSolved       Reason = "solved"
	ReasonOutOfGuesses Reason = "out_of_guesses"
	// ReasonExhausted means the strategy ran out of candidates, which points
	// at a corpus/oracle mismatch or a filtering bug.
	ReasonExhausted Reason = "candidates_exhausted"
	ReasonCancelled Reason = "cancelled"
)

// Event is one item of a solver stream: a CellUpdate per guessed letter,
// in row then column order, followed by exactly one Finished.
type Event struct {
	Kind Kind `json:"kind"`

	// CellUpdate fields.
	Row    int       `json:"row"`
	Col    int       `json:"col"`
	Letter string    `json:"letter,omitempty"`
	Tile   game.Tile `json:"tile"`

	// Finished fields.
	FinalGuess words.Word `json:"finalGuess"`
	Won        bool       `json:"won"`
	Reason     Reason     `json:"reason,omitempty"`
	Guesses    int        `json:"guesses"`
}

func cellEvent(row, col int, letter rune, t game.Tile) Event {
	return Event{Kind: CellUpdate, Row: row, Col: col, Letter: string(letter), Tile: t}
}
