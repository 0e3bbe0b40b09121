// Core type definitions for the game engine.
// Defines:
//   - Tile: per-letter verdict of a guess (correct/present/absent).
//   - Feedback: the five tiles of one guess, index-aligned with its letters.
//   - Status: lifecycle of a single game.

package game

import (
	"fmt"
	"strings"

	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// Tile represents the evaluation result for a single letter in a guess.
type Tile uint8

const (
	Absent  Tile = iota // letter not in the secret (after duplicates are claimed)
	Present             // letter in the secret, different position
	Correct             // letter in the secret at this position
)

var tileNames = [...]string{"absent", "present", "correct"}

func (t Tile) String() string {
	if int(t) < len(tileNames) {
		return tileNames[t]
	}
	return fmt.Sprintf("tile(%d)", uint8(t))
}

// Color is the classic board color for the tile.
func (t Tile) Color() string {
	switch t {
	case Correct:
		return "green"
	case Present:
		return "yellow"
	default:
		return "grey"
	}
}

func (t Tile) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tile) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "absent", "grey", "gray":
		*t = Absent
	case "present", "yellow":
		*t = Present
	case "correct", "green":
		*t = Correct
	default:
		return fmt.Errorf("game: unknown tile %q", b)
	}
	return nil
}

// Feedback holds one tile per guess position.
type Feedback [words.Length]Tile

// NumOutcomes is the number of distinct Feedback values.
const NumOutcomes = 243 // 3^5

// Code packs the feedback into 0..NumOutcomes-1 (base 3, position 0 most
// significant). Distinct feedbacks have distinct codes.
func (f Feedback) Code() int {
	c := 0
	for _, t := range f {
		c = c*3 + int(t)
	}
	return c
}

// Solved reports whether every tile is Correct.
func (f Feedback) Solved() bool {
	for _, t := range f {
		if t != Correct {
			return false
		}
	}
	return true
}

// Mismatches counts positions where f and other disagree.
func (f Feedback) Mismatches(other Feedback) int {
	n := 0
	for i := range f {
		if f[i] != other[i] {
			n++
		}
	}
	return n
}

// String renders the feedback as G/Y/. characters, e.g. "YY.G.".
func (f Feedback) String() string {
	var b strings.Builder
	for _, t := range f {
		switch t {
		case Correct:
			b.WriteByte('G')
		case Present:
			b.WriteByte('Y')
		default:
			b.WriteByte('.')
		}
	}
	return b.String()
}

// Status is the lifecycle state of a game.
type Status uint8

const (
	InProgress Status = iota
	Won
	Lost
)

func (s Status) String() string {
	switch s {
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "playing"
	}
}

// Terminal reports whether no further guesses are accepted.
func (s Status) Terminal() bool { return s != InProgress }

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
