package strategy

import (
	"math/rand/v2"
	"slices"

	"github.com/robalobadob/wordle/apps/solver/internal/game"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// Frequency guesses the candidate whose distinct letters are most common
// among the remaining candidates.
type Frequency struct {
	pool   *Pool
	rng    *rand.Rand
	legacy bool
}

// NewFrequency returns a frequency strategy. With legacy set, Observe uses
// the simplified per-tile matcher instead of the exact feedback check.
func NewFrequency(corpus *words.Corpus, r *rand.Rand, legacy bool) *Frequency {
	return &Frequency{pool: NewPool(corpus), rng: r, legacy: legacy}
}

func (s *Frequency) Name() string { return NameFrequency }

func (s *Frequency) Reset() { s.pool.Reset() }

func (s *Frequency) NextGuess() (words.Word, bool) {
	cands := s.pool.Words()
	if len(cands) == 0 {
		return words.Word{}, false
	}

	freq := make(map[rune]int, 32)
	for _, w := range cands {
		for _, r := range w {
			freq[r]++
		}
	}

	best := -1
	var top []words.Word
	for _, w := range cands {
		score := letterScore(w, freq)
		switch {
		case score > best:
			best = score
			top = append(top[:0], w)
		case score == best:
			top = append(top, w)
		}
	}
	return pick(s.rng, top), true
}

// letterScore sums freq over the distinct letters of w.
func letterScore(w words.Word, freq map[rune]int) int {
	var seen [words.Length]rune
	n, score := 0, 0
	for _, r := range w {
		if slices.Contains(seen[:n], r) {
			continue
		}
		seen[n] = r
		n++
		score += freq[r]
	}
	return score
}

func (s *Frequency) Observe(guess words.Word, fb game.Feedback) {
	if !s.legacy {
		filter(s.pool, guess, fb)
		return
	}
	s.pool.Drop(guess)
	s.pool.Retain(func(_ int, w words.Word) bool { return legacyMatch(w, guess, fb) })
}

// legacyMatch is the simplified matcher: Correct pins the letter, Present
// requires the letter elsewhere, Absent forbids the letter anywhere. It
// ignores claimed duplicates, so a guess with a repeated letter marked both
// Present and Absent eliminates every candidate containing that letter,
// the secret included.
func legacyMatch(w, guess words.Word, fb game.Feedback) bool {
	for i, t := range fb {
		letter := guess[i]
		switch t {
		case game.Correct:
			if w[i] != letter {
				return false
			}
		case game.Present:
			if w[i] == letter || !slices.Contains(w[:], letter) {
				return false
			}
		case game.Absent:
			if slices.Contains(w[:], letter) {
				return false
			}
		}
	}
	return true
}

func (s *Frequency) Candidates() []words.Word { return s.pool.Words() }
