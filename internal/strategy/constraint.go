package strategy

import (
	"math/rand/v2"

	"github.com/robalobadob/wordle/apps/solver/internal/game"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// Constraint guesses uniformly among the words consistent with every
// observation so far.
type Constraint struct {
	pool *Pool
	rng  *rand.Rand
}

func NewConstraint(corpus *words.Corpus, r *rand.Rand) *Constraint {
	return &Constraint{pool: NewPool(corpus), rng: r}
}

func (s *Constraint) Name() string { return NameConstraint }

func (s *Constraint) Reset() { s.pool.Reset() }

func (s *Constraint) NextGuess() (words.Word, bool) {
	if s.pool.Len() == 0 {
		return words.Word{}, false
	}
	return pick(s.rng, s.pool.Words()), true
}

// Observe keeps exactly the candidates c with Compute(guess, c) == fb.
func (s *Constraint) Observe(guess words.Word, fb game.Feedback) {
	filter(s.pool, guess, fb)
}

func (s *Constraint) Candidates() []words.Word { return s.pool.Words() }
