package strategy

import (
	"math"
	"math/rand/v2"

	"github.com/robalobadob/wordle/apps/solver/internal/game"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// Bayesian keeps a probability for every candidate and guesses the most
// probable one. Each observation multiplies a candidate's weight by
// exp(-Decay * mismatches), where mismatches counts the tiles on which the
// candidate's predicted feedback differs from the observed one.
type Bayesian struct {
	corpus *words.Corpus
	pool   *Pool
	rng    *rand.Rand
	prune  float64
	decay  float64
	weight []float64 // by corpus index; meaningful only for pool members
}

func NewBayesian(corpus *words.Corpus, r *rand.Rand, t Tuning) *Bayesian {
	d := DefaultTuning()
	if t.PruneThreshold > 0 {
		d.PruneThreshold = t.PruneThreshold
	}
	if t.Decay > 0 {
		d.Decay = t.Decay
	}
	s := &Bayesian{
		corpus: corpus,
		pool:   NewPool(corpus),
		rng:    r,
		prune:  d.PruneThreshold,
		decay:  d.Decay,
		weight: make([]float64, corpus.Len()),
	}
	s.Reset()
	return s
}

func (s *Bayesian) Name() string { return NameBayesian }

// Reset restores the uniform prior over the corpus.
func (s *Bayesian) Reset() {
	s.pool.Reset()
	u := 1 / float64(s.corpus.Len())
	for i := range s.weight {
		s.weight[i] = u
	}
}

func (s *Bayesian) NextGuess() (words.Word, bool) {
	n := s.pool.Len()
	if n == 0 {
		return words.Word{}, false
	}
	hi := -1.0
	var top []words.Word
	s.pool.Each(func(i int, w words.Word) {
		switch v := s.weight[i]; {
		case v > hi:
			hi = v
			top = append(top[:0], w)
		case v == hi:
			top = append(top, w)
		}
	})
	return pick(s.rng, top), true
}

func (s *Bayesian) Observe(guess words.Word, fb game.Feedback) {
	s.pool.Drop(guess)
	s.pool.Each(func(i int, w words.Word) {
		miss := game.Compute(guess, w).Mismatches(fb)
		s.weight[i] *= math.Exp(-s.decay * float64(miss))
	})
	s.pool.Retain(func(i int, _ words.Word) bool { return s.weight[i] >= s.prune })
	s.normalize()
}

// normalize rescales pool weights to sum to 1.
func (s *Bayesian) normalize() {
	total := 0.0
	s.pool.Each(func(i int, _ words.Word) { total += s.weight[i] })
	if total <= 0 {
		return
	}
	s.pool.Each(func(i int, _ words.Word) { s.weight[i] /= total })
}

// Probability returns the current weight of w (0 when eliminated).
func (s *Bayesian) Probability(w words.Word) float64 {
	i, ok := s.corpus.Index(w)
	if !ok || !s.pool.Contains(w) {
		return 0
	}
	return s.weight[i]
}

// Total returns the sum of all candidate weights.
func (s *Bayesian) Total() float64 {
	total := 0.0
	s.pool.Each(func(i int, _ words.Word) { total += s.weight[i] })
	return total
}

func (s *Bayesian) Candidates() []words.Word { return s.pool.Words() }
