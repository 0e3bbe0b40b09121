package strategy

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/solver/internal/entropy"
	"github.com/robalobadob/wordle/apps/solver/internal/game"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// Entropy guesses the word with the highest expected information gain over
// the remaining candidates. Any corpus word may be guessed, not only
// candidates.
type Entropy struct {
	corpus *words.Corpus
	cache  *entropy.Cache
	pool   *Pool
}

// NewEntropy returns an entropy strategy over corpus. cache is the shared
// full-corpus table; when nil it is built on the first guess.
func NewEntropy(corpus *words.Corpus, cache *entropy.Cache) *Entropy {
	return &Entropy{corpus: corpus, cache: cache, pool: NewPool(corpus)}
}

func (s *Entropy) Name() string { return NameEntropy }

func (s *Entropy) Reset() { s.pool.Reset() }

func (s *Entropy) NextGuess() (words.Word, bool) {
	switch s.pool.Len() {
	case 0:
		return words.Word{}, false
	case 1:
		return s.pool.Words()[0], true
	}

	if s.pool.Full() {
		if s.cache == nil {
			c, err := entropy.Build(context.Background(), s.corpus, nil)
			if err != nil {
				log.Error().Err(err).Msg("entropy: build cache")
				return s.pool.Words()[0], true
			}
			s.cache = c
		}
		w, _ := s.cache.Best(s.corpus.Words())
		return w, true
	}

	// The pool shrank: expected gain depends on what is still possible.
	guesses := s.corpus.Words()
	scores, err := entropy.Scores(context.Background(), guesses, s.pool.Words(), nil)
	if err != nil {
		log.Error().Err(err).Msg("entropy: score candidates")
		return s.pool.Words()[0], true
	}
	// On equal gain prefer a candidate: it might be the answer.
	best := 0
	bestLive := s.pool.Contains(guesses[0])
	for i, v := range scores {
		switch {
		case v > scores[best]:
			best, bestLive = i, s.pool.Contains(guesses[i])
		case v == scores[best] && !bestLive && s.pool.Contains(guesses[i]):
			best, bestLive = i, true
		}
	}
	return guesses[best], true
}

// Observe filters exactly like Constraint.
func (s *Entropy) Observe(guess words.Word, fb game.Feedback) {
	filter(s.pool, guess, fb)
}

func (s *Entropy) Candidates() []words.Word { return s.pool.Words() }
