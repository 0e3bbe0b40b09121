// Package strategy implements the guess-selection strategies.
//
// Every strategy owns its candidate pool; instances never share mutable
// state, so several may race against the same secret in separate
// goroutines. The only shared input is the read-only entropy cache.
package strategy

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/robalobadob/wordle/apps/solver/internal/entropy"
	"github.com/robalobadob/wordle/apps/solver/internal/game"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// Strategy proposes guesses and narrows its candidates from feedback.
type Strategy interface {
	Name() string
	// Reset starts a new game over the full corpus.
	Reset()
	// NextGuess proposes a guess; ok is false once the pool is empty.
	NextGuess() (w words.Word, ok bool)
	// Observe applies the feedback produced for guess. It is called exactly
	// once per submitted guess.
	Observe(guess words.Word, fb game.Feedback)
	// Candidates lists the words still considered possible.
	Candidates() []words.Word
}

const (
	NameFrequency  = "frequency"
	NameConstraint = "constraint"
	NameEntropy    = "entropy"
	NameBayesian   = "bayesian"
)

// Names lists every registered strategy.
var Names = []string{NameFrequency, NameConstraint, NameEntropy, NameBayesian}

var ErrUnknownStrategy = errors.New("strategy: unknown strategy")

// Tuning holds the heuristic constants of the strategies.
type Tuning struct {
	// PruneThreshold drops Bayesian candidates whose weight falls below it.
	PruneThreshold float64 `yaml:"prune_threshold"`
	// Decay scales the Bayesian likelihood exp(-Decay*mismatches).
	Decay float64 `yaml:"decay"`
	// LegacyMatch switches Frequency to the simplified per-tile matcher.
	LegacyMatch bool `yaml:"legacy_match"`
}

// DefaultTuning returns the stock constants.
func DefaultTuning() Tuning {
	return Tuning{PruneThreshold: 1e-8, Decay: 1}
}

// Deps carries what the factory needs to build any strategy.
type Deps struct {
	Corpus *words.Corpus
	// Entropy is the shared full-corpus cache. Entropy strategies built
	// without one compute it on first use.
	Entropy *entropy.Cache
	Rand    *rand.Rand
	Tuning  Tuning
}

// New builds the strategy registered under name.
func New(name string, d Deps) (Strategy, error) {
	if d.Corpus == nil {
		return nil, errors.New("strategy: corpus is required")
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	switch name {
	case NameFrequency:
		return NewFrequency(d.Corpus, d.Rand, d.Tuning.LegacyMatch), nil
	case NameConstraint:
		return NewConstraint(d.Corpus, d.Rand), nil
	case NameEntropy:
		return NewEntropy(d.Corpus, d.Entropy), nil
	case NameBayesian:
		return NewBayesian(d.Corpus, d.Rand, d.Tuning), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// consistent reports whether candidate, as the secret, would have produced
// fb for guess.
func consistent(candidate, guess words.Word, fb game.Feedback) bool {
	return game.Compute(guess, candidate) == fb
}

// filter keeps the consistent members of p and drops guess itself.
func filter(p *Pool, guess words.Word, fb game.Feedback) {
	p.Drop(guess)
	p.Retain(func(_ int, w words.Word) bool { return consistent(w, guess, fb) })
}

// pick returns a uniformly random element of ws.
func pick(r *rand.Rand, ws []words.Word) words.Word {
	return ws[r.IntN(len(ws))]
}
