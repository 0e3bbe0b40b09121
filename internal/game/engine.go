// Game environment for a single Wordle session.
// Responsibilities:
//   - Start games with a given or random secret drawn from the corpus.
//   - Validate guesses (length, alphabet, corpus or validity oracle).
//   - Score guesses with Compute and track playing → won/lost.
//   - Collect rejected submissions for the caller (no global state).
//
// An Environment is owned by one goroutine; it does no locking.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// DefaultMaxGuesses is the board height.
const DefaultMaxGuesses = 6

var (
	ErrInvalidGuess = errors.New("game: invalid guess")
	ErrGameOver     = errors.New("game: game is over")
	ErrNotStarted   = errors.New("game: no game in progress")
)

// Environment holds one game's secret, guess history and status.
type Environment struct {
	ID string

	corpus     *words.Corpus
	validator  words.Validator
	rng        *rand.Rand
	maxGuesses int

	secret   words.Word
	guesses  []words.Word
	status   Status
	rejected []string
}

// Option configures an Environment.
type Option func(*Environment)

// WithValidator sets the oracle consulted for words outside the corpus.
func WithValidator(v words.Validator) Option {
	return func(e *Environment) { e.validator = v }
}

// WithMaxGuesses overrides the number of allowed guesses.
func WithMaxGuesses(n int) Option {
	return func(e *Environment) {
		if n > 0 {
			e.maxGuesses = n
		}
	}
}

// WithRand sets the source used to draw random secrets.
func WithRand(r *rand.Rand) Option {
	return func(e *Environment) { e.rng = r }
}

// NewEnvironment constructs an environment over corpus. Call Reset to start.
func NewEnvironment(corpus *words.Corpus, opts ...Option) *Environment {
	e := &Environment{
		ID:         uuid.NewString(),
		corpus:     corpus,
		validator:  words.RejectAll,
		maxGuesses: DefaultMaxGuesses,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Reset starts a new game. An empty secret draws one uniformly from the
// corpus. A given secret must be a corpus word or pass the validator, in
// which case it is added to this environment's corpus.
func (e *Environment) Reset(ctx context.Context, secret string) (words.Word, error) {
	var w words.Word
	if secret == "" {
		w = e.corpus.Random(e.rng)
	} else {
		var err error
		w, err = e.accept(ctx, secret)
		if err != nil {
			return words.Word{}, err
		}
	}
	e.secret = w
	e.guesses = e.guesses[:0]
	e.status = InProgress
	return w, nil
}

// SubmitGuess validates and scores a guess, appending it to the history.
// Rejected guesses leave the state untouched.
func (e *Environment) SubmitGuess(ctx context.Context, guess string) (Feedback, error) {
	if e.secret.IsZero() {
		return Feedback{}, ErrNotStarted
	}
	if e.status.Terminal() {
		return Feedback{}, ErrGameOver
	}
	w, err := e.accept(ctx, guess)
	if err != nil {
		return Feedback{}, err
	}
	return e.apply(w), nil
}

// SubmitWord is SubmitGuess for an already parsed word. Corpus words skip
// the validator.
func (e *Environment) SubmitWord(ctx context.Context, w words.Word) (Feedback, error) {
	return e.SubmitGuess(ctx, w.String())
}

func (e *Environment) apply(w words.Word) Feedback {
	fb := Compute(w, e.secret)
	e.guesses = append(e.guesses, w)
	switch {
	case w == e.secret:
		e.status = Won
	case len(e.guesses) >= e.maxGuesses:
		e.status = Lost
	}
	return fb
}

// accept parses s and checks it against the corpus, then the validator.
func (e *Environment) accept(ctx context.Context, s string) (words.Word, error) {
	w, err := words.Parse(s)
	if err != nil {
		e.rejected = append(e.rejected, s)
		return words.Word{}, fmt.Errorf("%w: %v", ErrInvalidGuess, err)
	}
	if e.corpus.Contains(w) {
		return w, nil
	}
	if e.validator == nil || !e.validator.Valid(ctx, w.String()) {
		e.rejected = append(e.rejected, w.String())
		return words.Word{}, fmt.Errorf("%w: %q is not in the word list", ErrInvalidGuess, w.String())
	}
	e.corpus = e.corpus.With(w)
	return w, nil
}

// Secret returns the current secret. Presentation code must not reveal it
// before the game ends.
func (e *Environment) Secret() words.Word { return e.secret }

func (e *Environment) Status() Status { return e.status }

func (e *Environment) MaxGuesses() int { return e.maxGuesses }

// Guesses returns a copy of the guess history.
func (e *Environment) Guesses() []words.Word {
	out := make([]words.Word, len(e.guesses))
	copy(out, e.guesses)
	return out
}

// Corpus returns the corpus, including any validator-accepted additions.
func (e *Environment) Corpus() *words.Corpus { return e.corpus }

// Rejected returns the submissions refused so far, oldest first.
func (e *Environment) Rejected() []string {
	out := make([]string, len(e.rejected))
	copy(out, e.rejected)
	return out
}
