// Package solver drives a strategy against a game environment on a
// background goroutine and streams the board to a consumer.
package solver

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/solver/internal/game"
	"github.com/robalobadob/wordle/apps/solver/internal/strategy"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// ReasonInvalidGuess means the environment refused a strategy's guess.
const ReasonInvalidGuess Reason = "invalid_guess"

// Runner plays one strategy against one environment. The runner owns both
// for the duration of Run; callers must not touch them until the event
// channel is closed.
type Runner struct {
	strategy strategy.Strategy
	env      *game.Environment
	log      zerolog.Logger
	buffer   int

	stop atomic.Bool

	abandon   chan struct{}
	closeOnce sync.Once
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l zerolog.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithBuffer sets the event channel capacity (default one board row).
func WithBuffer(n int) RunnerOption {
	return func(r *Runner) {
		if n >= 0 {
			r.buffer = n
		}
	}
}

// NewRunner pairs s with env. env must already be Reset.
func NewRunner(s strategy.Strategy, env *game.Environment, opts ...RunnerOption) *Runner {
	r := &Runner{
		strategy: s,
		env:      env,
		log:      log.Logger,
		buffer:   words.Length,
		abandon:  make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.With().Str("strategy", s.Name()).Str("game", env.ID).Logger()
	return r
}

// Stop asks the worker to finish before its next guess. A guess already
// being played is completed first.
func (r *Runner) Stop() { r.stop.Store(true) }

// Close tells the worker its consumer has stopped reading. Pending events
// are dropped, the worker stops before its next guess and the stream is
// closed. A consumer that does not drain the stream must call Close.
func (r *Runner) Close() {
	r.closeOnce.Do(func() { close(r.abandon) })
}

// Run starts the worker and returns its event stream. Every submitted guess
// is delivered as a whole row and the stream ends with one Finished event,
// then closes. Cancelling ctx behaves like Stop: it is only looked at
// between guesses.
func (r *Runner) Run(ctx context.Context) <-chan Event {
	out := make(chan Event, r.buffer)
	go r.loop(ctx, out)
	return out
}

func (r *Runner) loop(ctx context.Context, out chan<- Event) {
	defer close(out)

	row := 0
	var last words.Word
	finish := func(won bool, reason Reason) {
		r.log.Debug().Bool("won", won).Str("reason", string(reason)).Int("guesses", row).Msg("solver finished")
		r.emit(out, Event{Kind: Finished, FinalGuess: last, Won: won, Reason: reason, Guesses: row})
	}

	for {
		if r.stop.Load() || ctx.Err() != nil || r.closed() {
			finish(false, ReasonCancelled)
			return
		}

		guess, ok := r.strategy.NextGuess()
		if !ok {
			r.log.Warn().Int("row", row).Msg("candidates exhausted")
			finish(false, ReasonExhausted)
			return
		}

		fb, err := r.env.SubmitWord(ctx, guess)
		if err != nil {
			r.log.Error().Err(err).Str("guess", guess.String()).Msg("guess rejected")
			finish(false, ReasonInvalidGuess)
			return
		}

		// The guess is part of the game now: observe it even if the
		// consumer was closed mid-row, so the pool matches the history.
		delivered := true
		for col, letter := range guess {
			if !r.emit(out, cellEvent(row, col, letter, fb[col])) {
				delivered = false
				break
			}
		}
		r.strategy.Observe(guess, fb)
		row++
		last = guess
		if e := r.log.Debug(); e.Enabled() {
			e.Str("guess", guess.String()).Str("feedback", fb.String()).
				Int("candidates", len(r.strategy.Candidates())).Msg("guess played")
		}

		if !delivered {
			finish(false, ReasonCancelled)
			return
		}
		switch r.env.Status() {
		case game.Won:
			finish(true, ReasonSolved)
			return
		case game.Lost:
			finish(false, ReasonOutOfGuesses)
			return
		}
	}
}

// emit delivers ev unless the consumer has been closed.
func (r *Runner) emit(out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-r.abandon:
		return false
	}
}

func (r *Runner) closed() bool {
	select {
	case <-r.abandon:
		return true
	default:
		return false
	}
}
