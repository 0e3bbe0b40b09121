package solver

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/wordle/apps/solver/internal/game"
	"github.com/robalobadob/wordle/apps/solver/internal/strategy"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// Result summarises one finished stream.
type Result struct {
	Strategy string          `json:"strategy"`
	Guesses  []words.Word    `json:"guesses"`
	Board    []game.Feedback `json:"-"`
	Won      bool            `json:"won"`
	Reason   Reason          `json:"reason"`
	Elapsed  time.Duration   `json:"elapsedNs"`
}

// Collect drains a stream into a Result, rebuilding guesses and feedback
// rows from the cell updates.
func Collect(ch <-chan Event) Result {
	var res Result
	for ev := range ch {
		switch ev.Kind {
		case CellUpdate:
			for len(res.Guesses) <= ev.Row {
				res.Guesses = append(res.Guesses, words.Word{})
				res.Board = append(res.Board, game.Feedback{})
			}
			r := []rune(ev.Letter)
			if len(r) == 1 {
				res.Guesses[ev.Row][ev.Col] = r[0]
			}
			res.Board[ev.Row][ev.Col] = ev.Tile
		case Finished:
			res.Won = ev.Won
			res.Reason = ev.Reason
		}
	}
	return res
}

// CompareOptions tunes a comparison run.
type CompareOptions struct {
	MaxGuesses int
	Seed       uint64
}

// Compare plays every named strategy against the same secret concurrently.
// Each strategy gets its own environment, pool and random source; only the
// read-only corpus and entropy cache in deps are shared.
func Compare(ctx context.Context, secret words.Word, names []string, deps strategy.Deps, opts CompareOptions) ([]Result, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	corpus := deps.Corpus.With(secret)

	runners := make([]*Runner, len(names))
	for i, name := range names {
		d := deps
		d.Corpus = corpus
		d.Rand = rand.New(rand.NewPCG(seed, uint64(i)+1))
		s, err := strategy.New(name, d)
		if err != nil {
			return nil, err
		}
		env := game.NewEnvironment(corpus, game.WithMaxGuesses(opts.MaxGuesses))
		if _, err := env.Reset(ctx, secret.String()); err != nil {
			return nil, fmt.Errorf("reset %s: %w", name, err)
		}
		runners[i] = NewRunner(s, env)
	}

	results := make([]Result, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range runners {
		g.Go(func() error {
			start := time.Now()
			res := Collect(r.Run(gctx))
			res.Strategy = names[i]
			res.Elapsed = time.Since(start)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, ctx.Err()
}
