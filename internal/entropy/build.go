// Package entropy computes and caches the expected information gain of each
// guess over a word corpus.
//
// The full-corpus table costs O(n²) feedback computations and is the most
// expensive thing the solver does, so it is built at most once per
// (language, corpus) and shared read-only afterwards (see Registry).
package entropy

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/wordle/apps/solver/internal/game"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// ProgressFunc is told how many guesses have been scored so far. It may be
// called from several goroutines at once.
type ProgressFunc func(done, total int)

// Score returns the Shannon entropy, in bits, of the feedback outcomes guess
// induces over answers (each answer equally likely).
func Score(guess words.Word, answers []words.Word) float64 {
	if len(answers) == 0 {
		return 0
	}
	var hist [game.NumOutcomes]int
	for _, a := range answers {
		hist[game.Compute(guess, a).Code()]++
	}
	n := float64(len(answers))
	h := 0.0
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}

// Scores computes Score for every guess against the same answers. Work is
// split across GOMAXPROCS goroutines; each value depends only on its guess
// and the answers, so the result is identical to a sequential run.
func Scores(ctx context.Context, guesses, answers []words.Word, progress ProgressFunc) ([]float64, error) {
	out := make([]float64, len(guesses))
	if len(guesses) == 0 {
		return out, nil
	}
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(guesses) + workers*4 - 1) / (workers * 4)
	if chunk < 1 {
		chunk = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	var done atomic.Int64
	for start := 0; start < len(guesses); start += chunk {
		lo, hi := start, min(start+chunk, len(guesses))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				out[i] = Score(guesses[i], answers)
				if progress != nil {
					progress(int(done.Add(1)), len(guesses))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Build computes the full-corpus table: every corpus word scored against
// every corpus word.
func Build(ctx context.Context, corpus *words.Corpus, progress ProgressFunc) (*Cache, error) {
	all := corpus.Words()
	vals, err := Scores(ctx, all, all, progress)
	if err != nil {
		return nil, err
	}
	c := &Cache{
		Language:    corpus.Language(),
		Fingerprint: corpus.Fingerprint(),
		values:      make(map[words.Word]float64, len(all)),
	}
	for i, w := range all {
		c.values[w] = vals[i]
	}
	return c, nil
}
