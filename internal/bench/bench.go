// Package bench measures strategies over many random games.
//
// For every strategy, Trials × Games games are played against uniformly
// drawn secrets. Each trial yields the average number of guesses per win
// (MaxGuesses when a trial has no wins), the win rate and the average wall
// time per game; the report averages those per-trial figures.
package bench

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/wordle/apps/solver/internal/game"
	"github.com/robalobadob/wordle/apps/solver/internal/solver"
	"github.com/robalobadob/wordle/apps/solver/internal/strategy"
)

// Config selects the workload.
type Config struct {
	Games      int
	Trials     int
	MaxGuesses int
	Seed       uint64
	// Progress, when set, is called after every game. It may be called
	// from several goroutines.
	Progress func(strategy string, done, total int)
}

// Stats is the averaged outcome for one strategy.
type Stats struct {
	RunID      string        `json:"runId"`
	Language   string        `json:"language"`
	Strategy   string        `json:"strategy"`
	Games      int           `json:"games"`
	Trials     int           `json:"trials"`
	AvgGuesses float64       `json:"avgGuesses"`
	WinRate    float64       `json:"winRate"`
	AvgTime    time.Duration `json:"avgTimeNs"`
}

// Sink receives finished reports, e.g. for persistence.
type Sink interface {
	SaveBench(ctx context.Context, s Stats) error
}

type trial struct {
	avgGuesses float64
	winRate    float64
	avgTime    time.Duration
}

// Run benchmarks each named strategy. Strategies run concurrently; games
// within one strategy run sequentially so timings are comparable.
func Run(ctx context.Context, deps strategy.Deps, names []string, cfg Config, sink Sink) ([]Stats, error) {
	if cfg.Games <= 0 {
		cfg.Games = 100
	}
	if cfg.Trials <= 0 {
		cfg.Trials = 1
	}
	if cfg.MaxGuesses <= 0 {
		cfg.MaxGuesses = game.DefaultMaxGuesses
	}
	if cfg.Seed == 0 {
		cfg.Seed = rand.Uint64()
	}
	runID := uuid.NewString()

	out := make([]Stats, len(names))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)+1))
		g.Go(func() error {
			trials := make([]trial, 0, cfg.Trials)
			done := 0
			for range cfg.Trials {
				t, err := runTrial(ctx, deps, name, rng, cfg, func() {
					done++
					if cfg.Progress != nil {
						cfg.Progress(name, done, cfg.Games*cfg.Trials)
					}
				})
				if err != nil {
					return err
				}
				trials = append(trials, t)
			}
			st := average(trials)
			st.RunID, st.Language, st.Strategy = runID, deps.Corpus.Language(), name
			st.Games, st.Trials = cfg.Games, cfg.Trials
			log.Info().Str("strategy", name).Float64("avg_guesses", st.AvgGuesses).
				Float64("win_rate", st.WinRate).Dur("avg_time", st.AvgTime).Msg("benchmark done")

			mu.Lock()
			out[i] = st
			mu.Unlock()
			if sink != nil {
				if err := sink.SaveBench(ctx, st); err != nil {
					log.Warn().Err(err).Str("strategy", name).Msg("save benchmark")
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

func runTrial(ctx context.Context, deps strategy.Deps, name string, rng *rand.Rand, cfg Config, tick func()) (trial, error) {
	var wins, winGuesses int
	var elapsed time.Duration
	for range cfg.Games {
		if err := ctx.Err(); err != nil {
			return trial{}, err
		}
		d := deps
		d.Rand = rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))
		s, err := strategy.New(name, d)
		if err != nil {
			return trial{}, err
		}
		env := game.NewEnvironment(deps.Corpus, game.WithMaxGuesses(cfg.MaxGuesses), game.WithRand(rng))
		if _, err := env.Reset(ctx, ""); err != nil {
			return trial{}, err
		}

		start := time.Now()
		res := solver.Collect(solver.NewRunner(s, env).Run(ctx))
		elapsed += time.Since(start)
		if res.Won {
			wins++
			winGuesses += len(res.Guesses)
		}
		tick()
	}

	t := trial{
		avgGuesses: float64(cfg.MaxGuesses),
		winRate:    float64(wins) / float64(cfg.Games) * 100,
		avgTime:    elapsed / time.Duration(cfg.Games),
	}
	if wins > 0 {
		t.avgGuesses = float64(winGuesses) / float64(wins)
	}
	return t, nil
}

func average(ts []trial) Stats {
	var st Stats
	var total time.Duration
	for _, t := range ts {
		st.AvgGuesses += t.avgGuesses
		st.WinRate += t.winRate
		total += t.avgTime
	}
	n := float64(len(ts))
	st.AvgGuesses /= n
	st.WinRate /= n
	st.AvgTime = total / time.Duration(len(ts))
	return st
}
