// apps/solver/main.go
//
// Entry point for the wordle solver.
// Responsibilities:
//   - Root cobra command with the subcommands in cmd_*.go.
//   - Loading configuration (.env, environment, SOLVER_CONFIG overlay).
//   - Setting up zerolog: JSON for `serve`, console output otherwise.
//   - Selecting the entropy cache backend (file directory or SQLite).

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordle/apps/solver/internal/config"
	"github.com/robalobadob/wordle/apps/solver/internal/entropy"
	"github.com/robalobadob/wordle/apps/solver/internal/store"
	"github.com/robalobadob/wordle/apps/solver/internal/strategy"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

var (
	cfg      *config.Config
	language string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "solver",
	Short: "Wordle solving engine",
	Long: `Plays Wordle with four strategies (frequency, constraint, entropy,
bayesian), serves them over HTTP and benchmarks them against each other.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		setupLogging(cmd.Name() == "serve")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&language, "language", "l", "", "corpus language (default: first configured)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setupLogging applies the configured level. Interactive commands log to a
// console writer on stderr; the server keeps JSON lines.
func setupLogging(jsonOut bool) {
	lvl := cfg.LogLevel
	if verbose {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if !jsonOut {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// lang resolves the --language flag.
func lang() string {
	if language != "" {
		return language
	}
	if len(cfg.Languages) > 0 {
		return cfg.Languages[0]
	}
	return "en"
}

// openPersistence returns the entropy persister for the configured backend
// and, when SQLite is in use, the database (callers close it).
func openPersistence() (entropy.Persister, *store.SQLite, error) {
	switch cfg.CacheBackend {
	case config.BackendSQLite:
		db, err := store.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.DBPath, err)
		}
		return db, db, nil
	default:
		return entropy.FileStore{Dir: cfg.DataDir}, nil, nil
	}
}

// buildProgress renders a progress bar on stderr for one cache build.
func buildProgress(description string) entropy.ProgressFunc {
	var once sync.Once
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		once.Do(func() {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription(description),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		})
		_ = bar.Set(done)
	}
}

// strategyDeps loads the corpus and, when needed, the shared entropy cache.
func strategyDeps(ctx context.Context, reg *entropy.Registry, names []string) (strategy.Deps, func(), error) {
	corpus, err := words.Load(lang())
	if err != nil {
		return strategy.Deps{}, nil, err
	}
	d := strategy.Deps{Corpus: corpus, Tuning: cfg.Tuning}
	for _, n := range names {
		if n != strategy.NameEntropy {
			continue
		}
		c, release, err := reg.Acquire(ctx, corpus)
		if err != nil {
			return d, nil, err
		}
		d.Entropy = c
		return d, release, nil
	}
	return d, func() {}, nil
}
