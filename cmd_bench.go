package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordle/apps/solver/internal/bench"
	"github.com/robalobadob/wordle/apps/solver/internal/entropy"
	"github.com/robalobadob/wordle/apps/solver/internal/store"
	"github.com/robalobadob/wordle/apps/solver/internal/strategy"
)

var (
	benchNames []string
	benchCfg   bench.Config
	benchSave  bool
)

// benchCmd measures strategies over many random games.
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark strategies over random games",
	Long: `Plays trials x games random games per strategy and reports the average
guesses per win, the win rate and the average time per game. Reports are
stored in the SQLite database unless --save=false.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().StringSliceVarP(&benchNames, "strategies", "s", strategy.Names, "strategies to benchmark")
	benchCmd.Flags().IntVarP(&benchCfg.Games, "games", "n", 100, "games per trial")
	benchCmd.Flags().IntVarP(&benchCfg.Trials, "trials", "t", 1, "trials per strategy")
	benchCmd.Flags().Uint64Var(&benchCfg.Seed, "seed", 0, "random seed (0: random)")
	benchCmd.Flags().BoolVar(&benchSave, "save", true, "store reports in the database")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	persister, db, err := openPersistence()
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	reg := entropy.NewRegistry(persister)
	reg.SetProgress(buildProgress("entropy " + lang()))

	deps, release, err := strategyDeps(ctx, reg, benchNames)
	if err != nil {
		return err
	}
	defer release()

	var sink bench.Sink
	if benchSave {
		if db == nil {
			if db, err = store.OpenSQLite(cfg.DBPath); err != nil {
				return err
			}
			defer db.Close()
		}
		sink = db
	}

	total := benchCfg.Games * benchCfg.Trials * len(benchNames)
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("games"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	var mu sync.Mutex
	cfgRun := benchCfg
	cfgRun.MaxGuesses = cfg.MaxGuesses
	cfgRun.Progress = func(string, int, int) {
		mu.Lock()
		_ = bar.Add(1)
		mu.Unlock()
	}

	stats, err := bench.Run(ctx, deps, benchNames, cfgRun, sink)
	if err != nil {
		return err
	}
	_ = bar.Finish()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-11s %12s %9s %12s\n", "strategy", "avg guesses", "win rate", "avg time")
	for _, st := range stats {
		fmt.Fprintf(out, "%-11s %12.3f %8.1f%% %12v\n", st.Strategy, st.AvgGuesses, st.WinRate, st.AvgTime)
	}
	return nil
}
