package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordle/apps/solver/internal/entropy"
	"github.com/robalobadob/wordle/apps/solver/internal/game"
	"github.com/robalobadob/wordle/apps/solver/internal/solver"
	"github.com/robalobadob/wordle/apps/solver/internal/strategy"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

var (
	solveStrategy string
	compareNames  []string
	compareSeed   uint64
)

// solveCmd plays one strategy and prints the board as it fills.
var solveCmd = &cobra.Command{
	Use:   "solve [answer]",
	Short: "Solve one game with a strategy",
	Long: `Plays a single game. Without an answer a random corpus word is used;
an answer outside the corpus must pass the dictionary check.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSolve,
}

// compareCmd races several strategies on the same answer.
var compareCmd = &cobra.Command{
	Use:   "compare [answer]",
	Short: "Compare strategies on the same answer",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCompare,
}

func init() {
	solveCmd.Flags().StringVarP(&solveStrategy, "strategy", "s", strategy.NameEntropy,
		"one of "+strings.Join(strategy.Names, ", "))
	compareCmd.Flags().StringSliceVarP(&compareNames, "strategies", "s", strategy.Names, "strategies to compare")
	compareCmd.Flags().Uint64Var(&compareSeed, "seed", 0, "random seed (0: random)")
	rootCmd.AddCommand(solveCmd, compareCmd)
}

// newEnv starts a game on the optional answer argument.
func newEnv(cmd *cobra.Command, corpus *words.Corpus, args []string) (*game.Environment, error) {
	env := game.NewEnvironment(corpus,
		game.WithValidator(words.ForLanguage(corpus.Language(), cfg.ValidatorTimeout)),
		game.WithMaxGuesses(cfg.MaxGuesses),
	)
	answer := ""
	if len(args) == 1 {
		answer = args[0]
	}
	if _, err := env.Reset(cmd.Context(), answer); err != nil {
		return nil, err
	}
	return env, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
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

	deps, release, err := strategyDeps(ctx, reg, []string{solveStrategy})
	if err != nil {
		return err
	}
	defer release()

	env, err := newEnv(cmd, deps.Corpus, args)
	if err != nil {
		return err
	}
	deps.Corpus = env.Corpus()
	s, err := strategy.New(solveStrategy, deps)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var row words.Word
	var fb game.Feedback
	for ev := range solver.NewRunner(s, env).Run(ctx) {
		switch ev.Kind {
		case solver.CellUpdate:
			row[ev.Col] = []rune(ev.Letter)[0]
			fb[ev.Col] = ev.Tile
			if ev.Col == words.Length-1 {
				fmt.Fprintf(out, "%d  %s  %s\n", ev.Row+1, row, fb)
			}
		case solver.Finished:
			fmt.Fprintf(out, "\n%s: %s after %d guesses (answer %s)\n",
				s.Name(), ev.Reason, ev.Guesses, env.Secret())
		}
	}
	if rejected := env.Rejected(); len(rejected) > 0 {
		log.Warn().Strs("rejected", rejected).Msg("environment rejected guesses")
	}
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
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

	deps, release, err := strategyDeps(ctx, reg, compareNames)
	if err != nil {
		return err
	}
	defer release()

	env, err := newEnv(cmd, deps.Corpus, args)
	if err != nil {
		return err
	}
	results, err := solver.Compare(ctx, env.Secret(), compareNames, deps,
		solver.CompareOptions{MaxGuesses: cfg.MaxGuesses, Seed: compareSeed})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "answer: %s\n\n", env.Secret())
	for _, r := range results {
		trail := make([]string, len(r.Guesses))
		for i, g := range r.Guesses {
			trail[i] = g.String()
		}
		fmt.Fprintf(out, "%-11s %-22s %d guesses  %-8v %s\n",
			r.Strategy, r.Reason, len(r.Guesses), r.Elapsed.Round(time.Microsecond), strings.Join(trail, " "))
	}
	return nil
}
