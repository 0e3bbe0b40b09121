package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordle/apps/solver/internal/entropy"
	"github.com/robalobadob/wordle/apps/solver/internal/httpserver"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

var (
	precomputeForce bool
	tokenSubject    string
	tokenTTL        time.Duration
)

// precomputeCmd builds and persists entropy caches ahead of serving.
var precomputeCmd = &cobra.Command{
	Use:   "precompute",
	Short: "Build the entropy cache for every configured language",
	Long: `Loads or builds the full-corpus entropy table of each configured language
(or only --language) and persists it with the configured backend. --force
rebuilds even when a valid cache exists.`,
	Args: cobra.NoArgs,
	RunE: runPrecompute,
}

// tokenCmd prints an admin token for the /admin endpoints.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print an admin bearer token signed with JWT_SECRET",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, exp, err := httpserver.SignAdminToken(cfg.JWTSecret, tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		log.Info().Time("expires", exp).Str("subject", tokenSubject).Msg("token issued")
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	precomputeCmd.Flags().BoolVarP(&precomputeForce, "force", "f", false, "rebuild even if cached")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(precomputeCmd, tokenCmd)
}

func runPrecompute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	persister, db, err := openPersistence()
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	langs := cfg.Languages
	if language != "" {
		langs = []string{language}
	}
	reg := entropy.NewRegistry(persister)
	for _, l := range langs {
		corpus, err := words.Load(l)
		if err != nil {
			return err
		}
		reg.SetProgress(buildProgress("entropy " + l))

		var c *entropy.Cache
		if precomputeForce {
			c, err = reg.Rebuild(ctx, corpus)
		} else {
			var release func()
			c, release, err = reg.Acquire(ctx, corpus)
			if release != nil {
				release()
			}
		}
		if errors.Is(err, entropy.ErrCacheBuildFailure) {
			log.Warn().Err(err).Str("language", l).Msg("cache built but not persisted")
			err = nil
		}
		if err != nil {
			return err
		}
		best, bits := c.Best(corpus.Words())
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d words, best opener %s (%.3f bits)\n", l, c.Len(), best, bits)
	}
	return nil
}
