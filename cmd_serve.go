package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordle/apps/solver/internal/entropy"
	"github.com/robalobadob/wordle/apps/solver/internal/httpserver"
	"github.com/robalobadob/wordle/apps/solver/internal/store"
	"github.com/robalobadob/wordle/apps/solver/internal/words"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the play, solve and compare API",
	Long: `Starts the HTTP server. Entropy caches for every configured language
are loaded (or built) up front and stay pinned for the life of the process.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	persister, db, err := openPersistence()
	if err != nil {
		return err
	}
	deps := httpserver.Deps{Sessions: store.NewMemoryStore()}
	if db != nil {
		defer db.Close()
		deps.Reports = db
	}
	reg := entropy.NewRegistry(persister)
	deps.Registry = reg

	for _, l := range cfg.Languages {
		corpus, err := words.Load(l)
		if err != nil {
			return err
		}
		_, release, err := reg.Acquire(ctx, corpus)
		if err != nil {
			return err
		}
		defer release()
	}

	srv := httpserver.New(cfg, deps)
	log.Info().Str("port", cfg.Port).Strs("languages", cfg.Languages).Msg("starting solver server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
