package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rushteam/moodkit/logging"
	"github.com/rushteam/moodkit/recommend"
	"github.com/rushteam/moodkit/server"
	"github.com/rushteam/moodkit/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Load the configured mood classifier and serve the recommendation API.

Restaurants are discovered through the Places API (places.api_key) and any
fixture files listed in discovery.fixtures. Without either the server still
answers /score, /moods and /health; /recommend then returns 503.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.Component("cli")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	log.Info().Str("model", eng.ModelName()).Strs("moods", eng.Moods().Strings()).Msg("engine ready")

	cache, err := store.New(cfg.Store)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	var rec server.Recommender
	svc, err := buildDiscovery(cfg)
	if err != nil {
		return err
	}
	if svc != nil {
		rec = recommend.New(svc, eng,
			recommend.WithStore(cache),
			recommend.WithCacheTTL(cfg.Store.TTL),
		)
	} else {
		log.Warn().Msg("no discovery source configured, /recommend disabled")
	}

	return server.New(cfg.Server, eng, rec, server.WithVersion(version)).Run(ctx)
}
