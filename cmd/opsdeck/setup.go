package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck"
	"github.com/opsdeck/opsdeck/internal/config"
	"github.com/opsdeck/opsdeck/pkg/adapters/memory"
	"github.com/opsdeck/opsdeck/pkg/adapters/redis"
	"github.com/opsdeck/opsdeck/pkg/adapters/rest"
	"github.com/opsdeck/opsdeck/pkg/ports"
	"github.com/opsdeck/opsdeck/pkg/refresh"
)

// loadConfig reads the configuration file and overlays the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	if cmd.Flags().Changed("demo") {
		cfg.Demo, _ = cmd.Flags().GetBool("demo")
	}
	if cmd.Flags().Changed("backend") {
		cfg.Backend.URL, _ = cmd.Flags().GetString("backend")
	}
	return cfg, nil
}

// buildCollaborators picks the backend: seeded in-memory stores in demo mode,
// the REST clients otherwise.
func buildCollaborators(cfg config.Config, logger *slog.Logger) (ports.Collaborators, error) {
	if cfg.Demo {
		return memory.NewFixtures().Collaborators(), nil
	}
	return rest.NewCollaborators(rest.Config{
		BaseURL: cfg.Backend.URL,
		Logger:  logger,
	})
}

// buildPreferenceStore persists preferences in Redis when configured, or in
// memory for the session otherwise.
func buildPreferenceStore(cfg config.Config) ports.PreferenceStore {
	if cfg.Redis.Addr == "" {
		return memory.NewPreferenceStore()
	}
	return redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		redis.WithPrefix(cfg.Redis.KeyPrefix))
}

// buildDeck assembles the dashboard engine from the configuration.
func buildDeck(cfg config.Config, logger *slog.Logger, user string, extra ...opsdeck.Option) (*opsdeck.Deck, error) {
	collabs, err := buildCollaborators(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts := []opsdeck.Option{
		opsdeck.WithLogger(logger),
		opsdeck.WithRefreshMode(refresh.ParseMode(cfg.Refresh.Mode)),
		opsdeck.WithRefreshInterval(cfg.Refresh.Interval.Std()),
		opsdeck.WithPreferences(buildPreferenceStore(cfg), user),
	}
	return opsdeck.New(collabs, append(opts, extra...)...)
}
