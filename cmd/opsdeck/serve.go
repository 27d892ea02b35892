package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck/internal/logging"
	"github.com/opsdeck/opsdeck/internal/server"
	"github.com/opsdeck/opsdeck/pkg/adapters/memory"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the demo API server",
	Long: `Serves the collaborator REST contract over seeded in-memory stores, plus
/healthz, Prometheus /metrics and an /events stream announcing every mutation.
Point the dashboard at it via backend.url, or skip it entirely with --demo.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("listen") {
			cfg.Server.Listen, _ = cmd.Flags().GetString("listen")
		}
		if cmd.Flags().Changed("webhook-tools") {
			cfg.Webhooks.ToolsDir, _ = cmd.Flags().GetString("webhook-tools")
		}

		logger := logging.NewJSON(cfg.LogLevel())

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		srv := server.New(memory.NewFixtures(),
			server.WithLogger(logger),
			server.WithRegistry(registry),
			server.WithWebhookTools(cfg.Webhooks.ToolsDir),
		)

		httpServer := &http.Server{
			Addr:    cfg.Server.Listen,
			Handler: srv.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("demo server listening", "addr", httpServer.Addr)
			serverErrors <- httpServer.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			logger.Error("server failed", "err", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("shutdown started", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown incomplete", "err", err)
				if err := httpServer.Close(); err != nil {
					logger.Error("server close failed", "err", err)
				}
			}
			logger.Info("demo server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "Listen address, e.g. :8080 (overrides config)")
	serveCmd.Flags().String("webhook-tools", "", "Webhook tool config directory (overrides config)")
}
