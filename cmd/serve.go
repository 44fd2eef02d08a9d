package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/photoform/internal/handlers"
	"github.com/lehigh-university-libraries/photoform/internal/metrics"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the billing form HTTP API",
		Long: `Starts the photoform HTTP API.

Clients create a form session, add labeled entries, attach camera or uploaded
photos and download the finished form as PDF or XLSX. Prometheus metrics are
served on /metrics.`,
		Example: `  # Start server on the configured port (8888 by default)
  photoform serve

  # Start server on custom port
  photoform serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			composer, err := newComposer(cfg)
			if err != nil {
				return err
			}

			m := metrics.New(prometheus.DefaultRegisterer)
			handler := handlers.New(handlers.Config{
				Composer:       composer,
				Metrics:        m,
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
			})

			// Set up routes
			mux := http.NewServeMux()
			handler.Routes(mux)
			mux.Handle("GET /metrics", promhttp.Handler())

			addr := ":" + strconv.Itoa(cfg.Server.Port)
			server := &http.Server{
				Addr:              addr,
				Handler:           m.Middleware(mux),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Photoform API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8888, "Port to listen on, overrides server.port")

	return cmd
}
