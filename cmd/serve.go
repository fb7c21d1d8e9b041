package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/KarthikMasi/dax-local/internal/config"
	"github.com/KarthikMasi/dax-local/internal/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web slice viewer",
		Long: `Starts the slice viewer web interface on the specified port.

The viewer pages through axial, coronal and sagittal slice stacks of the
rendered image types, with per-orientation slice selectors, auto-advance
playback, zoom and delay controls.`,
		Example: `  # Start viewer on default port 8888
  dax-local serve

  # Custom port and slice stack configuration
  dax-local serve --port 3000 --config viewer.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			handler := handlers.New(cfg)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/viewers", handler.HandleViewers)
			mux.HandleFunc("/api/viewers/", handler.HandleViewerDetail)
			mux.HandleFunc("/", handler.HandleStatic)
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Slice viewer available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
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

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to viewer YAML configuration")

	return cmd
}
