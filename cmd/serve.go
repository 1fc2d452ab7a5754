package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/gridcompose/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for image composition",
	Long: `Start an HTTP server that composes uploaded images into layouts.

Examples:
  # Start server on default port 8080
  gridcompose serve

  # Start server with custom bind address
  gridcompose serve --bind 0.0.0.0 --port 8080

  # Compose through the API
  curl -F layout=2x2 -F image=@a.png -F image=@b.png -F image=@c.png -F image=@d.png \
    http://localhost:8080/api/v1/compose -o grid.png`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")
	serveCmd.Flags().Int64("max-upload", server.DefaultMaxUpload, "maximum compose request size in bytes")
	serveCmd.Flags().Int64("max-pixels", server.DefaultMaxPixels, "maximum pixels per uploaded image and per composed canvas")
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")
	logger := newLogger()

	addr := fmt.Sprintf("%s:%d", bind, port)

	srv := server.NewServer(version, server.Config{
		MaxUpload: viper.GetInt64("server.max-upload"),
		MaxPixels: viper.GetInt64("server.max-pixels"),
		Logger:    logger,
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.NewRouter(srv, timeout),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	logger.Info("starting gridcompose server", "addr", addr,
		"health", fmt.Sprintf("http://%s/api/v1/health", addr),
		"compose", fmt.Sprintf("http://%s/api/v1/compose", addr))

	return serveUntilDone(cmd.Context(), httpServer, httpServer.ListenAndServe, logger)
}

// serveUntilDone runs serve until ctx is done, then shuts httpServer down
// and returns only once in-flight requests have drained.
func serveUntilDone(ctx context.Context, httpServer *http.Server, serve func() error, logger *slog.Logger) error {
	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()

		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		shutdownErr <- httpServer.Shutdown(shutdownCtx)
	}()

	if err := serve(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}

	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
