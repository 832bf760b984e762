package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/petermills/valuescreen/internal/api"
	"github.com/petermills/valuescreen/internal/api/handlers"
	"github.com/petermills/valuescreen/internal/external/iex"
	"github.com/petermills/valuescreen/pkg/config"
	"github.com/petermills/valuescreen/pkg/httputil"
	"github.com/petermills/valuescreen/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the screening API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                 - Health check
  POST /api/v1/screen          - Run a screening pipeline
  GET  /api/v1/quote/{symbol}  - Latest quote for one symbol

Example:
  go run ./cmd/screener serve
  go run ./cmd/screener serve --port 8087`,
	RunE: runServe,
}

var (
	servePort string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default from PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}
	log := logger.New(cfg)

	httpClient := httputil.New(cfg, log).WithRateLimit(cfg.Provider.RatePerSecond)
	client, err := iex.NewClient(cfg, httpClient, log)
	if err != nil {
		return err
	}

	screenHandler := handlers.NewScreenHandler(client, cfg, log)
	router := api.NewRouter(screenHandler, log)
	server := api.New(cfg, log, router)

	// Serve until interrupted
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
