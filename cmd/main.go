package main

//
//  @title           etfpulse API
//  @version         1.0
//  @description     Korean ETF universe refresh & dividend analytics service.
//  @termsOfService  https://github.com/guttosm/etfpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/etfpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        refresh
//  @tag.description Universe refresh runs: start, status, cancel
//
//  @tag.name        universe
//  @tag.description Reconciled ETF snapshot
//
//  @tag.name        quotes
//  @tag.description Live quotes for portfolio views
//
//  @tag.name        portfolio
//  @tag.description Accounts, positions, and saved portfolios
//
//  @tag.name        simulate
//  @tag.description Dividend reinvestment simulation
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/guttosm/etfpulse/config"
	_ "github.com/guttosm/etfpulse/docs" // swagger docs
	"github.com/guttosm/etfpulse/internal/app"
	"github.com/guttosm/etfpulse/internal/logger"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up
// resources when an OS interrupt signal (SIGINT, SIGTERM) is received.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// main is the entry point of the etfpulse application.
//
// Modes (selected via --mode flag):
//   - refresh: Runs one universe refresh to completion and exits.
//   - api:     Starts the REST API serving the snapshot, quotes, portfolio,
//     and simulation endpoints.
//
// Flags:
//   - --mode:    Execution mode ("refresh" or "api"). Default: "refresh".
//   - --tickers: Comma-separated ticker subset for refresh mode (empty = full universe).
//   - --port:    Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	mode := flag.String("mode", "refresh", "Mode: refresh or api")
	tickers := flag.String("tickers", "", "Comma-separated tickers to refresh (empty = full universe)")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "refresh":
		logger.L().Info().Msg("running universe refresh")

		components, err := app.BuildComponents(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		var requested []string
		if *tickers != "" {
			for _, t := range strings.Split(*tickers, ",") {
				if t = strings.TrimSpace(t); t != "" {
					requested = append(requested, t)
				}
			}
		}

		progress := func(message string, percent int) {
			logger.L().Info().Int("percent", percent).Msg(message)
		}
		if err := components.Refresher.Run(ctx, requested, progress); err != nil {
			logger.L().Fatal().Err(err).Msg("refresh failed")
		}
		logger.L().Info().Msg("refresh completed successfully")

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
