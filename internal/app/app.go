package app

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/etfpulse/config"
	"github.com/guttosm/etfpulse/internal/api"
	"github.com/guttosm/etfpulse/internal/source"
	"github.com/guttosm/etfpulse/internal/storage"
	"github.com/guttosm/etfpulse/internal/universe"
)

// Components are the wired collaborators shared by the API and the one-shot
// refresh mode.
type Components struct {
	Refresher *universe.Refresher
	Snapshots *storage.SnapshotStore
	Portfolio *storage.PortfolioStore
	Quotes    *universe.QuoteService
}

// BuildComponents wires the upstream clients, the reconciliation engine, the
// orchestrator, and the stores from configuration.
func BuildComponents(cfg config.Config) (*Components, error) {
	snapshots, err := storage.NewSnapshotStore(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}
	portfolio, err := storage.NewPortfolioStore(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize portfolio store: %w", err)
	}

	krx := source.NewKRXClient(cfg.Upstream.KRXBase, cfg.Upstream.Timeout)
	naver := source.NewNaverClient(
		cfg.Upstream.NaverAPIBase,
		cfg.Upstream.NaverChartBase,
		cfg.Upstream.NaverFinanceBase,
		cfg.Upstream.Timeout,
		cfg.Refresh.QuoteConcurrency,
	)
	fnguide := source.NewFnGuideClient(cfg.Upstream.FnGuideBase, cfg.Upstream.Timeout)

	reconciler := universe.NewReconciler(naver, fnguide)
	refresher := universe.NewRefresher(krx, naver, reconciler, snapshots, cfg.Refresh.MaxConcurrency)
	quotes := universe.NewQuoteService(naver, cfg.Refresh.QuoteCacheTTL, cfg.Refresh.QuoteConcurrency)

	return &Components{
		Refresher: refresher,
		Snapshots: snapshots,
		Portfolio: portfolio,
		Quotes:    quotes,
	}, nil
}

// InitializeApp sets up all application dependencies and returns a fully
// configured Gin router, a cleanup function for graceful shutdown, and any
// error encountered during initialization.
//
// Responsibilities:
//   - Wires the upstream clients and stores via BuildComponents.
//   - Creates the HTTP handler layer to handle requests.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes.
//   - Provides a cleanup function that cancels any in-flight refresh.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	components, err := BuildComponents(cfg)
	if err != nil {
		return nil, nil, err
	}

	handler := api.NewHandler(
		components.Refresher,
		components.Snapshots,
		components.Quotes,
		components.Portfolio,
	)

	router := api.NewRouter(handler)

	healthHandler := api.NewHealthHandler(cfg.Data.Dir)
	healthHandler.Register(router)

	cleanup := func() {
		components.Refresher.Cancel()
	}

	return router, cleanup, nil
}
