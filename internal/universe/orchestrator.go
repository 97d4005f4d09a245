package universe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/etfpulse/internal/domain/models"
	"github.com/guttosm/etfpulse/internal/logger"
)

var (
	// ErrRunInFlight rejects a refresh while another is still running.
	ErrRunInFlight = errors.New("refresh already in progress")
	// ErrNoPriceSource means neither the exchange nor the last snapshot could
	// supply a current price table.
	ErrNoPriceSource = errors.New("no price source available")
)

// BulkPriceSource supplies the exchange's full closing-price table for a day.
type BulkPriceSource interface {
	ClosingPrices(ctx context.Context, target time.Time) map[string]int64
}

// Store is the persistence surface the orchestrator needs: manual history
// overrides in, reconciled records out, plus snapshot reconstruction when the
// exchange is unreachable.
type Store interface {
	Merge(updates map[string]models.TickerRecord) error
	ManualHistory() map[string][]models.DistributionRow
	FallbackTable() (models.PriceTable, error)
}

// recordBuilder is what the Reconciler provides; an interface so runs can be
// exercised without live adapters.
type recordBuilder interface {
	BuildRecord(ctx context.Context, ticker string, table models.PriceTable, manual map[string][]models.DistributionRow) (*models.TickerRecord, error)
}

// ProgressFunc receives human-readable stage updates with a 0-100 percentage.
// It is always invoked from the goroutine driving the run, one call at a
// time, so implementations need no locking.
type ProgressFunc func(message string, percent int)

// horizonOffsets maps each lookback horizon to its calendar-day offset.
var horizonOffsets = map[string]int{
	"now": 0, "1m": 30, "3m": 90, "6m": 180, "1y": 365, "3y": 1095, "5y": 1825,
}

// Refresher drives one universe refresh end to end: bulk price table, target
// discovery, bounded per-ticker reconciliation fan-out, snapshot merge. One
// run at a time; Cancel stops the in-flight run cooperatively.
type Refresher struct {
	bulk    BulkPriceSource
	quotes  QuoteSource
	builder recordBuilder
	store   Store

	maxConcurrency int
	state          *models.RunState
	now            func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewRefresher wires the orchestrator.
func NewRefresher(bulk BulkPriceSource, quotes QuoteSource, builder recordBuilder, store Store, maxConcurrency int) *Refresher {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Refresher{
		bulk:           bulk,
		quotes:         quotes,
		builder:        builder,
		store:          store,
		maxConcurrency: maxConcurrency,
		state:          models.NewRunState(),
		now:            time.Now,
	}
}

// State returns a copy of the current run state.
func (r *Refresher) State() models.RunView { return r.state.View() }

// Cancel requests cooperative cancellation of the in-flight run. A no-op when
// nothing is running.
func (r *Refresher) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// begin atomically claims the single run slot and transitions to running.
func (r *Refresher) begin(parent context.Context, requested []string) (context.Context, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Running() {
		return nil, "", ErrRunInFlight
	}
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	runID := uuid.NewString()
	r.state.Begin(runID, requested)
	return ctx, runID, nil
}

// Run executes one refresh synchronously. requested narrows the run to
// specific tickers; empty means the full discovered universe. progress may
// be nil.
//
// Per-ticker failures degrade that ticker only and never abort the run. A
// cancelled run keeps the previous snapshot untouched.
func (r *Refresher) Run(ctx context.Context, requested []string, progress ProgressFunc) error {
	runCtx, runID, err := r.begin(ctx, requested)
	if err != nil {
		return err
	}
	return r.run(runCtx, runID, requested, progress)
}

// Start launches a refresh in the background and returns its run ID
// immediately. Progress is observable through State.
func (r *Refresher) Start(requested []string, progress ProgressFunc) (string, error) {
	runCtx, runID, err := r.begin(context.Background(), requested)
	if err != nil {
		return "", err
	}
	go func() { _ = r.run(runCtx, runID, requested, progress) }()
	return runID, nil
}

func (r *Refresher) run(ctx context.Context, runID string, requested []string, progress ProgressFunc) error {
	if progress == nil {
		progress = func(string, int) {}
	}
	defer func() {
		r.mu.Lock()
		if r.cancel != nil {
			r.cancel()
			r.cancel = nil
		}
		r.mu.Unlock()
	}()

	log := logger.L().With().Str("run_id", runID).Logger()
	log.Info().Int("requested", len(requested)).Msg("refresh run started")

	r.state.SetMessage("Fetching exchange prices...")
	progress("Fetching exchange prices...", 0)

	table, err := r.fetchPriceTable(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			r.state.Finish(models.RunCancelled, "cancelled during price fetch")
			return err
		}
		r.state.Finish(models.RunFailed, err.Error())
		log.Error().Err(err).Msg("refresh run failed")
		return err
	}

	r.state.SetMessage("Discovering listed ETFs...")
	progress("Discovering listed ETFs...", 5)
	directory := r.quotes.Directory(ctx)

	targets := ResolveTargets(requested, table, directory)
	if len(targets) == 0 {
		r.state.Finish(models.RunCompleted, "no valid targets")
		log.Warn().Msg("refresh run had no valid targets")
		return nil
	}
	r.state.SetTotal(len(targets))
	log.Info().Int("targets", len(targets)).Msg("targets resolved")

	manual := r.store.ManualHistory()

	// Workers only build; completions funnel through this goroutine so the
	// progress observer is never invoked concurrently and results need no
	// locking.
	type buildResult struct {
		ticker string
		rec    *models.TickerRecord
	}
	completions := make(chan buildResult)

	go func() {
		var wg sync.WaitGroup
		sem := make(chan struct{}, r.maxConcurrency)
		for _, ticker := range targets {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(ticker string) {
				defer wg.Done()
				defer func() { <-sem }()
				completions <- buildResult{ticker: ticker, rec: r.safeBuild(ctx, ticker, table, manual)}
			}(ticker)
		}
		wg.Wait()
		close(completions)
	}()

	results := make(map[string]models.TickerRecord, len(targets))
	for res := range completions {
		if res.rec != nil {
			results[res.ticker] = *res.rec
		}
		done, total := r.state.Step()
		msg := fmt.Sprintf("Collecting dividends (%d/%d)", done, total)
		r.state.SetMessage(msg)
		progress(msg, percentOf(done, total))
	}

	if ctx.Err() != nil {
		r.state.Finish(models.RunCancelled, "cancelled")
		log.Info().Int("partial", len(results)).Msg("refresh run cancelled")
		return ctx.Err()
	}

	if err := r.store.Merge(results); err != nil {
		r.state.Finish(models.RunFailed, err.Error())
		log.Error().Err(err).Msg("snapshot merge failed")
		return err
	}

	r.state.Finish(models.RunCompleted, fmt.Sprintf("updated %d tickers", len(results)))
	progress("Done", 100)
	log.Info().Int("updated", len(results)).Msg("refresh run completed")
	return nil
}

// fetchPriceTable pulls all horizons concurrently. An empty current-day table
// falls back to a reconstruction from the last good snapshot; failing that the
// run cannot proceed.
func (r *Refresher) fetchPriceTable(ctx context.Context) (models.PriceTable, error) {
	table := make(models.PriceTable, len(horizonOffsets))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, horizon := range models.Horizons {
		horizon := horizon
		g.Go(func() error {
			closes := r.bulk.ClosingPrices(gctx, r.now().AddDate(0, 0, -horizonOffsets[horizon]))
			mu.Lock()
			table[horizon] = closes
			mu.Unlock()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(table["now"]) > 0 {
		return table, nil
	}

	logger.L().Warn().Msg("exchange unreachable, reconstructing prices from last snapshot")
	fallback, err := r.store.FallbackTable()
	if err != nil || len(fallback["now"]) == 0 {
		return nil, ErrNoPriceSource
	}
	return fallback, nil
}

// safeBuild isolates one ticker's reconciliation: an error or panic degrades
// that ticker only.
func (r *Refresher) safeBuild(ctx context.Context, ticker string, table models.PriceTable, manual map[string][]models.DistributionRow) (rec *models.TickerRecord) {
	defer func() {
		if p := recover(); p != nil {
			logger.L().Error().Str("ticker", ticker).Interface("panic", p).Msg("reconcile panicked")
			rec = nil
		}
	}()

	rec, err := r.builder.BuildRecord(ctx, ticker, table, manual)
	if err != nil {
		logger.L().Warn().Str("ticker", ticker).Err(err).Msg("reconcile failed")
		return nil
	}
	return rec
}

// percentOf scales progress into the 10-100 band; the first ten percent
// belongs to the bulk fetch and discovery stages.
func percentOf(done, total int) int {
	if total <= 0 {
		return 100
	}
	return 10 + done*90/total
}
