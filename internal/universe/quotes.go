package universe

import (
	"context"
	"sync"
	"time"

	"github.com/guttosm/etfpulse/internal/cache"
)

// LiveQuote is a lightweight current quote for portfolio views, independent
// of the full refresh pipeline.
type LiveQuote struct {
	Ticker      string    `json:"ticker"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	ChangeValue int64     `json:"change_value"`
	ChangeRate  float64   `json:"change_rate"`
	Trend       []float64 `json:"trend"`
	AsOf        time.Time `json:"as_of"`
}

// QuoteService serves live quotes with a short TTL cache in front of the
// retail-site endpoints, so a page of open portfolio tabs does not hammer the
// upstream.
type QuoteService struct {
	quotes QuoteSource
	cache  *cache.TTL[string, LiveQuote]
	sem    chan struct{}
	now    func() time.Time
}

// NewQuoteService builds the service with the given cache TTL and fan-out cap.
func NewQuoteService(quotes QuoteSource, ttl time.Duration, maxConcurrency int) *QuoteService {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &QuoteService{
		quotes: quotes,
		cache:  cache.New[string, LiveQuote](ttl),
		sem:    make(chan struct{}, maxConcurrency),
		now:    time.Now,
	}
}

// Quotes resolves current quotes for the given tickers, fetching cache misses
// concurrently. Tickers the upstream knows nothing about are omitted from the
// result rather than reported as errors.
func (s *QuoteService) Quotes(ctx context.Context, tickers []string) map[string]LiveQuote {
	out := make(map[string]LiveQuote, len(tickers))
	var outMu sync.Mutex
	var wg sync.WaitGroup

	seen := make(map[string]struct{}, len(tickers))
	for _, ticker := range tickers {
		if ticker == "" {
			continue
		}
		if _, dup := seen[ticker]; dup {
			continue
		}
		seen[ticker] = struct{}{}

		if q, ok := s.cache.Get(ticker); ok {
			out[ticker] = q
			continue
		}

		wg.Add(1)
		s.sem <- struct{}{}
		go func(ticker string) {
			defer wg.Done()
			defer func() { <-s.sem }()

			q, ok := s.fetch(ctx, ticker)
			if !ok {
				return
			}
			s.cache.Set(ticker, q)
			outMu.Lock()
			out[ticker] = q
			outMu.Unlock()
		}(ticker)
	}
	wg.Wait()
	return out
}

func (s *QuoteService) fetch(ctx context.Context, ticker string) (LiveQuote, bool) {
	quote, ok := s.quotes.ETFBasic(ctx, ticker)
	if !ok || quote.ClosePrice <= 0 {
		if eq, eqOK := s.quotes.StockBasic(ctx, ticker); eqOK && eq.ClosePrice > 0 {
			quote, ok = eq, true
		}
	}
	if !ok || quote.ClosePrice <= 0 {
		return LiveQuote{}, false
	}

	return LiveQuote{
		Ticker:      ticker,
		Name:        quote.Name,
		Price:       quote.ClosePrice,
		ChangeValue: quote.ChangeValue,
		ChangeRate:  round2(quote.ChangeRate),
		Trend:       s.quotes.Intraday(ctx, ticker),
		AsOf:        s.now(),
	}, true
}
