package universe

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/guttosm/etfpulse/internal/source"
)

type countingQuotes struct {
	mu       sync.Mutex
	etfCalls int
	fakeQuotes
}

func (c *countingQuotes) ETFBasic(ctx context.Context, ticker string) (source.Quote, bool) {
	c.mu.Lock()
	c.etfCalls++
	c.mu.Unlock()
	return c.fakeQuotes.ETFBasic(ctx, ticker)
}

func TestQuoteService_CachesResults(t *testing.T) {
	quotes := &countingQuotes{fakeQuotes: fakeQuotes{
		etf:   source.Quote{Name: "KODEX 200", ClosePrice: 10000, ChangeRate: 0.5},
		etfOK: true,
	}}
	svc := NewQuoteService(quotes, time.Minute, 4)

	first := svc.Quotes(context.Background(), []string{"069500"})
	if len(first) != 1 || first["069500"].Price != 10000 {
		t.Fatalf("first fetch = %+v", first)
	}

	second := svc.Quotes(context.Background(), []string{"069500"})
	if len(second) != 1 {
		t.Fatalf("second fetch = %+v", second)
	}
	quotes.mu.Lock()
	defer quotes.mu.Unlock()
	if quotes.etfCalls != 1 {
		t.Fatalf("upstream calls = %d, want 1 (cached)", quotes.etfCalls)
	}
}

func TestQuoteService_EquityFallback(t *testing.T) {
	quotes := &fakeQuotes{
		etfOK:   false,
		stock:   source.Quote{Name: "종목명", ClosePrice: 5000},
		stockOK: true,
	}
	svc := NewQuoteService(quotes, 0, 2) // TTL 0 disables caching

	got := svc.Quotes(context.Background(), []string{"005930"})
	if q, ok := got["005930"]; !ok || q.Name != "종목명" || q.Price != 5000 {
		t.Fatalf("fallback quote = %+v", got)
	}
}

func TestQuoteService_UnknownTickerOmitted(t *testing.T) {
	svc := NewQuoteService(&fakeQuotes{}, time.Minute, 2)
	got := svc.Quotes(context.Background(), []string{"000000", ""})
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestQuoteService_DeduplicatesRequest(t *testing.T) {
	quotes := &countingQuotes{fakeQuotes: fakeQuotes{
		etf:   source.Quote{Name: "KODEX 200", ClosePrice: 10000},
		etfOK: true,
	}}
	svc := NewQuoteService(quotes, time.Minute, 4)

	got := svc.Quotes(context.Background(), []string{"069500", "069500", "069500"})
	if len(got) != 1 {
		t.Fatalf("result = %+v", got)
	}
	quotes.mu.Lock()
	defer quotes.mu.Unlock()
	if quotes.etfCalls != 1 {
		t.Fatalf("upstream calls = %d, want 1", quotes.etfCalls)
	}
}
