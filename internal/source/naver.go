package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/guttosm/etfpulse/internal/logger"
)

const (
	// maxAttempts bounds retries on throttling statuses and network errors.
	maxAttempts = 3
	// retryPause is the fixed backoff between attempts.
	retryPause = time.Second

	historyPageSize  = 20
	dividendPageSize = 24
)

// Quote is the normalized basic-quote result shared by the ETF and equity
// endpoint variants.
type Quote struct {
	Name        string
	ClosePrice  int64
	ChangeValue int64
	ChangeRate  float64
	Sector      string
	Returns     map[string]float64
}

// DividendEvent is one raw (ex-distribution date, amount) pair.
type DividendEvent struct {
	Date   string // normalized "YYYY-MM-DD"
	Amount int64
}

// PricePoint is one daily close from the paged price-history endpoint.
type PricePoint struct {
	Date  time.Time
	Price int64
}

// NaverClient talks to the Naver mobile/chart/finance APIs. All methods
// degrade to empty results; no error crosses the adapter boundary.
//
// maxConns caps simultaneous connections per host, which is the global
// outbound limit the orchestrator relies on.
type NaverClient struct {
	apiBase     string
	chartBase   string
	financeBase string
	httpc       *http.Client
}

// NewNaverClient builds a client with a bounded connection pool.
func NewNaverClient(apiBase, chartBase, financeBase string, timeout time.Duration, maxConns int) *NaverClient {
	transport := &http.Transport{
		MaxConnsPerHost:     maxConns,
		MaxIdleConnsPerHost: maxConns,
	}
	return &NaverClient{
		apiBase:     strings.TrimRight(apiBase, "/"),
		chartBase:   strings.TrimRight(chartBase, "/"),
		financeBase: strings.TrimRight(financeBase, "/"),
		httpc:       &http.Client{Timeout: timeout, Transport: transport},
	}
}

func (c *NaverClient) referer(ticker string) string {
	return fmt.Sprintf("%s/domestic/stock/%s/total", c.apiBase, ticker)
}

// doJSON performs a single GET and decodes the body. A throttling status
// (403/429) or a transport error is reported as retryable; any other
// non-success status aborts immediately.
func (c *NaverClient) doJSON(ctx context.Context, url, referer string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", mobileUA)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		return json.Unmarshal(body, dest)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return retry.RetryableError(fmt.Errorf("throttled: status %d", resp.StatusCode))
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

// getJSON is doJSON wrapped in the adapter retry policy.
func (c *NaverClient) getJSON(ctx context.Context, url, referer string, dest any) error {
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewConstant(retryPause))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		return c.doJSON(ctx, url, referer, dest)
	})
}

// basicBody covers both the ETF and equity "basic" payload shapes. The
// endpoints sometimes nest the body under "result" and sometimes return it
// flat; unwrap handles both.
type basicBody struct {
	StockName        string  `json:"stockName"`
	ClosePrice       Number  `json:"closePrice"`
	CompareToPrev    Number  `json:"compareToPreviousClosePrice"`
	FluctuationsRt   Decimal `json:"fluctuationsRatio"`
	FluctuationRt    Decimal `json:"fluctuationRate"`
	ReturnRate1M     Decimal `json:"returnRate1m"`
	ReturnRate3M     Decimal `json:"returnRate3m"`
	ReturnRate6M     Decimal `json:"returnRate6m"`
	ReturnRate1Y     Decimal `json:"returnRate1y"`
	ETFType          string  `json:"etfType"`
	BaseIndexName    string  `json:"baseIndexName"`
	IndustryCodeName string  `json:"industryCodeName"`
	CompareStatus    struct {
		Name string `json:"name"`
	} `json:"compareToPreviousPrice"`
}

func unwrap(raw []byte, dest any) error {
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Result) > 0 {
		return json.Unmarshal(envelope.Result, dest)
	}
	return json.Unmarshal(raw, dest)
}

func (b *basicBody) changeRate() float64 {
	if b.FluctuationsRt != 0 {
		return float64(b.FluctuationsRt)
	}
	return float64(b.FluctuationRt)
}

// ETFBasic fetches the ETF variant of the basic quote. The second return is
// false when the endpoint yielded nothing usable.
func (c *NaverClient) ETFBasic(ctx context.Context, ticker string) (Quote, bool) {
	var raw json.RawMessage
	url := fmt.Sprintf("%s/api/etf/%s/basic", c.apiBase, ticker)
	if err := c.getJSON(ctx, url, c.referer(ticker), &raw); err != nil {
		logger.L().Debug().Str("ticker", ticker).Err(err).Msg("etf basic failed")
		return Quote{}, false
	}

	var body basicBody
	if err := unwrap(raw, &body); err != nil {
		return Quote{}, false
	}

	sector := body.ETFType
	if (sector == "" || sector == "Etc") && body.BaseIndexName != "" {
		sector = body.BaseIndexName
	}
	if sector == "" {
		sector = "Etc"
	}

	return Quote{
		Name:        body.StockName,
		ClosePrice:  int64(body.ClosePrice),
		ChangeValue: int64(body.CompareToPrev),
		ChangeRate:  body.changeRate(),
		Sector:      sector,
		Returns: map[string]float64{
			"1m": float64(body.ReturnRate1M),
			"3m": float64(body.ReturnRate3M),
			"6m": float64(body.ReturnRate6M),
			"1y": float64(body.ReturnRate1Y),
		},
	}, true
}

// StockBasic fetches the generic equity variant, used as a fallback when the
// ETF endpoint has no usable price or name. The change value and rate are
// sign-normalized against the textual rising/falling indicator, since the
// endpoint reports magnitudes.
func (c *NaverClient) StockBasic(ctx context.Context, ticker string) (Quote, bool) {
	var raw json.RawMessage
	url := fmt.Sprintf("%s/api/stock/%s/basic", c.apiBase, ticker)
	if err := c.getJSON(ctx, url, c.referer(ticker), &raw); err != nil {
		logger.L().Debug().Str("ticker", ticker).Err(err).Msg("stock basic failed")
		return Quote{}, false
	}

	var body basicBody
	if err := unwrap(raw, &body); err != nil {
		return Quote{}, false
	}

	value := int64(body.CompareToPrev)
	rate := body.changeRate()
	switch body.CompareStatus.Name {
	case "FALLING", "SHOCK", "LOWER_LIMIT":
		value, rate = -abs64(value), -absf(rate)
	case "RISING", "UPPER_LIMIT":
		value, rate = abs64(value), absf(rate)
	}

	sector := body.IndustryCodeName
	if sector == "" {
		sector = "Etc"
	}

	return Quote{
		Name:        body.StockName,
		ClosePrice:  int64(body.ClosePrice),
		ChangeValue: value,
		ChangeRate:  rate,
		Sector:      sector,
	}, true
}

// DividendHistory fetches the (ex-date, amount) feed for a ticker. Zero
// amounts are dropped; dates are normalized to YYYY-MM-DD.
func (c *NaverClient) DividendHistory(ctx context.Context, ticker string) []DividendEvent {
	var payload struct {
		Result []struct {
			ExDividendAt   string `json:"exDividendAt"`
			DividendAmount Number `json:"dividendAmount"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/api/etf/%s/dividend/history?page=1&pageSize=%d&firstPageSize=%d",
		c.apiBase, ticker, dividendPageSize, dividendPageSize)
	if err := c.getJSON(ctx, url, c.referer(ticker), &payload); err != nil {
		logger.L().Debug().Str("ticker", ticker).Err(err).Msg("dividend history failed")
		return nil
	}

	events := make([]DividendEvent, 0, len(payload.Result))
	for _, item := range payload.Result {
		date := strings.ReplaceAll(item.ExDividendAt, ".", "-")
		if date == "" || item.DividendAmount <= 0 {
			continue
		}
		events = append(events, DividendEvent{Date: date, Amount: int64(item.DividendAmount)})
	}
	return events
}

// PriceHistory fetches daily closes page by page, newest first, up to the
// given page count (enough for roughly a year of trading days at 15 pages).
// It stops early on an exhausted page. A blocked or failed page aborts the
// whole fetch, so a failed run returns nothing rather than a partial history;
// the whole multi-page sequence is retried under the adapter policy.
func (c *NaverClient) PriceHistory(ctx context.Context, ticker string, pages int) []PricePoint {
	var hist []PricePoint
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewConstant(retryPause))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		points, err := c.priceHistoryOnce(ctx, ticker, pages)
		if err != nil {
			return err
		}
		hist = points
		return nil
	})
	if err != nil {
		logger.L().Debug().Str("ticker", ticker).Err(err).Msg("price history failed")
		return nil
	}
	return hist
}

func (c *NaverClient) priceHistoryOnce(ctx context.Context, ticker string, pages int) ([]PricePoint, error) {
	var out []PricePoint
	for page := 1; page <= pages; page++ {
		var rows []struct {
			LocalTradedAt string `json:"localTradedAt"`
			ClosePrice    string `json:"closePrice"`
		}
		url := fmt.Sprintf("%s/api/stock/%s/price?pageSize=%d&page=%d",
			c.apiBase, ticker, historyPageSize, page)
		if err := c.doJSON(ctx, url, c.referer(ticker), &rows); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			d, ok := parseDateAny(row.LocalTradedAt)
			p := parseInt(row.ClosePrice)
			if ok && p > 0 {
				out = append(out, PricePoint{Date: d, Price: p})
			}
		}
	}
	if len(out) == 0 {
		return nil, retry.RetryableError(fmt.Errorf("no history rows for %s", ticker))
	}
	return out, nil
}

// Directory fetches the full ticker -> name map for the ETF instrument
// class. It confirms class membership and surfaces unseen listings.
func (c *NaverClient) Directory(ctx context.Context) map[string]string {
	var payload struct {
		Result struct {
			ETFItemList []struct {
				ItemCode string `json:"itemcode"`
				ItemName string `json:"itemname"`
			} `json:"etfItemList"`
		} `json:"result"`
	}
	url := c.financeBase + "/api/sise/etfItemList.nhn"
	if err := c.doJSON(ctx, url, "", &payload); err != nil {
		logger.L().Warn().Err(err).Msg("etf directory fetch failed")
		return map[string]string{}
	}

	dir := make(map[string]string, len(payload.Result.ETFItemList))
	for _, item := range payload.Result.ETFItemList {
		if item.ItemCode != "" {
			dir[item.ItemCode] = item.ItemName
		}
	}
	return dir
}

// Intraday returns recent intraday price samples for sparkline rendering.
// Best effort: empty on any failure.
func (c *NaverClient) Intraday(ctx context.Context, ticker string) []float64 {
	var payload struct {
		PriceInfos []struct {
			CurrentPrice Decimal `json:"currentPrice"`
			ClosePrice   Decimal `json:"closePrice"`
		} `json:"priceInfos"`
	}
	url := fmt.Sprintf("%s/chart/domestic/item/%s?periodType=day", c.chartBase, ticker)
	if err := c.getJSON(ctx, url, c.referer(ticker), &payload); err != nil {
		return nil
	}

	samples := make([]float64, 0, len(payload.PriceInfos))
	for _, p := range payload.PriceInfos {
		v := float64(p.CurrentPrice)
		if v == 0 {
			v = float64(p.ClosePrice)
		}
		if v > 0 {
			samples = append(samples, v)
		}
	}
	return samples
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
