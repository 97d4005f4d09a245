package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guttosm/etfpulse/internal/logger"
)

// krxBld identifies the "ETF daily trading" statement of the KRX data API.
const krxBld = "dbms/MDC/STAT/standard/MDCSTAT04301"

// krxBackstepDays bounds the walk backwards over non-trading days.
const krxBackstepDays = 7

// KRXClient fetches the bulk closing-price table from the exchange. One call
// returns same-day closes for every listed ETF; there is no per-ticker
// filtering upstream.
type KRXClient struct {
	base  string
	httpc *http.Client
}

// NewKRXClient builds a client against the given base URL.
func NewKRXClient(base string, timeout time.Duration) *KRXClient {
	return &KRXClient{
		base:  strings.TrimRight(base, "/"),
		httpc: &http.Client{Timeout: timeout},
	}
}

// ClosingPrices returns ticker -> closing price for the latest trading day at
// or before target, stepping backward one calendar day at a time for up to
// seven days. It fails closed: an empty map when no day in the window has
// data. Errors never escape this boundary.
func (c *KRXClient) ClosingPrices(ctx context.Context, target time.Time) map[string]int64 {
	for i := 0; i < krxBackstepDays; i++ {
		d := target.AddDate(0, 0, -i)
		table, err := c.fetchDay(ctx, d)
		if err != nil {
			logger.L().Debug().Str("date", d.Format("20060102")).Err(err).Msg("krx fetch failed")
			continue
		}
		if len(table) > 0 {
			return table
		}
	}
	return map[string]int64{}
}

func (c *KRXClient) fetchDay(ctx context.Context, day time.Time) (map[string]int64, error) {
	form := url.Values{}
	form.Set("bld", krxBld)
	form.Set("trdDd", day.Format("20060102"))
	form.Set("locale", "ko_KR")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/comm/bldAttendant/getJsonData.cmd", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", desktopUA)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.base+"/contents/MDC/MDI/mdiLoader")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	var payload struct {
		Output []struct {
			Ticker string `json:"ISU_SRT_CD"`
			Close  Number `json:"TDD_CLSPRC"`
		} `json:"output"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	table := make(map[string]int64, len(payload.Output))
	for _, row := range payload.Output {
		if row.Ticker == "" || row.Close <= 0 {
			continue
		}
		table[row.Ticker] = int64(row.Close)
	}
	return table, nil
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.code) }
