package universe

import (
	"context"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/etfpulse/internal/domain/models"
	"github.com/guttosm/etfpulse/internal/source"
)

// QuoteSource is the retail-site adapter surface the engine consumes.
type QuoteSource interface {
	ETFBasic(ctx context.Context, ticker string) (source.Quote, bool)
	StockBasic(ctx context.Context, ticker string) (source.Quote, bool)
	DividendHistory(ctx context.Context, ticker string) []source.DividendEvent
	PriceHistory(ctx context.Context, ticker string, pages int) []source.PricePoint
	Intraday(ctx context.Context, ticker string) []float64
	Directory(ctx context.Context) map[string]string
}

// DetailSource fetches the secondary provider's detail page.
type DetailSource interface {
	Fetch(ctx context.Context, ticker string) source.Page
}

// historyPages is how deep the daily price history goes when period returns
// must be derived locally (roughly one year of trading days); a single page
// is enough when only the sparkline needs backing data.
const (
	historyPagesFull   = 15
	historyPagesSingle = 1
)

var detailNamePattern = regexp.MustCompile(`<h1[^>]*id="giName"[^>]*>(.*?)</h1>`)

// Reconciler produces exactly one TickerRecord per ticker by merging the
// bulk exchange table, the retail-site endpoints, the secondary detail page,
// and the manual override table, under the fixed fallback precedence.
type Reconciler struct {
	quotes  QuoteSource
	details DetailSource
	now     func() time.Time
}

// NewReconciler wires the engine to its adapters.
func NewReconciler(quotes QuoteSource, details DetailSource) *Reconciler {
	return &Reconciler{quotes: quotes, details: details, now: time.Now}
}

// BuildRecord reconciles one ticker. The bulk table may or may not contain
// the ticker; absent horizons stay zero and read as "no history" downstream.
// The record is built wholesale: no field is mutated outside this pass.
func (r *Reconciler) BuildRecord(ctx context.Context, ticker string, table models.PriceTable, manual map[string][]models.DistributionRow) (*models.TickerRecord, error) {
	priceNow := table.At("now", ticker)
	price1M := table.At("1m", ticker)
	price3M := table.At("3m", ticker)
	price6M := table.At("6m", ticker)
	price1Y := table.At("1y", ticker)
	price3Y := table.At("3y", ticker)
	price5Y := table.At("5y", ticker)

	// Fan out the independent per-ticker fetches.
	var (
		page     source.Page
		quote    source.Quote
		quoteOK  bool
		feed     []source.DividendEvent
		intraday []float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { page = r.details.Fetch(gctx, ticker); return nil })
	g.Go(func() error { quote, quoteOK = r.quotes.ETFBasic(gctx, ticker); return nil })
	g.Go(func() error { feed = r.quotes.DividendHistory(gctx, ticker); return nil })
	g.Go(func() error { intraday = r.quotes.Intraday(gctx, ticker); return nil })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// The ETF endpoint yields nothing for new listings and misfiled
	// instruments; backfill from the generic equity variant.
	var equityName string
	if !quoteOK || quote.ClosePrice <= 0 || quote.Name == "" {
		if eq, ok := r.quotes.StockBasic(ctx, ticker); ok {
			equityName = eq.Name
			if quote.ClosePrice <= 0 {
				quote.ClosePrice = eq.ClosePrice
			}
			if quote.ChangeValue == 0 && quote.ChangeRate == 0 {
				quote.ChangeValue = eq.ChangeValue
				quote.ChangeRate = eq.ChangeRate
			}
			if quote.Sector == "" || quote.Sector == "Etc" {
				quote.Sector = eq.Sector
			}
		}
	}

	// Authoritative current price: the retail quote wins over the exchange
	// close when positive. Deliberate precedence; do not invert it.
	if quote.ClosePrice > 0 {
		priceNow = quote.ClosePrice
	}

	changeRate := quote.ChangeRate
	changeValue := quote.ChangeValue
	if changeRate < 0 && changeValue > 0 {
		changeValue = -changeValue
	}

	// Period returns come precomputed from the quote when present; derive
	// the gaps from the daily history otherwise.
	naverReturns := quote.Returns
	if naverReturns == nil {
		naverReturns = map[string]float64{}
	}
	pages := historyPagesSingle
	if allZero(naverReturns) || naverReturns["6m"] == 0 {
		pages = historyPagesFull
	}
	priceHist := r.quotes.PriceHistory(ctx, ticker, pages)
	for key, days := range map[string]int{"1m": 30, "3m": 90, "6m": 180, "1y": 365} {
		if naverReturns[key] == 0 {
			if v := histReturn(priceHist, r.now().AddDate(0, 0, -days)); v != 0 {
				naverReturns[key] = round2(v)
			}
		}
	}

	// Label extraction from the detail page.
	declaredYield := parseFloat(page.ExtractLabel("배당수익률", "배당수익률(%)"))
	distRecent := parseAmount(page.ExtractLabel("최근 분배금", "최근 분배금(원)"))
	distBaseDate := normalizeLabelDate(page.ExtractLabel("최근 분배금 지급기준일"))
	distFreq := int(parseAmount(page.ExtractLabel("연 분배횟수", "연 분배횟수(회)")))

	name := resolveName(ticker, quote.Name, equityName, page)

	// Distribution history: feed, then manual overrides, then the detail
	// page's tables as a last resort.
	events := feed
	if len(events) == 0 {
		for _, row := range manual[ticker] {
			events = append(events, source.DividendEvent{Date: row.Date, Amount: row.Amount})
		}
	}
	if len(events) == 0 && !page.Empty() {
		events = page.ExtractHistory()
	}
	hist := dedupHistory(events)

	today := r.now()
	ttmAmount, ttmCount, ttmLast := ttmAggregate(hist, today)

	if distFreq == 0 {
		distFreq = inferFrequency(hist)
	}

	var ttmYield float64
	if ttmCount > 0 && priceNow > 0 {
		ttmYield = round4(float64(ttmAmount) / float64(priceNow) * 100)
	}

	var estAmount int64
	var estYield float64
	var estMethod string
	if ttmCount == 0 && distRecent > 0 && distFreq > 0 && priceNow > 0 {
		estAmount = distRecent * int64(distFreq)
		estYield = round4(float64(estAmount) / float64(priceNow) * 100)
		estMethod = "recent_x_freq"
	}

	rec := models.TickerRecord{
		Name:             name,
		Price:            priceNow,
		DailyChangeRate:  round2(changeRate),
		DailyChangeValue: changeValue,

		Yield:            declaredYield,
		DistAmountRecent: distRecent,
		DistBaseDate:     distBaseDate,
		DistFreq1Y:       distFreq,

		DistTTMAmount:   ttmAmount,
		DistTTMCount:    ttmCount,
		DistTTMLastDate: ttmLast,
		DistTTMYield:    ttmYield,

		EstAnnualAmount: estAmount,
		EstAnnualYield:  estYield,
		EstMethod:       estMethod,

		Sector:      Classify(name, quote.Sector),
		DistHistory: hist,

		Price1M: price1M,
		Price3M: price3M,
		Price6M: price6M,
		Price1Y: price1Y,
		Price3Y: price3Y,
		Price5Y: price5Y,

		Trend1D:     intraday,
		LastUpdated: today.Format(dateLayout),
	}

	rec.Return1M = fallbackReturn(priceNow, price1M, naverReturns["1m"])
	rec.Return3M = fallbackReturn(priceNow, price3M, naverReturns["3m"])
	rec.Return6M = fallbackReturn(priceNow, price6M, naverReturns["6m"])
	rec.Return1Y = fallbackReturn(priceNow, price1Y, naverReturns["1y"])
	rec.Return3Y = round2(returnPct(priceNow, price3Y))
	rec.Return5Y = round2(returnPct(priceNow, price5Y))

	rec.PriceCAGR1Y = round2(cagrPct(priceNow, price1Y, 1))
	rec.PriceCAGR3Y = round2(cagrPct(priceNow, price3Y, 3))
	rec.PriceCAGR5Y = round2(cagrPct(priceNow, price5Y, 5))

	incomeYield := rec.IncomeYieldAnnual()
	rec.TotalCAGR1Y = horizonTotalCAGR(rec.PriceCAGR1Y, incomeYield, price1Y)
	rec.TotalCAGR3Y = horizonTotalCAGR(rec.PriceCAGR3Y, incomeYield, price3Y)
	rec.TotalCAGR5Y = horizonTotalCAGR(rec.PriceCAGR5Y, incomeYield, price5Y)
	rec.TotalReturn1Y = horizonTotalReturn(rec.TotalCAGR1Y, 1, price1Y)
	rec.TotalReturn3Y = horizonTotalReturn(rec.TotalCAGR3Y, 3, price3Y)
	rec.TotalReturn5Y = horizonTotalReturn(rec.TotalCAGR5Y, 5, price5Y)

	incomeAmount := rec.IncomeAmountAnnual()
	rec.IncomeYieldAnnualUsed = incomeYield
	rec.IncomeAmountAnnualUsed = incomeAmount
	if incomeAmount > 0 {
		rec.MonthlyIncomeEst = round2(float64(incomeAmount) / 12)
	}

	rec.DistWarning = incomeYield == 0
	switch {
	case rec.DistTTMYield > 0:
		rec.AnnualYieldLabel = "TTM"
	case rec.EstAnnualYield > 0:
		rec.AnnualYieldLabel = "EST"
	default:
		rec.AnnualYieldLabel = "NONE"
	}

	return &rec, nil
}

// resolveName walks the display-name fallback chain: API name, detail-page
// heading, equity-basic name, raw ticker code.
func resolveName(ticker, apiName, equityName string, page source.Page) string {
	if apiName != "" {
		return apiName
	}
	if !page.Empty() {
		if m := detailNamePattern.FindStringSubmatch(page.HTML()); m != nil {
			if n := strings.TrimSpace(m[1]); n != "" {
				return n
			}
		}
	}
	if equityName != "" {
		return equityName
	}
	return ticker
}

// histReturn derives a period return from the paged daily history: current
// close against the first close at or before the cutoff.
func histReturn(hist []source.PricePoint, cutoff time.Time) float64 {
	if len(hist) == 0 {
		return 0
	}
	now := hist[0].Price
	for _, p := range hist {
		if !p.Date.After(cutoff) {
			return returnPct(now, p.Price)
		}
	}
	return 0
}

// fallbackReturn prefers the exchange-derived return, then the quote's
// precomputed one.
func fallbackReturn(now, past int64, naver float64) float64 {
	if v := round2(returnPct(now, past)); v != 0 {
		return v
	}
	return naver
}

func horizonTotalCAGR(priceCAGR, incomeYield float64, past int64) float64 {
	if past <= 0 {
		return 0
	}
	return round2(totalCAGRPct(priceCAGR, incomeYield))
}

func horizonTotalReturn(totalCAGR, years float64, past int64) float64 {
	if past <= 0 {
		return 0
	}
	return round2(totalReturnPct(totalCAGR, years))
}

func allZero(m map[string]float64) bool {
	for _, v := range m {
		if v != 0 {
			return false
		}
	}
	return true
}
