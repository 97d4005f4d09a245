package models

// DistributionRow is one cash payout event for a fund: the ex-distribution
// date ("YYYY-MM-DD") and the per-share amount in whole KRW.
type DistributionRow struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}

// TickerRecord is the unit of the universe: everything known about one ETF
// after reconciling the exchange table, the Naver endpoints, and FnGuide.
//
// The JSON field names are the durable on-disk contract; readers of the
// snapshot file depend on them, so fields may be added but never renamed.
// Price and return fields default to zero meaning "unknown", never absent.
type TickerRecord struct {
	Name             string  `json:"name"`
	Price            int64   `json:"price"`
	DailyChangeRate  float64 `json:"daily_change_rate"`
	DailyChangeValue int64   `json:"daily_change_value"`

	// FnGuide label extraction
	Yield            float64 `json:"yield"`
	DistAmountRecent int64   `json:"dist_amount_recent"`
	DistBaseDate     string  `json:"dist_base_date"`
	DistFreq1Y       int     `json:"dist_freq_1y"`

	// Trailing-twelve-month aggregation over the distribution history
	DistTTMAmount   int64   `json:"dist_ttm_amount"`
	DistTTMCount    int     `json:"dist_ttm_count"`
	DistTTMLastDate string  `json:"dist_ttm_last_date"`
	DistTTMYield    float64 `json:"dist_ttm_yield"`

	// Estimated annual distribution when TTM history is insufficient
	EstAnnualAmount int64   `json:"est_annual_amount"`
	EstAnnualYield  float64 `json:"est_annual_yield"`
	EstMethod       string  `json:"est_method"`

	Sector      string            `json:"sector"`
	DistHistory []DistributionRow `json:"dist_history"`

	IncomeYieldAnnualUsed  float64 `json:"income_yield_annual_used"`
	IncomeAmountAnnualUsed int64   `json:"income_amount_annual_used"`
	MonthlyIncomeEst       float64 `json:"monthly_income_est"`

	// DistWarning is set when no distribution yield could be established
	// from any source.
	DistWarning      bool   `json:"dist_warning"`
	AnnualYieldLabel string `json:"annual_yield_label"`

	Price1M int64 `json:"price_1m"`
	Price3M int64 `json:"price_3m"`
	Price6M int64 `json:"price_6m"`
	Price1Y int64 `json:"price_1y"`
	Price3Y int64 `json:"price_3y"`
	Price5Y int64 `json:"price_5y"`

	Return1M float64 `json:"return_1m"`
	Return3M float64 `json:"return_3m"`
	Return6M float64 `json:"return_6m"`
	Return1Y float64 `json:"return_1y"`
	Return3Y float64 `json:"return_3y"`
	Return5Y float64 `json:"return_5y"`

	PriceCAGR1Y float64 `json:"price_cagr_1y"`
	PriceCAGR3Y float64 `json:"price_cagr_3y"`
	PriceCAGR5Y float64 `json:"price_cagr_5y"`

	TotalReturn1Y float64 `json:"total_return_1y"`
	TotalReturn3Y float64 `json:"total_return_3y"`
	TotalReturn5Y float64 `json:"total_return_5y"`

	TotalCAGR1Y float64 `json:"total_cagr_1y"`
	TotalCAGR3Y float64 `json:"total_cagr_3y"`
	TotalCAGR5Y float64 `json:"total_cagr_5y"`

	Trend1D []float64 `json:"trend_1d"`

	LastUpdated string `json:"last_updated"`
}

// IncomeYieldAnnual returns the annual distribution yield actually usable for
// compounding: TTM when available, the estimate otherwise, zero when neither.
func (r *TickerRecord) IncomeYieldAnnual() float64 {
	if r.DistTTMYield > 0 {
		return r.DistTTMYield
	}
	if r.EstAnnualYield > 0 {
		return r.EstAnnualYield
	}
	return 0
}

// IncomeAmountAnnual mirrors IncomeYieldAnnual for the KRW amount.
func (r *TickerRecord) IncomeAmountAnnual() int64 {
	if r.DistTTMAmount > 0 {
		return r.DistTTMAmount
	}
	if r.EstAnnualAmount > 0 {
		return r.EstAnnualAmount
	}
	return 0
}

// Snapshot maps ticker symbol to its reconciled record. It is the durable
// state of the system; the storage layer is its sole writer.
type Snapshot map[string]TickerRecord

// Horizons are the fixed lookback keys of the bulk price table, in order.
var Horizons = []string{"now", "1m", "3m", "6m", "1y", "3y", "5y"}

// PriceTable holds same-day official closing prices per lookback horizon:
// horizon key -> ticker -> close. A missing entry means "no history", not a
// zero price.
type PriceTable map[string]map[string]int64

// At returns the closing price for a ticker at a horizon, zero when unknown.
func (t PriceTable) At(horizon, ticker string) int64 {
	if t == nil {
		return 0
	}
	return t[horizon][ticker]
}

// Tickers lists the tickers present at the "now" horizon.
func (t PriceTable) Tickers() []string {
	out := make([]string, 0, len(t["now"]))
	for k := range t["now"] {
		out = append(out, k)
	}
	return out
}

// Has reports whether the ticker has a current price in the table.
func (t PriceTable) Has(ticker string) bool {
	_, ok := t["now"][ticker]
	return ok
}
