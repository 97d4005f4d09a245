package dto

import "github.com/guttosm/etfpulse/internal/domain/models"

// RefreshRequest selects the tickers for a refresh run. An empty list means
// "refresh the whole universe".
type RefreshRequest struct {
	Tickers []string `json:"tickers"`
}

// RefreshAccepted acknowledges a refresh run that was started in the
// background.
type RefreshAccepted struct {
	RunID string `json:"run_id" example:"7f2c2b9e-0b1a-4bb5-9c3e-2f9f1a6d1c00"`
}

// QuoteResponse is the lightweight per-ticker result of the quotes-only
// path: latest price, daily change, display name, and intraday trend.
type QuoteResponse struct {
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	ChangeValue int64     `json:"change_val"`
	ChangeRate  float64   `json:"change_rate"`
	Trend1D     []float64 `json:"trend_1d"`
}

// UpsertPositionRequest adds or updates one position in an account.
// Quantity zero or below removes the position.
type UpsertPositionRequest struct {
	Symbol   string  `json:"symbol" binding:"required"`
	Qty      float64 `json:"qty"`
	Account  string  `json:"account"`
	AvgPrice float64 `json:"avg_price"`
}

// AccountRequest names an account for create/rename/delete operations.
type AccountRequest struct {
	Name    string `json:"name" binding:"required"`
	NewName string `json:"new_name,omitempty"`
}

// SimulateRequest carries the dividend-reinvestment simulator inputs.
// Rates are decimals (0.1 = 10%). TaxRate and ReinvestRatio are pointers so
// an omitted field falls back to the simulator defaults while an explicit
// zero stays zero.
type SimulateRequest struct {
	InitialPrincipal float64  `json:"initial_principal"`
	MonthlyInvest    float64  `json:"monthly_invest"`
	AnnualYield      float64  `json:"annual_yield"`
	GrowthRate       float64  `json:"growth_rate"`
	AnnualDivGrowth  float64  `json:"annual_div_growth"`
	TaxRate          *float64 `json:"tax_rate,omitempty"`
	AccountType      string   `json:"account_type"`
	ReinvestRatio    *float64 `json:"reinvest_ratio,omitempty"`
	Years            int      `json:"years"`
	InflationRate    float64  `json:"inflation_rate"`
}

// RunStatusResponse wraps the orchestrator run view.
type RunStatusResponse struct {
	Run models.RunView `json:"run"`
}
