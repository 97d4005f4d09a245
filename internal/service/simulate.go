// Package service holds the business logic behind the HTTP surface:
// portfolio statistics and the dividend reinvestment simulator.
package service

import (
	"fmt"
	"math"

	"github.com/guttosm/etfpulse/internal/domain/models"
)

// baseTaxRate is the Korean dividend withholding rate the comparison account
// always pays.
const baseTaxRate = 0.154

// AccountType selects the tax treatment of the simulated account.
type AccountType string

const (
	AccountGeneral AccountType = "general"
	AccountISA     AccountType = "isa"
	AccountPension AccountType = "pension"
)

// SimulationParams drive one reinvestment simulation. Rates are decimals
// (0.1 means 10%), not percentages.
type SimulationParams struct {
	InitialPrincipal float64     `json:"initial_principal"`
	MonthlyInvest    float64     `json:"monthly_invest"`
	AnnualYield      float64     `json:"annual_yield"`
	GrowthRate       float64     `json:"growth_rate"`
	AnnualDivGrowth  float64     `json:"annual_div_growth"`
	TaxRate          *float64    `json:"tax_rate,omitempty"`
	AccountType      AccountType `json:"account_type"`
	ReinvestRatio    *float64    `json:"reinvest_ratio,omitempty"`
	Years            int         `json:"years"`
	InflationRate    float64     `json:"inflation_rate"`
}

// SimulationRow is one month of the simulation, nominal and
// inflation-adjusted, alongside the untaxed-benefit comparison account.
type SimulationRow struct {
	Month  int    `json:"month"`
	Period string `json:"period"`

	AssetPost         int64 `json:"asset_post"`
	MonthlyDivPost    int64 `json:"monthly_div_post"`
	ReinvestPost      int64 `json:"reinvest_post"`
	CashDivPost       int64 `json:"cash_div_post"`
	PrincipalPost     int64 `json:"principal_post"`
	TotalDivPost      int64 `json:"total_div_post"`
	CapitalGrowthPost int64 `json:"capital_growth_post"`

	TaxSavedTotal int64 `json:"tax_saved_total"`

	AssetPostReal      int64 `json:"asset_post_real"`
	MonthlyDivPostReal int64 `json:"monthly_div_post_real"`

	AssetGen  int64 `json:"asset_gen"`
	Advantage int64 `json:"advantage"`
}

// Simulate runs the month-by-month reinvestment model. ISA and pension
// accounts defer dividend tax entirely; the comparison account always pays
// the base rate. The dividend yield compounds annually by the growth input.
func Simulate(p SimulationParams) []SimulationRow {
	taxRate := baseTaxRate
	if p.TaxRate != nil {
		taxRate = *p.TaxRate
	}
	if p.AccountType == AccountISA || p.AccountType == AccountPension {
		taxRate = 0
	}

	reinvestRatio := 1.0
	if p.ReinvestRatio != nil {
		reinvestRatio = *p.ReinvestRatio
	}

	years := p.Years
	if years <= 0 {
		years = 10
	}

	monthlyGrowth := math.Pow(1+p.GrowthRate, 1.0/12) - 1
	monthlyInflation := math.Pow(1+p.InflationRate, 1.0/12) - 1
	deflator := 1.0
	annualYield := p.AnnualYield

	v := p.InitialPrincipal
	vGen := p.InitialPrincipal
	totalPrincipal := p.InitialPrincipal
	totalDividends := 0.0
	totalTaxSaved := 0.0

	months := years * 12
	history := make([]SimulationRow, 0, months)

	for m := 1; m <= months; m++ {
		deflator /= 1 + monthlyInflation

		// The yield steps up at each anniversary, not continuously.
		if m > 1 && (m-1)%12 == 0 {
			annualYield *= 1 + p.AnnualDivGrowth
		}
		monthlyYield := annualYield / 12

		v += v * monthlyGrowth
		vGen += vGen * monthlyGrowth

		dPreTax := v * monthlyYield
		dActual := dPreTax * (1 - taxRate)
		dGenAfter := vGen * monthlyYield * (1 - baseTaxRate)

		totalTaxSaved += dPreTax * (baseTaxRate - taxRate)

		reinvest := dActual * reinvestRatio
		reinvestGen := dGenAfter * reinvestRatio

		v += p.MonthlyInvest + reinvest
		vGen += p.MonthlyInvest + reinvestGen

		totalPrincipal += p.MonthlyInvest
		totalDividends += reinvest
		capitalProfit := v - totalPrincipal - totalDividends

		history = append(history, SimulationRow{
			Month:  m,
			Period: fmt.Sprintf("%d년 %d개월", (m-1)/12, (m-1)%12+1),

			AssetPost:         roundKRW(v),
			MonthlyDivPost:    roundKRW(dActual),
			ReinvestPost:      roundKRW(reinvest),
			CashDivPost:       roundKRW(dActual - reinvest),
			PrincipalPost:     roundKRW(totalPrincipal),
			TotalDivPost:      roundKRW(totalDividends),
			CapitalGrowthPost: roundKRW(capitalProfit),

			TaxSavedTotal: roundKRW(totalTaxSaved),

			AssetPostReal:      roundKRW(v * deflator),
			MonthlyDivPostReal: roundKRW(dActual * deflator),

			AssetGen:  roundKRW(vGen),
			Advantage: roundKRW(v - vGen),
		})
	}
	return history
}

func roundKRW(v float64) int64 { return int64(math.Round(v)) }

// PortfolioStats summarizes a set of holdings against the universe snapshot.
type PortfolioStats struct {
	TotalInvestment   int64   `json:"total_investment"`
	WeightedYield     float64 `json:"weighted_yield"`
	AnnualIncome      int64   `json:"annual_income"`
	MonthlyIncome     int64   `json:"monthly_income"`
	WeightedReturn1Y  float64 `json:"weighted_return_1y"`
	MonthlySimulation []int64 `json:"monthly_simulation"`
}

// ComputeStats weights each holding's yield and one-year total return by its
// share of the invested total. Holdings missing from the snapshot are
// skipped. The monthly simulation is a flat spread of the annual income; the
// snapshot carries no payout calendar to distribute against.
func ComputeStats(holdings []models.Holding, snap models.Snapshot) PortfolioStats {
	var totalInvestment float64
	type valid struct {
		amount float64
		rec    models.TickerRecord
	}
	var kept []valid

	for _, h := range holdings {
		if h.Ticker == "" || h.Amount <= 0 {
			continue
		}
		rec, ok := snap[h.Ticker]
		if !ok {
			continue
		}
		kept = append(kept, valid{amount: h.Amount, rec: rec})
		totalInvestment += h.Amount
	}

	if totalInvestment == 0 {
		return PortfolioStats{MonthlySimulation: make([]int64, 12)}
	}

	var weightedYield, weightedReturn float64
	for _, v := range kept {
		weight := v.amount / totalInvestment
		weightedYield += v.rec.Yield * weight

		r := v.rec.TotalReturn1Y
		if r == 0 {
			r = v.rec.Return1Y
		}
		weightedReturn += r * weight
	}

	annualIncome := totalInvestment * weightedYield / 100
	monthlyIncome := annualIncome / 12

	sim := make([]int64, 12)
	for i := range sim {
		sim[i] = int64(monthlyIncome)
	}

	return PortfolioStats{
		TotalInvestment:   int64(totalInvestment),
		WeightedYield:     math.Round(weightedYield*100) / 100,
		AnnualIncome:      int64(annualIncome),
		MonthlyIncome:     int64(monthlyIncome),
		WeightedReturn1Y:  math.Round(weightedReturn*100) / 100,
		MonthlySimulation: sim,
	}
}
