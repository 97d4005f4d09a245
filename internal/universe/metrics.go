package universe

import (
	"math"
	"sort"
	"time"

	"github.com/guttosm/etfpulse/internal/domain/models"
	"github.com/guttosm/etfpulse/internal/source"
)

const dateLayout = "2006-01-02"

// ttmWindowDays is the trailing-twelve-month aggregation window.
const ttmWindowDays = 365

// returnPct is the simple percentage return between two closes. A missing
// (zero) past price means "not computable", never a 100% loss.
func returnPct(now, past int64) float64 {
	if past <= 0 || now <= 0 {
		return 0
	}
	return float64(now-past) / float64(past) * 100
}

// cagrPct is the compound annual growth rate between two closes, in percent.
func cagrPct(now, past int64, years float64) float64 {
	if past <= 0 || now <= 0 || years <= 0 {
		return 0
	}
	return (math.Pow(float64(now)/float64(past), 1/years) - 1) * 100
}

// totalCAGRPct compounds a price CAGR with an annualized distribution yield.
func totalCAGRPct(priceCAGRPct, incomeYieldPct float64) float64 {
	pc := priceCAGRPct / 100
	iy := incomeYieldPct / 100
	return ((1+pc)*(1+iy) - 1) * 100
}

// totalReturnPct expands a total CAGR back into the cumulative return over
// the horizon.
func totalReturnPct(totalCAGRPct, years float64) float64 {
	tc := totalCAGRPct / 100
	return (math.Pow(1+tc, years) - 1) * 100
}

// round2 rounds percentages for return fields; round4 for yield fields.
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

// dedupHistory normalizes a raw distribution feed: unique by (date, amount),
// ordered descending by date so index 0 is the most recent payout.
func dedupHistory(events []source.DividendEvent) []models.DistributionRow {
	seen := make(map[models.DistributionRow]struct{}, len(events))
	rows := make([]models.DistributionRow, 0, len(events))
	for _, e := range events {
		if _, ok := parseDate(e.Date); !ok || e.Amount <= 0 {
			continue
		}
		row := models.DistributionRow{Date: normalizeDate(e.Date), Amount: e.Amount}
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })
	return rows
}

// ttmAggregate sums payouts with an ex-date inside the trailing 365 days.
// It assumes rows are already deduplicated; the result is independent of the
// feed's input order because dedupHistory sorts first.
func ttmAggregate(rows []models.DistributionRow, today time.Time) (amount int64, count int, lastDate string) {
	cutoff := today.AddDate(0, 0, -ttmWindowDays).Format(dateLayout)
	for _, row := range rows {
		if row.Date >= cutoff {
			amount += row.Amount
			count++
			if lastDate == "" || row.Date > lastDate {
				lastDate = row.Date
			}
		}
	}
	return amount, count, lastDate
}

// inferFrequency derives the declared annual payout count from the gap
// between the two most recent distributions, bucketed with tolerance
// windows. Zero when no bucket matches or the history is too short.
func inferFrequency(rows []models.DistributionRow) int {
	if len(rows) < 2 {
		return 0
	}
	d1, ok1 := parseDate(rows[0].Date)
	d2, ok2 := parseDate(rows[1].Date)
	if !ok1 || !ok2 {
		return 0
	}
	gap := int(math.Abs(d1.Sub(d2).Hours() / 24))
	switch {
	case gap >= 20 && gap <= 40:
		return 12
	case gap >= 80 && gap <= 110:
		return 4
	case gap >= 170 && gap <= 200:
		return 2
	case gap >= 340 && gap <= 380:
		return 1
	default:
		return 0
	}
}

func parseDate(s string) (time.Time, bool) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func normalizeDate(s string) string {
	d, _ := parseDate(s)
	return d.Format(dateLayout)
}
