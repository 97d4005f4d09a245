package universe

import (
	"sort"

	"github.com/guttosm/etfpulse/internal/domain/models"
	"github.com/guttosm/etfpulse/internal/logger"
)

// fullUniverseThreshold is the request size beyond which a run is treated as
// a full update rather than a narrow one.
const fullUniverseThreshold = 50

// ResolveTargets decides which tickers the refresh run covers.
//
// A run widens to the full universe when nothing specific was requested, when
// more than fullUniverseThreshold tickers were, or when any requested ticker
// is absent from the exchange table (a likely new listing). A full-universe
// run unions the request with the discovery directory. Every candidate,
// explicit or discovered, must appear in the directory; anything else is a
// non-ETF instrument and is skipped. An empty result means the run has
// nothing valid to do.
//
// New listings that the directory knows but the exchange table does not are
// kept; their missing prices reconcile to zero and the retail quote fills the
// current price downstream.
func ResolveTargets(requested []string, table models.PriceTable, directory map[string]string) []string {
	seen := make(map[string]struct{}, len(requested))
	input := make([]string, 0, len(requested))
	for _, t := range requested {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		input = append(input, t)
	}

	fullUniverse := len(input) == 0 || len(input) > fullUniverseThreshold
	if !fullUniverse {
		for _, t := range input {
			if !table.Has(t) {
				fullUniverse = true
				break
			}
		}
	}

	candidates := input
	if fullUniverse && len(directory) > 0 {
		extras := make([]string, 0, len(directory))
		for t := range directory {
			if _, ok := seen[t]; !ok {
				extras = append(extras, t)
			}
		}
		sort.Strings(extras)
		candidates = append(candidates, extras...)
	}

	out := make([]string, 0, len(candidates))
	for _, t := range candidates {
		if _, ok := directory[t]; !ok {
			logger.L().Warn().Str("ticker", t).Msg("skipping non-ETF ticker")
			continue
		}
		out = append(out, t)
	}
	return out
}
