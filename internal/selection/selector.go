package selection

import (
	"sort"

	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/pkg/logger"
)

// Selector picks the cheapest N names from the scored universe.
type Selector struct {
	topN   int
	logger *logger.Logger
}

// NewSelector creates a new selector keeping the top n rows.
func NewSelector(topN int, log *logger.Logger) *Selector {
	return &Selector{
		topN:   topN,
		logger: log,
	}
}

// TopN sorts a copy of the universe ascending by composite score (lower =
// more undervalued), stable with respect to input order for exact ties, and
// truncates to the first n rows. A universe smaller than n returns every
// available row together with an *InsufficientUniverseError flagging the
// shortfall; the shortfall is never a per-row failure.
func (s *Selector) TopN(u contracts.Universe) (contracts.Universe, error) {
	sorted := make(contracts.Universe, len(u))
	copy(sorted, u)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CompositeScore < sorted[j].CompositeScore
	})

	if len(sorted) < s.topN {
		s.logger.WithFields(map[string]interface{}{
			"requested": s.topN,
			"available": len(sorted),
		}).Warn("Universe smaller than selection size")
		return sorted, &contracts.InsufficientUniverseError{
			Requested: s.topN,
			Available: len(sorted),
		}
	}

	selected := sorted[:s.topN]

	s.logger.WithFields(map[string]interface{}{
		"selected":   len(selected),
		"best_score": selected[0].CompositeScore,
		"best":       selected[0].Ticker,
	}).Info("Selection completed")

	return selected, nil
}

// SingleMetricScreen is the single-metric P/E variant: rows with an
// undefined or non-positive P/E are dropped before ranking, then the
// survivors are sorted ascending by P/E and truncated to n. The sign filter
// is applied here and only here; the composite pipeline deliberately ranks
// negative multiples too, and the two behaviors are kept separate.
func SingleMetricScreen(u contracts.Universe, n int, log *logger.Logger) (contracts.Universe, error) {
	filtered := make(contracts.Universe, 0, len(u))
	dropped := 0

	for _, rec := range u {
		if !rec.PERatio.Valid || rec.PERatio.Float64 <= 0 {
			dropped++
			continue
		}
		filtered = append(filtered, rec)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PERatio.Float64 < filtered[j].PERatio.Float64
	})

	log.WithFields(map[string]interface{}{
		"dropped":   dropped,
		"survivors": len(filtered),
	}).Info("Single-metric screen completed")

	if len(filtered) < n {
		return filtered, &contracts.InsufficientUniverseError{
			Requested: n,
			Available: len(filtered),
		}
	}

	return filtered[:n], nil
}
