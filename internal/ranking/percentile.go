package ranking

import (
	"fmt"
	"sort"

	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/pkg/logger"
)

// Ranker computes cross-sectional percentile ranks: for each row and metric,
// the fraction of the universe whose value is less than or equal to the
// row's value. Ties share a value and therefore share a percentile; the
// result is monotonic non-decreasing with value and bounded in (0,1].
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a new percentile ranker
func NewRanker(log *logger.Logger) *Ranker {
	return &Ranker{logger: log}
}

// RankAll computes percentile ranks for every usable column over the entire
// universe. Percentiles are inherently cross-sectional: they must be computed
// over the full universe, never a truncated subset. Every cell of a usable
// column must be defined (the imputer guarantees this).
func (r *Ranker) RankAll(u contracts.Universe, usable []contracts.Column) error {
	if len(u) == 0 {
		return fmt.Errorf("cannot rank an empty universe")
	}

	for _, col := range usable {
		if err := r.rankColumn(u, col); err != nil {
			return fmt.Errorf("rank column %s: %w", col, err)
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"rows":    len(u),
		"columns": len(usable),
	}).Debug("Percentile ranks computed")

	return nil
}

// rankColumn ranks one metric column: one O(n log n) sort, then a binary
// search per row for the count of values <= the row's value.
func (r *Ranker) rankColumn(u contracts.Universe, col contracts.Column) error {
	n := len(u)
	sorted := make([]float64, n)

	for i, rec := range u {
		m := rec.Metric(col)
		if !m.Valid {
			return fmt.Errorf("undefined cell for %s at row %d (universe not imputed)", rec.Ticker, i)
		}
		sorted[i] = m.Float64
	}
	sort.Float64s(sorted)

	for _, rec := range u {
		v := rec.Metric(col).Float64
		// Upper bound: number of values <= v
		count := sort.Search(n, func(i int) bool { return sorted[i] > v })
		rec.SetPercentile(col, float64(count)/float64(n))
	}

	return nil
}
