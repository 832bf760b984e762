package ranking

import (
	"fmt"

	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/pkg/logger"
)

// Scorer aggregates per-metric percentile ranks into one composite score
// per row. A lower composite means cheaper across the board.
type Scorer struct {
	logger *logger.Logger
}

// NewScorer creates a new composite scorer
func NewScorer(log *logger.Logger) *Scorer {
	return &Scorer{logger: log}
}

// Score sets each row's composite score to the unweighted mean of its
// percentile ranks over the usable columns. When imputation excluded a
// column, its 1/5 weight is redistributed equally: the divisor is the number
// of usable columns, never the original five.
func (s *Scorer) Score(u contracts.Universe, usable []contracts.Column) error {
	if len(usable) == 0 {
		return fmt.Errorf("no usable metric columns to score")
	}

	for _, rec := range u {
		var sum float64
		for _, col := range usable {
			sum += rec.Percentile(col)
		}
		rec.CompositeScore = sum / float64(len(usable))
	}

	s.logger.WithFields(map[string]interface{}{
		"rows":    len(u),
		"columns": len(usable),
	}).Debug("Composite scores computed")

	return nil
}
