package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/pkg/logger"
)

// Imputer fills undefined cells in each metric column with the column's
// arithmetic mean over its defined values.
type Imputer struct {
	logger *logger.Logger
}

// NewImputer creates a new missing-value imputer
func NewImputer(log *logger.Logger) *Imputer {
	return &Imputer{logger: log}
}

// Impute processes each of the five metric columns independently: the mean
// of the defined cells is written into every undefined cell. A column with
// zero defined values has no mean; it is reported via *ImputationError and
// excluded from the returned usable set rather than propagating NaN. The
// operation is idempotent: after one pass no undefined cells remain in any
// usable column, so a second pass changes nothing.
func (im *Imputer) Impute(u contracts.Universe) ([]contracts.Column, error) {
	usable := make([]contracts.Column, 0, 5)
	var dropped []contracts.Column

	for _, col := range contracts.Columns() {
		defined := make([]float64, 0, len(u))
		missing := 0

		for _, r := range u {
			if m := r.Metric(col); m.Valid {
				defined = append(defined, m.Float64)
			} else {
				missing++
			}
		}

		if len(defined) == 0 {
			dropped = append(dropped, col)
			im.logger.WithFields(map[string]interface{}{
				"column": col.String(),
				"rows":   len(u),
			}).Warn("Metric column has no defined values, excluding from scoring")
			continue
		}

		mean := stat.Mean(defined, nil)
		for _, r := range u {
			if !r.Metric(col).Valid {
				r.SetMetric(col, contracts.Defined(mean))
			}
		}

		usable = append(usable, col)

		im.logger.WithFields(map[string]interface{}{
			"column":  col.String(),
			"mean":    mean,
			"imputed": missing,
		}).Debug("Imputed metric column")
	}

	if len(dropped) > 0 {
		return usable, &contracts.ImputationError{Columns: dropped}
	}

	return usable, nil
}
