package allocation

import (
	"fmt"
	"math"

	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/pkg/logger"
)

// Calculator computes equal-weight integer share allocations for the
// selected rows.
type Calculator struct {
	logger *logger.Logger
}

// NewCalculator creates a new allocation calculator
func NewCalculator(log *logger.Logger) *Calculator {
	return &Calculator{logger: log}
}

// Allocate splits the budget evenly across the rows and sets each row's
// share count to floor(positionSize / price). The budget is validated before
// any allocation: non-positive or non-finite budgets fail with
// ErrInvalidBudget, a row priced at or below zero fails with
// *InvalidPriceError. Flooring consistently under-allocates, so the invariant
// sum(shares * price) <= budget always holds.
func (c *Calculator) Allocate(budget float64, rows contracts.Universe) error {
	if math.IsNaN(budget) || math.IsInf(budget, 0) || budget <= 0 {
		return contracts.ErrInvalidBudget
	}

	if len(rows) == 0 {
		return fmt.Errorf("no rows to allocate")
	}

	positionSize := budget / float64(len(rows))

	var allocated float64
	for _, rec := range rows {
		if rec.Price <= 0 {
			return &contracts.InvalidPriceError{Ticker: rec.Ticker, Price: rec.Price}
		}

		rec.SharesToBuy = int64(math.Floor(positionSize / rec.Price))
		allocated += float64(rec.SharesToBuy) * rec.Price
	}

	c.logger.WithFields(map[string]interface{}{
		"budget":        budget,
		"positions":     len(rows),
		"position_size": positionSize,
		"allocated":     allocated,
	}).Info("Allocation completed")

	return nil
}
