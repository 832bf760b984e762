package metrics

import (
	"fmt"

	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/pkg/logger"
)

// FieldBag holds the raw per-symbol fields fetched from the provider,
// each an explicit optional so absent fundamentals stay marked as such.
type FieldBag struct {
	Price           contracts.Metric
	PERatio         contracts.Metric
	PriceToBook     contracts.Metric
	PriceToSales    contracts.Metric
	EnterpriseValue contracts.Metric
	EBITDA          contracts.Metric
	GrossProfit     contracts.Metric
}

// Computer derives the five valuation ratios for one symbol.
type Computer struct {
	logger *logger.Logger
}

// NewComputer creates a new metric computer
func NewComputer(log *logger.Logger) *Computer {
	return &Computer{logger: log}
}

// Compute builds a SymbolRecord from the raw field bag. The direct ratios
// (P/E, P/B, P/S) pass through when present; EV/EBITDA and EV/GP are
// quotients that come out undefined when either operand is undefined or the
// denominator is zero. A non-positive ratio is still defined at this stage;
// sign filtering is caller policy. A missing or non-positive price is an
// error: the record cannot be priced or allocated.
func (c *Computer) Compute(ticker string, bag FieldBag) (*contracts.SymbolRecord, error) {
	if !bag.Price.Valid || bag.Price.Float64 <= 0 {
		return nil, fmt.Errorf("symbol %s has no usable price", ticker)
	}

	record := &contracts.SymbolRecord{
		Ticker: ticker,
		Price:  bag.Price.Float64,

		EnterpriseValue: bag.EnterpriseValue,
		EBITDA:          bag.EBITDA,
		GrossProfit:     bag.GrossProfit,

		PERatio:         bag.PERatio,
		PriceToBook:     bag.PriceToBook,
		PriceToSales:    bag.PriceToSales,
		EVToEBITDA:      contracts.Div(bag.EnterpriseValue, bag.EBITDA),
		EVToGrossProfit: contracts.Div(bag.EnterpriseValue, bag.GrossProfit),
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"price":      record.Price,
		"pe_defined": record.PERatio.Valid,
		"ev_ebitda":  record.EVToEBITDA.Valid,
		"ev_gross":   record.EVToGrossProfit.Valid,
	}).Debug("Computed valuation ratios")

	return record, nil
}
