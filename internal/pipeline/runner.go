package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/petermills/valuescreen/internal/allocation"
	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/internal/external/iex"
	"github.com/petermills/valuescreen/internal/metrics"
	"github.com/petermills/valuescreen/internal/ranking"
	"github.com/petermills/valuescreen/internal/selection"
	"github.com/petermills/valuescreen/pkg/logger"
)

// Fetcher is the provider surface the runner needs.
type Fetcher interface {
	FetchBatch(ctx context.Context, symbols []string) (map[string]iex.SymbolData, error)
}

// Runner coordinates the screening pipeline. Stages run strictly left to
// right, each consuming the complete output of the previous one; the
// in-memory universe table is owned here and passed through by reference
// with one writer at a time.
type Runner struct {
	fetcher   Fetcher
	computer  *metrics.Computer
	imputer   *metrics.Imputer
	ranker    *ranking.Ranker
	scorer    *ranking.Scorer
	selector  *selection.Selector
	allocator *allocation.Calculator

	logger *logger.Logger
}

// Result holds the output of one screening run.
type Result struct {
	// Selected is the final top-N table, sorted ascending by composite score
	Selected contracts.Universe

	// Universe is the full scored table in input order
	Universe contracts.Universe

	// Skipped maps tickers excluded before scoring to the reason
	Skipped map[string]string

	// ExcludedColumns lists metric columns dropped by imputation
	ExcludedColumns []contracts.Column

	// Shortfall is set when the universe was smaller than the selection size
	Shortfall *contracts.InsufficientUniverseError

	Duration time.Duration
}

// NewRunner creates a new pipeline runner.
func NewRunner(
	fetcher Fetcher,
	computer *metrics.Computer,
	imputer *metrics.Imputer,
	ranker *ranking.Ranker,
	scorer *ranking.Scorer,
	selector *selection.Selector,
	allocator *allocation.Calculator,
	log *logger.Logger,
) *Runner {
	return &Runner{
		fetcher:   fetcher,
		computer:  computer,
		imputer:   imputer,
		ranker:    ranker,
		scorer:    scorer,
		selector:  selector,
		allocator: allocator,
		logger:    log,
	}
}

// NewScreenRunner wires the standard stage set for a composite screen
// keeping the top n names.
func NewScreenRunner(fetcher Fetcher, topN int, log *logger.Logger) *Runner {
	return NewRunner(
		fetcher,
		metrics.NewComputer(log),
		metrics.NewImputer(log),
		ranking.NewRanker(log),
		ranking.NewScorer(log),
		selection.NewSelector(topN, log),
		allocation.NewCalculator(log),
		log,
	)
}

// Run executes one screening snapshot for the given tickers and budget.
// Tickers are uppercased before fetching so callers may pass any case; a
// non-positive or non-finite budget is rejected before the provider is hit.
func (r *Runner) Run(ctx context.Context, tickers []string, budget float64) (*Result, error) {
	start := time.Now()

	if math.IsNaN(budget) || math.IsInf(budget, 0) || budget <= 0 {
		return nil, contracts.ErrInvalidBudget
	}

	result := &Result{
		Skipped: make(map[string]string),
	}

	// Provider results are keyed by uppercase symbol, so normalize the
	// requested tickers once before fetching.
	symbols := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(ticker)))
	}

	// 1. Fetch quote and fundamentals in provider-sized batches. A failed
	// chunk aborts the run; symbols are never silently dropped.
	fetched, err := r.fetcher.FetchBatch(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", err)
	}

	// 2. Derive the five valuation ratios per symbol, in input order
	universe := make(contracts.Universe, 0, len(symbols))
	for _, ticker := range symbols {
		data, ok := fetched[ticker]
		if !ok {
			result.Skipped[ticker] = "no data returned by provider"
			continue
		}

		record, err := r.computer.Compute(ticker, fieldBag(data))
		if err != nil {
			result.Skipped[ticker] = err.Error()
			continue
		}

		universe = append(universe, record)
	}

	if len(universe) == 0 {
		return nil, fmt.Errorf("no usable symbols in universe of %d tickers", len(tickers))
	}

	for ticker, reason := range result.Skipped {
		r.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"reason": reason,
		}).Warn("Symbol excluded from universe")
	}

	// 3. Impute missing values column by column
	usable, err := r.imputer.Impute(universe)
	if err != nil {
		var impErr *contracts.ImputationError
		if !errors.As(err, &impErr) {
			return nil, fmt.Errorf("impute universe: %w", err)
		}
		// A fully-undefined column is excluded from scoring, not fatal
		result.ExcludedColumns = impErr.Columns
	}

	// 4. Cross-sectional percentile ranks over the full universe
	if err := r.ranker.RankAll(universe, usable); err != nil {
		return nil, fmt.Errorf("rank universe: %w", err)
	}

	// 5. Composite score per row
	if err := r.scorer.Score(universe, usable); err != nil {
		return nil, fmt.Errorf("score universe: %w", err)
	}
	result.Universe = universe

	// 6. Cheapest N names
	selected, err := r.selector.TopN(universe)
	if err != nil {
		var insufficient *contracts.InsufficientUniverseError
		if !errors.As(err, &insufficient) {
			return nil, fmt.Errorf("select top names: %w", err)
		}
		// Shortfall is flagged, the available rows are still used
		result.Shortfall = insufficient
	}
	result.Selected = selected

	// 7. Equal-weight share allocation
	if err := r.allocator.Allocate(budget, selected); err != nil {
		return nil, fmt.Errorf("allocate budget: %w", err)
	}

	result.Duration = time.Since(start)

	r.logger.WithFields(map[string]interface{}{
		"tickers":  len(tickers),
		"universe": len(universe),
		"selected": len(selected),
		"skipped":  len(result.Skipped),
		"duration": result.Duration,
	}).Info("Screening run completed")

	return result, nil
}

// fieldBag converts a provider payload into the raw field bag, keeping
// null fundamentals marked as undefined.
func fieldBag(data iex.SymbolData) metrics.FieldBag {
	var bag metrics.FieldBag

	if q := data.Quote; q != nil {
		bag.Price = contracts.FromPtr(q.LatestPrice)
		bag.PERatio = contracts.FromPtr(q.PERatio)
	}

	if s := data.AdvancedStats; s != nil {
		bag.PriceToBook = contracts.FromPtr(s.PriceToBook)
		bag.PriceToSales = contracts.FromPtr(s.PriceToSales)
		bag.EnterpriseValue = contracts.FromPtr(s.EnterpriseValue)
		bag.EBITDA = contracts.FromPtr(s.EBITDA)
		bag.GrossProfit = contracts.FromPtr(s.GrossProfit)
	}

	return bag
}
