package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petermills/valuescreen/internal/allocation"
	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/internal/external/iex"
	"github.com/petermills/valuescreen/internal/metrics"
	"github.com/petermills/valuescreen/internal/ranking"
	"github.com/petermills/valuescreen/internal/selection"
	"github.com/petermills/valuescreen/pkg/logger"
)

// fakeFetcher serves canned provider payloads, keyed by uppercase symbol
// like the real client
type fakeFetcher struct {
	data  map[string]iex.SymbolData
	err   error
	calls int
}

func (f *fakeFetcher) FetchBatch(ctx context.Context, symbols []string) (map[string]iex.SymbolData, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]iex.SymbolData)
	for _, s := range symbols {
		if d, ok := f.data[strings.ToUpper(s)]; ok {
			out[strings.ToUpper(s)] = d
		}
	}
	return out, nil
}

func fptr(v float64) *float64 { return &v }

func symbolData(price float64, pe *float64) iex.SymbolData {
	return iex.SymbolData{
		Quote:         &iex.Quote{LatestPrice: fptr(price), PERatio: pe},
		AdvancedStats: &iex.AdvancedStats{},
	}
}

func newRunner(fetcher Fetcher, topN int) *Runner {
	log := logger.NewNop()
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

func TestRunEndToEndSingleMetric(t *testing.T) {
	// Three symbols with P/E [10, 20, undefined]; every other fundamental is
	// absent, so only the P/E column survives imputation.
	fetcher := &fakeFetcher{data: map[string]iex.SymbolData{
		"AAA": symbolData(100, fptr(10)),
		"BBB": symbolData(100, fptr(20)),
		"CCC": symbolData(100, nil),
	}}

	runner := newRunner(fetcher, 3)

	result, err := runner.Run(context.Background(), []string{"AAA", "BBB", "CCC"}, 10000)
	require.NoError(t, err)

	require.Len(t, result.Universe, 3)

	// The undefined P/E was imputed to the column mean
	assert.InDelta(t, 15.0, result.Universe[2].PERatio.Float64, 1e-12)

	// Each value's rank counts itself and all values at or below it
	assert.InDelta(t, 1.0/3, result.Universe[0].PERatioPct, 1e-12) // 10
	assert.InDelta(t, 1.0, result.Universe[1].PERatioPct, 1e-12)   // 20
	assert.InDelta(t, 2.0/3, result.Universe[2].PERatioPct, 1e-12) // 15

	// With one usable metric the composite equals that percentile
	for _, rec := range result.Universe {
		assert.InDelta(t, rec.PERatioPct, rec.CompositeScore, 1e-12)
	}

	// The four empty columns were excluded, not silently zeroed
	assert.Len(t, result.ExcludedColumns, 4)
	assert.NotContains(t, result.ExcludedColumns, contracts.ColPERatio)

	// Selection is sorted ascending by composite
	require.Len(t, result.Selected, 3)
	assert.Equal(t, "AAA", result.Selected[0].Ticker)
	assert.Equal(t, "CCC", result.Selected[1].Ticker)
	assert.Equal(t, "BBB", result.Selected[2].Ticker)

	// Equal-weight allocation: 10000/3 per name at $100
	for _, rec := range result.Selected {
		assert.Equal(t, int64(33), rec.SharesToBuy)
	}
}

func TestRunNormalizesTickerCase(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]iex.SymbolData{
		"AAPL": symbolData(100, fptr(10)),
		"MSFT": symbolData(200, fptr(20)),
	}}

	runner := newRunner(fetcher, 2)

	// Lowercase and padded tickers must still match the provider's
	// uppercase-keyed results instead of being skipped.
	result, err := runner.Run(context.Background(), []string{"aapl", " msft "}, 10000)
	require.NoError(t, err)

	require.Len(t, result.Universe, 2)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, "AAPL", result.Universe[0].Ticker)
	assert.Equal(t, "MSFT", result.Universe[1].Ticker)
}

func TestRunFetchFailureAborts(t *testing.T) {
	fetchErr := &contracts.FetchError{Symbols: []string{"AAA"}, Err: errors.New("boom")}
	runner := newRunner(&fakeFetcher{err: fetchErr}, 3)

	_, err := runner.Run(context.Background(), []string{"AAA"}, 10000)
	require.Error(t, err)

	var fe *contracts.FetchError
	assert.True(t, errors.As(err, &fe))
}

func TestRunSkipsSymbolsWithoutData(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]iex.SymbolData{
		"AAA": symbolData(50, fptr(12)),
		"BBB": symbolData(80, fptr(9)),
		// NOPE missing from provider payload
		// FREE has no usable price
		"FREE": {Quote: &iex.Quote{PERatio: fptr(5)}},
	}}

	runner := newRunner(fetcher, 2)

	result, err := runner.Run(context.Background(), []string{"AAA", "BBB", "NOPE", "FREE"}, 1000)
	require.NoError(t, err)

	assert.Len(t, result.Universe, 2)
	assert.Contains(t, result.Skipped, "NOPE")
	assert.Contains(t, result.Skipped, "FREE")
}

func TestRunShortfallFlagged(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]iex.SymbolData{
		"AAA": symbolData(50, fptr(12)),
	}}

	runner := newRunner(fetcher, 50)

	result, err := runner.Run(context.Background(), []string{"AAA"}, 1000)
	require.NoError(t, err)

	require.NotNil(t, result.Shortfall)
	assert.Equal(t, 50, result.Shortfall.Requested)
	assert.Equal(t, 1, result.Shortfall.Available)

	// The available row is still selected and allocated
	require.Len(t, result.Selected, 1)
	assert.Equal(t, int64(20), result.Selected[0].SharesToBuy)
}

func TestRunInvalidBudget(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string]iex.SymbolData{
		"AAA": symbolData(50, fptr(12)),
	}}

	runner := newRunner(fetcher, 1)

	for _, budget := range []float64{-100, 0} {
		_, err := runner.Run(context.Background(), []string{"AAA"}, budget)
		require.Error(t, err)
		assert.ErrorIs(t, err, contracts.ErrInvalidBudget)
	}

	// The budget is rejected before any provider round-trip
	assert.Zero(t, fetcher.calls)
}

func TestRunEmptyUsableUniverse(t *testing.T) {
	runner := newRunner(&fakeFetcher{data: map[string]iex.SymbolData{}}, 1)

	_, err := runner.Run(context.Background(), []string{"AAA", "BBB"}, 1000)
	assert.Error(t, err)
}
