package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/internal/external/iex"
	"github.com/petermills/valuescreen/internal/metrics"
	"github.com/petermills/valuescreen/internal/selection"
	"github.com/petermills/valuescreen/internal/universe"
	"github.com/petermills/valuescreen/pkg/config"
	"github.com/petermills/valuescreen/pkg/httputil"
	"github.com/petermills/valuescreen/pkg/logger"
)

// singleCmd represents the single command
var singleCmd = &cobra.Command{
	Use:   "single",
	Short: "Run the single-metric P/E screen",
	Long: `Runs the single-metric variant of the screener.

Unlike the composite screen, this mode drops names with an undefined or
non-positive P/E before ranking, then sorts the survivors ascending by
P/E. The two filtering policies are intentionally different.

Example:
  go run ./cmd/screener single --universe sp500.csv --top 50`,
	RunE: runSingle,
}

var (
	// Single-metric flags
	singleTopN int
)

func init() {
	rootCmd.AddCommand(singleCmd)

	// Flags
	singleCmd.Flags().IntVar(&singleTopN, "top", 0, "selection size (default from SCREEN_TOP_N)")
}

func runSingle(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	topN := singleTopN
	if topN <= 0 {
		topN = cfg.Screen.TopN
	}

	httpClient := httputil.New(cfg, log).WithRateLimit(cfg.Provider.RatePerSecond)
	client, err := iex.NewClient(cfg, httpClient, log)
	if err != nil {
		return err
	}

	tickers, err := universe.NewLoader(tickerColumn, log).Load(universeFile)
	if err != nil {
		return err
	}

	fetched, err := client.FetchBatch(context.Background(), tickers)
	if err != nil {
		return err
	}

	computer := metrics.NewComputer(log)

	rows := make(contracts.Universe, 0, len(tickers))
	for _, ticker := range tickers {
		data, ok := fetched[ticker]
		if !ok || data.Quote == nil {
			continue
		}

		record, err := computer.Compute(ticker, metrics.FieldBag{
			Price:   contracts.FromPtr(data.Quote.LatestPrice),
			PERatio: contracts.FromPtr(data.Quote.PERatio),
		})
		if err != nil {
			continue
		}
		rows = append(rows, record)
	}

	selected, err := selection.SingleMetricScreen(rows, topN, log)
	if err != nil {
		var insufficient *contracts.InsufficientUniverseError
		if !errors.As(err, &insufficient) {
			return err
		}
		fmt.Printf("Warning: only %d names passed the P/E filter\n", len(selected))
	}

	fmt.Printf("\n%-8s %10s %10s\n", "Ticker", "Price", "P/E")
	for _, rec := range selected {
		fmt.Printf("%-8s %10.2f %10.2f\n", rec.Ticker, rec.Price, rec.PERatio.Float64)
	}

	return nil
}
