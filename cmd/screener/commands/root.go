package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	universeFile string
	tickerColumn string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Quantitative value screener",
	Long: `Value investing screener.

Loads a ticker universe from CSV, fetches quotes and fundamentals in
batches, ranks the universe by a composite of five valuation percentiles,
and computes equal-weight share allocations for a portfolio budget.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener screen --universe sp500.csv --budget 100000
  go run ./cmd/screener single --universe sp500.csv --top 50
  go run ./cmd/screener serve --port 8087`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&universeFile, "universe", "universe.csv", "ticker universe CSV file")
	rootCmd.PersistentFlags().StringVar(&tickerColumn, "column", "Ticker", "header name of the ticker column")
}
