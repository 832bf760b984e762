package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petermills/valuescreen/internal/external/iex"
	"github.com/petermills/valuescreen/internal/pipeline"
	"github.com/petermills/valuescreen/internal/report"
	"github.com/petermills/valuescreen/internal/universe"
	"github.com/petermills/valuescreen/pkg/config"
	"github.com/petermills/valuescreen/pkg/httputil"
	"github.com/petermills/valuescreen/pkg/logger"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Run the composite value screen",
	Long: `Runs the full composite screening pipeline.

This command:
- Loads the ticker universe from the CSV file
- Fetches quote and advanced fundamentals in provider-sized batches
- Ranks the universe by a composite of five valuation percentiles
- Selects the cheapest N names and computes equal-weight allocations
- Exports the result table to a styled spreadsheet

When --budget is not given the portfolio size is read interactively.

Example:
  go run ./cmd/screener screen --universe sp500.csv --budget 100000
  go run ./cmd/screener screen --universe sp500.csv --top 25 --output picks.xlsx`,
	RunE: runScreen,
}

var (
	// Screen flags
	screenBudget float64
	screenTopN   int
	screenOutput string
)

func init() {
	rootCmd.AddCommand(screenCmd)

	// Flags
	screenCmd.Flags().Float64Var(&screenBudget, "budget", 0, "portfolio budget (prompted when omitted)")
	screenCmd.Flags().IntVar(&screenTopN, "top", 0, "selection size (default from SCREEN_TOP_N)")
	screenCmd.Flags().StringVar(&screenOutput, "output", "value_screen.xlsx", "spreadsheet output path")
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	topN := screenTopN
	if topN <= 0 {
		topN = cfg.Screen.TopN
	}

	budget := screenBudget
	if !cmd.Flags().Changed("budget") {
		budget, err = promptBudget(os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
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

	runner := pipeline.NewScreenRunner(client, topN, log)

	result, err := runner.Run(context.Background(), tickers, budget)
	if err != nil {
		return err
	}

	if result.Shortfall != nil {
		fmt.Printf("Warning: universe has only %d usable names, fewer than the %d requested\n",
			result.Shortfall.Available, result.Shortfall.Requested)
	}
	for _, col := range result.ExcludedColumns {
		fmt.Printf("Warning: metric %s had no defined values and was excluded from scoring\n", col)
	}

	fmt.Printf("\n%-8s %10s %8s %10s\n", "Ticker", "Price", "Shares", "RV Score")
	for _, rec := range result.Selected {
		fmt.Printf("%-8s %10.2f %8d %9.1f%%\n",
			rec.Ticker, rec.Price, rec.SharesToBuy, rec.CompositeScore*100)
	}

	if err := report.NewExporter(log).Export(screenOutput, result.Selected); err != nil {
		return err
	}

	fmt.Printf("\nReport written to %s\n", screenOutput)
	return nil
}

// promptBudget reads the portfolio budget interactively, re-prompting on
// non-numeric or non-positive input instead of failing.
func promptBudget(in io.Reader, out io.Writer) (float64, error) {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "Enter the value of your portfolio: ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("read portfolio size: %w", err)
			}
			return 0, fmt.Errorf("no portfolio size entered")
		}

		text := strings.TrimSpace(scanner.Text())
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			fmt.Fprintf(out, "That's not a number!\nPlease try again:\n")
			continue
		}
		if value <= 0 {
			fmt.Fprintf(out, "The portfolio size must be positive.\nPlease try again:\n")
			continue
		}

		return value, nil
	}
}
