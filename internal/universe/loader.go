package universe

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/petermills/valuescreen/pkg/logger"
)

// Loader reads the ticker universe from a delimited file with a header row.
type Loader struct {
	column string
	logger *logger.Logger
}

// NewLoader creates a new universe loader. column is the header name of the
// ticker column, matched case-insensitively; when the header does not contain
// it the first column is used.
func NewLoader(column string, log *logger.Logger) *Loader {
	if column == "" {
		column = "Ticker"
	}
	return &Loader{
		column: column,
		logger: log,
	}
}

// Load reads the universe file and returns the tickers in file order.
// Blank cells are skipped, duplicates are dropped with a warning.
func (l *Loader) Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("universe file %s is empty", path)
	}

	col := l.findColumn(rows[0])

	tickers := make([]string, 0, len(rows)-1)
	seen := make(map[string]bool)

	for i, row := range rows[1:] {
		if col >= len(row) {
			continue
		}

		ticker := strings.ToUpper(strings.TrimSpace(row[col]))
		if ticker == "" {
			continue
		}

		if seen[ticker] {
			l.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"row":    i + 2,
			}).Warn("Duplicate ticker skipped")
			continue
		}

		seen[ticker] = true
		tickers = append(tickers, ticker)
	}

	if len(tickers) == 0 {
		return nil, fmt.Errorf("universe file %s has no data rows", path)
	}

	l.logger.WithFields(map[string]interface{}{
		"path":  path,
		"count": len(tickers),
	}).Info("Universe loaded")

	return tickers, nil
}

// findColumn locates the ticker column in the header row
func (l *Loader) findColumn(header []string) int {
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), l.column) {
			return i
		}
	}
	// Fall back to the first column
	return 0
}
