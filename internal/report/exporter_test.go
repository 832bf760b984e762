package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/pkg/logger"
)

func sampleRows() contracts.Universe {
	return contracts.Universe{
		{
			Ticker:             "AAPL",
			Price:              187.44,
			SharesToBuy:        2,
			PERatio:            contracts.Defined(29.1),
			PERatioPct:         0.8,
			PriceToBook:        contracts.Defined(44.2),
			PriceToBookPct:     0.95,
			PriceToSales:       contracts.Defined(7.6),
			PriceToSalesPct:    0.9,
			EVToEBITDA:         contracts.Defined(22.3),
			EVToEBITDAPct:      0.85,
			EVToGrossProfit:    contracts.Defined(17.1),
			EVToGrossProfitPct: 0.88,
			CompositeScore:     0.876,
		},
		{
			Ticker:      "F",
			Price:       11.2,
			SharesToBuy: 44,
			PERatio:     contracts.Undefined(),
		},
	}
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.xlsx")

	exporter := NewExporter(logger.NewNop())
	require.NoError(t, exporter.Export(path, sampleRows()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// One sheet with the expected name
	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 data rows

	// 14 columns, labelled
	require.Len(t, rows[0], 14)
	assert.Equal(t, "Ticker", rows[0][0])
	assert.Equal(t, "Price", rows[0][1])
	assert.Equal(t, "Number of Shares to Buy", rows[0][2])
	assert.Equal(t, "RV Score", rows[0][13])

	// Metric titles come from the column labels, percentile next to each
	for i, c := range contracts.Columns() {
		assert.Equal(t, c.Label(), rows[0][3+2*i])
	}
	assert.Equal(t, "PE Percentile", rows[0][4])
	assert.Equal(t, "EV/GP Percentile", rows[0][12])

	assert.Equal(t, "AAPL", rows[1][0])
	assert.Equal(t, "F", rows[2][0])
}

func TestExportUndefinedMetricRendersNA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.xlsx")

	exporter := NewExporter(logger.NewNop())
	require.NoError(t, exporter.Export(path, sampleRows()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// Row for "F" has an undefined P/E
	val, err := f.GetCellValue(sheetName, "D3")
	require.NoError(t, err)
	assert.Equal(t, "N/A", val)
}

func TestExportEmptySelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	exporter := NewExporter(logger.NewNop())
	require.NoError(t, exporter.Export(path, contracts.Universe{}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}
