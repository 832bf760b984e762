package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/pkg/logger"
)

const sheetName = "Value Screen"

// Exporter renders the final screening table to a styled spreadsheet:
// one sheet, one header row, 14 columns (ticker, price, shares to buy, five
// metric/percentile pairs, composite score), with distinct cell formats per
// column class.
type Exporter struct {
	logger *logger.Logger
}

// NewExporter creates a new report exporter
func NewExporter(log *logger.Logger) *Exporter {
	return &Exporter{logger: log}
}

// columnClass selects the cell format applied to a column.
type columnClass int

const (
	classText columnClass = iota
	classCurrency
	classInteger
	classDecimal
	classPercent
)

type headerCol struct {
	title string
	class columnClass
}

// pctTitle is the short percentile column title per metric
var pctTitle = map[contracts.Column]string{
	contracts.ColPERatio:         "PE Percentile",
	contracts.ColPriceToBook:     "PB Percentile",
	contracts.ColPriceToSales:    "PS Percentile",
	contracts.ColEVToEBITDA:      "EV/EBITDA Percentile",
	contracts.ColEVToGrossProfit: "EV/GP Percentile",
}

// header is the fixed 14-column layout of the report: three leading
// columns, a metric/percentile pair per valuation column, and the
// composite score.
var header = buildHeader()

func buildHeader() []headerCol {
	cols := []headerCol{
		{"Ticker", classText},
		{"Price", classCurrency},
		{"Number of Shares to Buy", classInteger},
	}
	for _, c := range contracts.Columns() {
		cols = append(cols,
			headerCol{c.Label(), classDecimal},
			headerCol{pctTitle[c], classPercent},
		)
	}
	return append(cols, headerCol{"RV Score", classPercent})
}

// Export writes the selected rows to an xlsx file at path.
func (e *Exporter) Export(path string, rows contracts.Universe) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := e.buildStyles(f)
	if err != nil {
		return fmt.Errorf("build styles: %w", err)
	}

	if err := e.writeHeader(f); err != nil {
		return err
	}

	for i, rec := range rows {
		if err := e.writeRow(f, styles, i+2, rec); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"path": path,
		"rows": len(rows),
	}).Info("Report exported")

	return nil
}

// buildStyles registers one cell style per column class
func (e *Exporter) buildStyles(f *excelize.File) (map[columnClass]int, error) {
	formats := map[columnClass]string{
		classText:     "@",
		classCurrency: "$#,##0.00",
		classInteger:  "#,##0",
		classDecimal:  "0.00",
		classPercent:  "0.0%",
	}

	styles := make(map[columnClass]int, len(formats))
	for class, numFmt := range formats {
		numFmt := numFmt
		id, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			return nil, err
		}
		styles[class] = id
	}

	return styles, nil
}

// writeHeader writes the column titles and sets column widths
func (e *Exporter) writeHeader(f *excelize.File) error {
	for i, col := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, col.title); err != nil {
			return fmt.Errorf("write header %s: %w", col.title, err)
		}

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, 22); err != nil {
			return err
		}
	}
	return nil
}

// writeRow writes one record at the given 1-based sheet row
func (e *Exporter) writeRow(f *excelize.File, styles map[columnClass]int, row int, rec *contracts.SymbolRecord) error {
	values := []interface{}{
		rec.Ticker,
		rec.Price,
		rec.SharesToBuy,
	}
	for _, c := range contracts.Columns() {
		values = append(values, metricCell(rec.Metric(c)), rec.Percentile(c))
	}
	values = append(values, rec.CompositeScore)

	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, styles[header[i].class]); err != nil {
			return err
		}
	}

	return nil
}

// metricCell renders an undefined metric as "N/A" instead of a sentinel number
func metricCell(m contracts.Metric) interface{} {
	if !m.Valid {
		return "N/A"
	}
	return m.Float64
}
