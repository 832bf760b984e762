package contracts

// Column identifies one of the five valuation metric columns.
type Column int

const (
	ColPERatio Column = iota
	ColPriceToBook
	ColPriceToSales
	ColEVToEBITDA
	ColEVToGrossProfit
)

// Columns returns all metric columns in report order.
func Columns() []Column {
	return []Column{
		ColPERatio,
		ColPriceToBook,
		ColPriceToSales,
		ColEVToEBITDA,
		ColEVToGrossProfit,
	}
}

func (c Column) String() string {
	switch c {
	case ColPERatio:
		return "pe_ratio"
	case ColPriceToBook:
		return "price_to_book"
	case ColPriceToSales:
		return "price_to_sales"
	case ColEVToEBITDA:
		return "ev_to_ebitda"
	case ColEVToGrossProfit:
		return "ev_to_gross_profit"
	default:
		return "unknown"
	}
}

// Label returns the human-readable column title used in reports.
func (c Column) Label() string {
	switch c {
	case ColPERatio:
		return "Price-to-Earnings Ratio"
	case ColPriceToBook:
		return "Price-to-Book Ratio"
	case ColPriceToSales:
		return "Price-to-Sales Ratio"
	case ColEVToEBITDA:
		return "EV/EBITDA"
	case ColEVToGrossProfit:
		return "EV/GP"
	default:
		return "Unknown"
	}
}

// SymbolRecord is one row of the screening table: raw fetched fields, the
// five derived valuation ratios, and the cross-sectional fields filled in by
// the later pipeline stages. Percentiles and the composite score are
// meaningless until the whole universe has been collected and imputed;
// percentile rank is a cross-sectional property, not a per-row one.
type SymbolRecord struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`

	// Raw fundamentals
	EnterpriseValue Metric `json:"enterprise_value"`
	EBITDA          Metric `json:"ebitda"`
	GrossProfit     Metric `json:"gross_profit"`

	// Valuation ratios
	PERatio         Metric `json:"pe_ratio"`
	PriceToBook     Metric `json:"price_to_book"`
	PriceToSales    Metric `json:"price_to_sales"`
	EVToEBITDA      Metric `json:"ev_to_ebitda"`
	EVToGrossProfit Metric `json:"ev_to_gross_profit"`

	// Cross-sectional percentile ranks, each in (0,1]
	PERatioPct         float64 `json:"pe_ratio_pct"`
	PriceToBookPct     float64 `json:"price_to_book_pct"`
	PriceToSalesPct    float64 `json:"price_to_sales_pct"`
	EVToEBITDAPct      float64 `json:"ev_to_ebitda_pct"`
	EVToGrossProfitPct float64 `json:"ev_to_gross_profit_pct"`

	// Mean of the usable percentile columns, in [0,1]
	CompositeScore float64 `json:"composite_score"`

	// Equal-weight allocation result
	SharesToBuy int64 `json:"shares_to_buy"`
}

// Metric returns the ratio stored in the given column.
func (r *SymbolRecord) Metric(c Column) Metric {
	switch c {
	case ColPERatio:
		return r.PERatio
	case ColPriceToBook:
		return r.PriceToBook
	case ColPriceToSales:
		return r.PriceToSales
	case ColEVToEBITDA:
		return r.EVToEBITDA
	case ColEVToGrossProfit:
		return r.EVToGrossProfit
	default:
		return Undefined()
	}
}

// SetMetric stores a ratio into the given column.
func (r *SymbolRecord) SetMetric(c Column, m Metric) {
	switch c {
	case ColPERatio:
		r.PERatio = m
	case ColPriceToBook:
		r.PriceToBook = m
	case ColPriceToSales:
		r.PriceToSales = m
	case ColEVToEBITDA:
		r.EVToEBITDA = m
	case ColEVToGrossProfit:
		r.EVToGrossProfit = m
	}
}

// Percentile returns the percentile rank for the given column.
func (r *SymbolRecord) Percentile(c Column) float64 {
	switch c {
	case ColPERatio:
		return r.PERatioPct
	case ColPriceToBook:
		return r.PriceToBookPct
	case ColPriceToSales:
		return r.PriceToSalesPct
	case ColEVToEBITDA:
		return r.EVToEBITDAPct
	case ColEVToGrossProfit:
		return r.EVToGrossProfitPct
	default:
		return 0
	}
}

// SetPercentile stores a percentile rank for the given column.
func (r *SymbolRecord) SetPercentile(c Column, p float64) {
	switch c {
	case ColPERatio:
		r.PERatioPct = p
	case ColPriceToBook:
		r.PriceToBookPct = p
	case ColPriceToSales:
		r.PriceToSalesPct = p
	case ColEVToEBITDA:
		r.EVToEBITDAPct = p
	case ColEVToGrossProfit:
		r.EVToGrossProfitPct = p
	}
}

// Universe is the ordered screening table, one record per input ticker.
// Order is CSV input order until selection re-sorts a copy of it.
type Universe []*SymbolRecord

// Tickers returns the symbols in universe order.
func (u Universe) Tickers() []string {
	tickers := make([]string, len(u))
	for i, r := range u {
		tickers[i] = r.Ticker
	}
	return tickers
}

// Len returns the number of records.
func (u Universe) Len() int {
	return len(u)
}
