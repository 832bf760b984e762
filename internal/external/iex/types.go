package iex

// Quote is the subset of the provider's quote object the screener consumes.
// Numerics are pointers: the provider reports null for fundamentals it does
// not have, and null must stay distinguishable from zero.
type Quote struct {
	Symbol      string   `json:"symbol"`
	CompanyName string   `json:"companyName"`
	LatestPrice *float64 `json:"latestPrice"`
	PERatio     *float64 `json:"peRatio"`
}

// AdvancedStats is the subset of the advanced fundamentals object the
// screener consumes.
type AdvancedStats struct {
	PriceToBook     *float64 `json:"priceToBook"`
	PriceToSales    *float64 `json:"priceToSales"`
	EnterpriseValue *float64 `json:"enterpriseValue"`
	EBITDA          *float64 `json:"EBITDA"`
	GrossProfit     *float64 `json:"grossProfit"`
}

// SymbolData is the per-symbol payload of a batch response.
type SymbolData struct {
	Quote         *Quote         `json:"quote"`
	AdvancedStats *AdvancedStats `json:"advanced-stats"`
}

// batchResponse maps ticker to its data types in a batch response.
type batchResponse map[string]SymbolData
