package iex

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/pkg/config"
	"github.com/petermills/valuescreen/pkg/httputil"
	"github.com/petermills/valuescreen/pkg/logger"
)

// batchTypes are the data types requested per batch call.
const batchTypes = "quote,advanced-stats"

// Client handles communication with the IEX-style market data API.
// All provider calls go through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	token      string
	batchSize  int
}

// NewClient creates a new market data client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) (*Client, error) {
	if cfg.Provider.Token == "" {
		return nil, fmt.Errorf("provider token is not configured (IEX_TOKEN)")
	}

	batchSize := cfg.Provider.BatchSize
	if batchSize < 1 || batchSize > 100 {
		return nil, fmt.Errorf("batch size %d outside provider limit 1..100", batchSize)
	}

	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(cfg.Provider.BaseURL, "/"),
		token:      cfg.Provider.Token,
		batchSize:  batchSize,
	}, nil
}

// FetchBatch fetches quote and advanced fundamentals for the given symbols,
// partitioned into consecutive chunks of at most the provider batch limit,
// one request per chunk. On a chunk failure it returns the results merged so
// far together with a *contracts.FetchError naming the failed chunk, so the
// caller can retry that subset without refetching the rest.
func (c *Client) FetchBatch(ctx context.Context, symbols []string) (map[string]SymbolData, error) {
	results := make(map[string]SymbolData, len(symbols))

	for start := 0; start < len(symbols); start += c.batchSize {
		end := start + c.batchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		chunk := symbols[start:end]

		data, err := c.fetchChunk(ctx, chunk)
		if err != nil {
			return results, &contracts.FetchError{Symbols: chunk, Err: err}
		}

		// Chunks are disjoint, so merging never overwrites
		for symbol, sd := range data {
			results[strings.ToUpper(symbol)] = sd
		}

		c.logger.WithFields(map[string]interface{}{
			"chunk_size": len(chunk),
			"fetched":    len(results),
			"total":      len(symbols),
		}).Debug("Fetched batch chunk")
	}

	return results, nil
}

// fetchChunk issues one batch request for up to batchSize symbols
func (c *Client) fetchChunk(ctx context.Context, symbols []string) (batchResponse, error) {
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))
	params.Set("types", batchTypes)
	params.Set("token", c.token)

	fullURL := fmt.Sprintf("%s/stock/market/batch?%s", c.baseURL, params.Encode())

	var resp batchResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return nil, fmt.Errorf("batch request failed: %w", err)
	}

	return resp, nil
}

// FetchQuote fetches the quote for a single symbol.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{}
	params.Set("token", c.token)

	fullURL := fmt.Sprintf("%s/stock/%s/quote?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var quote Quote
	if err := c.httpClient.GetJSON(ctx, fullURL, &quote); err != nil {
		return nil, &contracts.FetchError{Symbols: []string{symbol}, Err: err}
	}

	return &quote, nil
}
