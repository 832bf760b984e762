package iex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/pkg/config"
	"github.com/petermills/valuescreen/pkg/httputil"
	"github.com/petermills/valuescreen/pkg/logger"
)

func testClient(t *testing.T, serverURL string, batchSize int) *Client {
	t.Helper()

	cfg := &config.Config{
		Env:      "development",
		LogLevel: "error",
		Provider: config.ProviderConfig{
			Token:          "pk_test",
			BaseURL:        serverURL,
			BatchSize:      batchSize,
			RequestTimeout: 5 * time.Second,
		},
	}

	httpClient := httputil.New(cfg, logger.NewNop()).DisableRetry()

	client, err := NewClient(cfg, httpClient, logger.NewNop())
	require.NoError(t, err)
	return client
}

func batchPayload(symbols []string) batchResponse {
	resp := make(batchResponse)
	for i, s := range symbols {
		price := 100.0 + float64(i)
		pe := 15.0
		resp[s] = SymbolData{
			Quote:         &Quote{Symbol: s, LatestPrice: &price, PERatio: &pe},
			AdvancedStats: &AdvancedStats{},
		}
	}
	return resp
}

func TestNewClientRequiresToken(t *testing.T) {
	cfg := &config.Config{
		Provider: config.ProviderConfig{BatchSize: 100},
	}
	_, err := NewClient(cfg, nil, logger.NewNop())
	assert.Error(t, err)
}

func TestNewClientRejectsOversizedBatch(t *testing.T) {
	cfg := &config.Config{
		Provider: config.ProviderConfig{Token: "pk_test", BatchSize: 200},
	}
	_, err := NewClient(cfg, nil, logger.NewNop())
	assert.Error(t, err)
}

func TestFetchBatchChunking(t *testing.T) {
	var requestedChunks [][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "quote,advanced-stats", r.URL.Query().Get("types"))
		require.Equal(t, "pk_test", r.URL.Query().Get("token"))

		symbols := strings.Split(r.URL.Query().Get("symbols"), ",")
		requestedChunks = append(requestedChunks, symbols)

		json.NewEncoder(w).Encode(batchPayload(symbols))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 2)

	symbols := []string{"AAPL", "MSFT", "GOOG", "AMZN", "META"}
	results, err := client.FetchBatch(context.Background(), symbols)
	require.NoError(t, err)

	// Consecutive chunks of at most batchSize
	require.Len(t, requestedChunks, 3)
	assert.Equal(t, []string{"AAPL", "MSFT"}, requestedChunks[0])
	assert.Equal(t, []string{"GOOG", "AMZN"}, requestedChunks[1])
	assert.Equal(t, []string{"META"}, requestedChunks[2])

	// All chunks merged by symbol
	require.Len(t, results, 5)
	for _, s := range symbols {
		sd, ok := results[s]
		require.True(t, ok, "missing symbol %s", s)
		require.NotNil(t, sd.Quote)
		assert.Equal(t, s, sd.Quote.Symbol)
	}
}

func TestFetchBatchFailedChunkKeepsEarlierResults(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		symbols := strings.Split(r.URL.Query().Get("symbols"), ",")
		json.NewEncoder(w).Encode(batchPayload(symbols))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 2)

	results, err := client.FetchBatch(context.Background(), []string{"AAPL", "MSFT", "GOOG", "AMZN"})
	require.Error(t, err)

	var fetchErr *contracts.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, []string{"GOOG", "AMZN"}, fetchErr.Symbols)

	// First chunk survived the failure
	assert.Len(t, results, 2)
	assert.Contains(t, results, "AAPL")
	assert.Contains(t, results, "MSFT")
}

func TestFetchBatchNullFundamentals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"AAPL": {
				"quote": {"symbol": "AAPL", "latestPrice": 187.44, "peRatio": null},
				"advanced-stats": {"priceToBook": 44.1, "priceToSales": null, "enterpriseValue": 2900000000000, "EBITDA": null, "grossProfit": 170782000000}
			}
		}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 100)

	results, err := client.FetchBatch(context.Background(), []string{"AAPL"})
	require.NoError(t, err)

	sd := results["AAPL"]
	require.NotNil(t, sd.Quote)
	require.NotNil(t, sd.AdvancedStats)

	// null stays distinguishable from zero
	assert.Nil(t, sd.Quote.PERatio)
	assert.Nil(t, sd.AdvancedStats.PriceToSales)
	assert.Nil(t, sd.AdvancedStats.EBITDA)
	require.NotNil(t, sd.Quote.LatestPrice)
	assert.Equal(t, 187.44, *sd.Quote.LatestPrice)
	require.NotNil(t, sd.AdvancedStats.PriceToBook)
	assert.Equal(t, 44.1, *sd.AdvancedStats.PriceToBook)
}

func TestFetchQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stock/AAPL/quote", r.URL.Path)
		fmt.Fprint(w, `{"symbol": "AAPL", "latestPrice": 187.44, "peRatio": 29.1}`)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 100)

	quote, err := client.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	require.NotNil(t, quote.LatestPrice)
	assert.Equal(t, 187.44, *quote.LatestPrice)
	require.NotNil(t, quote.PERatio)
	assert.Equal(t, 29.1, *quote.PERatio)
}

func TestFetchQuoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 100)

	_, err := client.FetchQuote(context.Background(), "NOPE")
	require.Error(t, err)

	var fetchErr *contracts.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, []string{"NOPE"}, fetchErr.Symbols)
}
