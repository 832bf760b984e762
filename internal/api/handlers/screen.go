package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/petermills/valuescreen/internal/contracts"
	"github.com/petermills/valuescreen/internal/external/iex"
	"github.com/petermills/valuescreen/internal/pipeline"
	"github.com/petermills/valuescreen/pkg/config"
	"github.com/petermills/valuescreen/pkg/logger"
)

// ScreenHandler handles screening API endpoints
type ScreenHandler struct {
	client *iex.Client
	config *config.Config
	logger *logger.Logger
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(client *iex.Client, cfg *config.Config, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		client: client,
		config: cfg,
		logger: log,
	}
}

// ScreenRequest is the JSON body of a screen run
type ScreenRequest struct {
	Tickers []string `json:"tickers"`
	Budget  float64  `json:"budget"`
	TopN    int      `json:"top_n,omitempty"`
}

// ScreenResponse is the JSON result of a screen run
type ScreenResponse struct {
	Selected        []*contracts.SymbolRecord `json:"selected"`
	Skipped         map[string]string         `json:"skipped,omitempty"`
	ExcludedColumns []string                  `json:"excluded_columns,omitempty"`
	Shortfall       *ShortfallInfo            `json:"shortfall,omitempty"`
	DurationMillis  int64                     `json:"duration_ms"`
}

// ShortfallInfo reports a universe smaller than the requested selection
type ShortfallInfo struct {
	Requested int `json:"requested"`
	Available int `json:"available"`
}

// Screen runs the composite screening pipeline.
// POST /api/v1/screen
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Tickers) == 0 {
		writeError(w, http.StatusBadRequest, "tickers must not be empty")
		return
	}

	topN := req.TopN
	if topN <= 0 {
		topN = h.config.Screen.TopN
	}

	runner := pipeline.NewScreenRunner(h.client, topN, h.logger)

	result, err := runner.Run(r.Context(), req.Tickers, req.Budget)
	if err != nil {
		h.logger.WithError(err).Error("Screen run failed")

		var fetchErr *contracts.FetchError
		switch {
		case errors.Is(err, contracts.ErrInvalidBudget):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &fetchErr):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	resp := ScreenResponse{
		Selected:       result.Selected,
		Skipped:        result.Skipped,
		DurationMillis: result.Duration.Milliseconds(),
	}

	for _, col := range result.ExcludedColumns {
		resp.ExcludedColumns = append(resp.ExcludedColumns, col.String())
	}

	if result.Shortfall != nil {
		resp.Shortfall = &ShortfallInfo{
			Requested: result.Shortfall.Requested,
			Available: result.Shortfall.Available,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Quote returns the latest quote for one symbol.
// GET /api/v1/quote/{symbol}
func (h *ScreenHandler) Quote(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	quote, err := h.client.FetchQuote(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).Error("Quote fetch failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quote)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
