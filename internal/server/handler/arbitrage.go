package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/openarb/arbengine/internal/domain"
)

// ArbExecutor defines what the arbitrage handler requires from the engine.
type ArbExecutor interface {
	ExecuteArbitrage(ctx context.Context, buy, sell domain.OrderRequest, maxSlippage float64) (domain.ExecutionResult, domain.ExecutionResult, error)
}

// ArbHandler serves the arbitrage execution endpoint.
type ArbHandler struct {
	engine ArbExecutor
	logger *slog.Logger
}

// NewArbHandler creates an ArbHandler with the given engine and logger.
func NewArbHandler(engine ArbExecutor, logger *slog.Logger) *ArbHandler {
	return &ArbHandler{engine: engine, logger: logger}
}

// executeRequest is the JSON body for an arbitrage execution call.
type executeRequest struct {
	Buy         domain.OrderRequest `json:"buy"`
	Sell        domain.OrderRequest `json:"sell"`
	MaxSlippage float64             `json:"max_slippage"`
}

// executeResponse pairs the two leg results.
type executeResponse struct {
	Buy  executionResultDTO `json:"buy"`
	Sell executionResultDTO `json:"sell"`
}

// Execute runs a buy/sell pair through the engine.
// POST /api/arbitrage/execute
func (h *ArbHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.MaxSlippage < 0 {
		writeError(w, http.StatusBadRequest, "max_slippage must not be negative")
		return
	}

	buyRes, sellRes, err := h.engine.ExecuteArbitrage(r.Context(), req.Buy, req.Sell, req.MaxSlippage)
	if err != nil {
		// Only programming-contract violations surface here; business-level
		// failures come back as failed leg results.
		h.logger.ErrorContext(r.Context(), "handler: execute arbitrage failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "arbitrage execution failed")
		return
	}

	writeJSON(w, http.StatusOK, executeResponse{
		Buy:  toResultDTO(buyRes),
		Sell: toResultDTO(sellRes),
	})
}
