package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/openarb/arbengine/internal/config"
	"github.com/openarb/arbengine/internal/domain"
)

// SlippageService defines what the slippage handler requires from the engine.
type SlippageService interface {
	SlippageConfig() config.SlippageConfig
	AdoptRecommendations(rec domain.Recommendations)
}

// SlippageHandler exposes the shared slippage policy.
type SlippageHandler struct {
	engine SlippageService
	logger *slog.Logger
}

// NewSlippageHandler creates a SlippageHandler.
func NewSlippageHandler(engine SlippageService, logger *slog.Logger) *SlippageHandler {
	return &SlippageHandler{engine: engine, logger: logger}
}

// GetConfig returns the current slippage policy snapshot.
// GET /api/slippage
func (h *SlippageHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.engine.SlippageConfig()
	writeJSON(w, http.StatusOK, map[string]any{
		"max_slippage_percent":   cfg.MaxSlippagePercent,
		"price_impact_threshold": cfg.PriceImpactThreshold,
		"adaptive_slippage":      cfg.AdaptiveSlippage,
		"volatility_multiplier":  cfg.VolatilityMultiplier,
	})
}

// updateSlippageRequest is the JSON body for a policy update.
type updateSlippageRequest struct {
	MaxSlippagePercent float64 `json:"max_slippage_percent"`
}

// UpdateConfig adopts a new slippage ceiling. This is the explicit adoption
// step for tuning recommendations; reading recommendations never mutates.
// PUT /api/slippage
func (h *SlippageHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req updateSlippageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.MaxSlippagePercent <= 0 || req.MaxSlippagePercent > 1 {
		writeError(w, http.StatusBadRequest, "max_slippage_percent must be in (0, 1]")
		return
	}

	h.engine.AdoptRecommendations(domain.Recommendations{
		IncreaseSlippageTolerance: true,
		SuggestedMaxSlippage:      req.MaxSlippagePercent,
	})

	h.logger.InfoContext(r.Context(), "handler: slippage ceiling updated",
		slog.Float64("max_slippage_percent", req.MaxSlippagePercent),
	)
	h.GetConfig(w, r)
}
