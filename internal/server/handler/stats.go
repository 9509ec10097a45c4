package handler

import (
	"net/http"

	"github.com/openarb/arbengine/internal/domain"
)

// StatsService defines what the statistics handler requires from the engine.
type StatsService interface {
	GetStatistics() domain.Statistics
	OptimizeParameters() domain.Recommendations
}

// StatsHandler serves execution statistics and tuning recommendations.
type StatsHandler struct {
	stats StatsService
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(stats StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GetStatistics returns the ledger aggregates.
// GET /api/statistics
func (h *StatsHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	s := h.stats.GetStatistics()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_executions":          s.Total,
		"successful_executions":     s.Successful,
		"failed_executions":         s.Failed,
		"success_rate":              s.SuccessRate,
		"average_execution_seconds": s.AvgExecutionTime.Seconds(),
		"average_slippage":          s.AvgSlippage,
		"total_commission":          s.TotalCommission.String(),
		"last_24h_executions":       s.Last24h,
	})
}

// GetRecommendations returns read-only parameter-tuning suggestions derived
// from the ledger. Nothing is mutated.
// GET /api/recommendations
func (h *StatsHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.OptimizeParameters())
}
