package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statistics aggregates the execution ledger. All averages are taken over
// successful executions; AvgSlippage additionally ignores zero-slippage fills.
// An empty ledger yields the zero value.
type Statistics struct {
	Total            int             `json:"total_executions"`
	Successful       int             `json:"successful_executions"`
	Failed           int             `json:"failed_executions"`
	SuccessRate      float64         `json:"success_rate"`
	AvgExecutionTime time.Duration   `json:"average_execution_time"`
	AvgSlippage      float64         `json:"average_slippage"`
	TotalCommission  decimal.Decimal `json:"total_commission"`
	Last24h          int             `json:"last_24h_executions"`
}

// Recommendations is a set of tuning suggestions derived from ledger
// statistics. Deriving it has no side effects; adopting it is a separate,
// explicit caller action.
type Recommendations struct {
	IncreaseSlippageTolerance bool    `json:"increase_slippage_tolerance"`
	SuggestedMaxSlippage      float64 `json:"suggested_max_slippage,omitempty"`
	UseMarketOrders           bool    `json:"use_market_orders"`
	ReduceOrderSize           bool    `json:"reduce_order_size"`
	SplitLargeOrders          bool    `json:"split_large_orders"`
	UseLimitOrders            bool    `json:"use_limit_orders"`
}

// Empty reports whether the set carries no suggestions.
func (r Recommendations) Empty() bool {
	return r == Recommendations{}
}
