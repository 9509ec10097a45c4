package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FailureKind distinguishes the expected business-level failure modes so the
// dashboard can suggest different remediation for each (widen tolerance vs.
// fix the request).
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureValidation FailureKind = "validation"
	FailureSkipped    FailureKind = "skipped" // opposite leg failed validation
	FailureSlippage   FailureKind = "slippage_exceeded"
	FailureExecution  FailureKind = "execution"
)

// ExecutionResult is the immutable outcome of one order's execution attempt.
// It is created exactly once, at the order's terminal transition, and appended
// to the execution ledger by the coordinator.
type ExecutionResult struct {
	Success        bool            `json:"success"`
	OrderID        string          `json:"order_id"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	AveragePrice   decimal.Decimal `json:"average_price"`
	Commission     decimal.Decimal `json:"commission"`
	ExecutionTime  time.Duration   `json:"execution_time"`
	Slippage       float64         `json:"slippage"` // fraction, 0.003 = 0.3%
	FailureKind    FailureKind     `json:"failure_kind,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	RecordedAt     time.Time       `json:"recorded_at"`
}
