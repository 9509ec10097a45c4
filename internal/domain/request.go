package domain

import "github.com/shopspring/decimal"

// OrderRequest is the input shape consumed from the opportunity-detection
// collaborator: one leg of an intended arbitrage pair. Price is the limit
// price for limit orders and the reference price for market orders; both it
// and StopPrice may be left zero.
type OrderRequest struct {
	Symbol    string          `json:"symbol"`
	Venue     string          `json:"venue"`
	Side      OrderSide       `json:"side"`
	Type      OrderType       `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	StopPrice decimal.Decimal `json:"stop_price"`
}

// ValidationOutcome is the result of checking an order against the engine's
// structural and business rules.
type ValidationOutcome struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}
