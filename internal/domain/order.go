package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType is the execution style of an order.
type OrderType string

const (
	OrderTypeMarket     OrderType = "market"
	OrderTypeLimit      OrderType = "limit"
	OrderTypeStopLoss   OrderType = "stop_loss"
	OrderTypeTakeProfit OrderType = "take_profit"
)

// OrderStatus tracks the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusSubmitted       OrderStatus = "submitted"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusFailed          OrderStatus = "failed"
)

// Terminal reports whether no further transition is permitted from s.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

// Active reports whether the order still needs attention from the engine.
func (s OrderStatus) Active() bool {
	switch s {
	case OrderStatusPending, OrderStatusSubmitted, OrderStatusPartiallyFilled:
		return true
	}
	return false
}

// Order is a single-leg trading intent and its execution state. The identity
// and request fields are immutable after construction; the execution fields
// are written only by the executor driving this order, and status changes go
// through Transition.
type Order struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Venue     string          `json:"venue"`
	Side      OrderSide       `json:"side"`
	Type      OrderType       `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`      // limit / reference price; zero = unset
	StopPrice decimal.Decimal `json:"stop_price"` // zero = unset

	Status         OrderStatus     `json:"status"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	AvgFillPrice   decimal.Decimal `json:"avg_fill_price"`
	Commission     decimal.Decimal `json:"commission"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	ExecutionTime  time.Duration   `json:"execution_time"`
	ErrorMessage   string          `json:"error_message,omitempty"`
}

// NewOrder builds a PENDING order from a request, assigning a fresh ID and
// creation timestamp. Structural and business validation is the validator's
// job; NewOrder never fails.
func NewOrder(req OrderRequest) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:        uuid.New().String(),
		Symbol:    req.Symbol,
		Venue:     req.Venue,
		Side:      req.Side,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Price:     req.Price,
		StopPrice: req.StopPrice,
		Status:    OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the order to a new status and bumps UpdatedAt. It is the
// only sanctioned way to mutate Status. A transition out of a terminal status
// fails with ErrInvalidTransition; callers treat that as a programming-contract
// violation, not a runtime condition.
func (o *Order) Transition(to OrderStatus) error {
	if o.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s (order %s)", ErrInvalidTransition, o.Status, to, o.ID)
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	return nil
}
