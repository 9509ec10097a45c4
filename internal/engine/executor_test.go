package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openarb/arbengine/internal/config"
	"github.com/openarb/arbengine/internal/domain"
)

// fixedSlippage pins the estimate so executor outcomes are exact.
type fixedSlippage struct{ v float64 }

func (s fixedSlippage) Estimate(*domain.Order) float64 { return s.v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestExecutor wires an executor with zero latency so tests run instantly.
func newTestExecutor(book *Book, slip SlippageEstimator) *Executor {
	return NewExecutor(
		book,
		slip,
		NewCommissionModel(config.Defaults().Fees),
		fixedRand{0},
		config.EngineConfig{},
		discardLogger(),
	)
}

func registerOrder(book *Book, req domain.OrderRequest) *domain.Order {
	o := domain.NewOrder(req)
	book.Register(o)
	return o
}

func TestExecuteFillsMarketOrder(t *testing.T) {
	book := NewBook()
	exec := newTestExecutor(book, fixedSlippage{0.002})
	o := registerOrder(book, domain.OrderRequest{
		Symbol:   "BTC/USDT",
		Venue:    "binance",
		Side:     domain.OrderSideBuy,
		Type:     domain.OrderTypeMarket,
		Quantity: decimal.NewFromFloat(0.5),
	})

	res, err := exec.Execute(context.Background(), o, 0.01)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got failure: %s", res.ErrorMessage)
	}
	if res.Slippage != 0.002 {
		t.Fatalf("slippage = %v, want 0.002", res.Slippage)
	}

	// Buy pays the slippage: 1000 * 1.002 = 1002.
	wantPrice := decimal.RequireFromString("1002")
	if !res.AveragePrice.Equal(wantPrice) {
		t.Fatalf("average price = %s, want %s", res.AveragePrice, wantPrice)
	}
	// Commission: 0.5 * 1002 * 0.001 = 0.501.
	if !res.Commission.Equal(decimal.RequireFromString("0.501")) {
		t.Fatalf("commission = %s, want 0.501", res.Commission)
	}

	stored, err := book.Get(o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != domain.OrderStatusFilled {
		t.Fatalf("order status = %s, want filled", stored.Status)
	}
	if !stored.FilledQuantity.Equal(stored.Quantity) {
		t.Fatalf("filled quantity = %s, want %s", stored.FilledQuantity, stored.Quantity)
	}
	if !stored.AvgFillPrice.Equal(wantPrice) {
		t.Fatalf("avg fill price = %s, want %s", stored.AvgFillPrice, wantPrice)
	}
}

func TestExecuteSellReceivesLessOnSlippage(t *testing.T) {
	book := NewBook()
	exec := newTestExecutor(book, fixedSlippage{0.002})
	o := registerOrder(book, domain.OrderRequest{
		Symbol:   "BTC/USDT",
		Venue:    "okx",
		Side:     domain.OrderSideSell,
		Type:     domain.OrderTypeMarket,
		Quantity: decimal.NewFromFloat(0.5),
	})

	res, err := exec.Execute(context.Background(), o, 0.01)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// Sell gives up the slippage: 1000 * 0.998 = 998.
	if !res.AveragePrice.Equal(decimal.RequireFromString("998")) {
		t.Fatalf("average price = %s, want 998", res.AveragePrice)
	}
}

func TestExecuteLimitOrderFillsAtLimitPrice(t *testing.T) {
	book := NewBook()
	exec := newTestExecutor(book, fixedSlippage{0.002})
	o := registerOrder(book, domain.OrderRequest{
		Symbol:   "ETH/USDT",
		Venue:    "binance",
		Side:     domain.OrderSideBuy,
		Type:     domain.OrderTypeLimit,
		Quantity: decimal.NewFromInt(1),
		Price:    decimal.NewFromInt(2500),
	})

	res, err := exec.Execute(context.Background(), o, 0.01)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.AveragePrice.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("limit fill price = %s, want 2500", res.AveragePrice)
	}
}

func TestExecuteRejectsExcessiveSlippage(t *testing.T) {
	book := NewBook()
	exec := newTestExecutor(book, fixedSlippage{0.02})
	o := registerOrder(book, domain.OrderRequest{
		Symbol:   "BTC/USDT",
		Venue:    "binance",
		Side:     domain.OrderSideBuy,
		Type:     domain.OrderTypeMarket,
		Quantity: decimal.NewFromFloat(0.5),
	})

	res, err := exec.Execute(context.Background(), o, 0.01)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Success {
		t.Fatal("expected slippage failure")
	}
	if res.FailureKind != domain.FailureSlippage {
		t.Fatalf("failure kind = %q, want %q", res.FailureKind, domain.FailureSlippage)
	}
	// The failed result carries the measured slippage for diagnostics.
	if res.Slippage != 0.02 {
		t.Fatalf("slippage = %v, want 0.02", res.Slippage)
	}
	if res.ErrorMessage == "" {
		t.Fatal("expected an error message on the failed result")
	}

	stored, err := book.Get(o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != domain.OrderStatusFailed {
		t.Fatalf("order status = %s, want failed", stored.Status)
	}
	if stored.ErrorMessage == "" {
		t.Fatal("expected error message on the failed order")
	}
}

func TestExecuteRequiresPendingOrder(t *testing.T) {
	book := NewBook()
	exec := newTestExecutor(book, fixedSlippage{0.001})
	o := registerOrder(book, domain.OrderRequest{
		Symbol:   "BTC/USDT",
		Venue:    "binance",
		Side:     domain.OrderSideBuy,
		Type:     domain.OrderTypeMarket,
		Quantity: decimal.NewFromFloat(0.5),
	})

	if _, err := exec.Execute(context.Background(), o, 0.01); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	// The order is now FILLED; re-executing it is a contract violation and
	// surfaces as an error rather than a failed result.
	_, err := exec.Execute(context.Background(), o, 0.01)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestExecuteFailsOnCancelledContext(t *testing.T) {
	book := NewBook()
	exec := NewExecutor(
		book,
		fixedSlippage{0.001},
		NewCommissionModel(config.Defaults().Fees),
		fixedRand{0.5},
		config.EngineConfig{MinLatencyMs: 50, MaxLatencyMs: 100},
		discardLogger(),
	)
	o := registerOrder(book, domain.OrderRequest{
		Symbol:   "BTC/USDT",
		Venue:    "binance",
		Side:     domain.OrderSideBuy,
		Type:     domain.OrderTypeMarket,
		Quantity: decimal.NewFromFloat(0.5),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := exec.Execute(ctx, o, 0.01)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure under cancelled context")
	}
	if res.FailureKind != domain.FailureExecution {
		t.Fatalf("failure kind = %q, want %q", res.FailureKind, domain.FailureExecution)
	}

	stored, _ := book.Get(o.ID)
	if stored.Status != domain.OrderStatusFailed {
		t.Fatalf("order status = %s, want failed", stored.Status)
	}
}

func TestExecuteLatencyWithinBounds(t *testing.T) {
	book := NewBook()
	exec := NewExecutor(
		book,
		fixedSlippage{0.001},
		NewCommissionModel(config.Defaults().Fees),
		fixedRand{0.5},
		config.EngineConfig{MinLatencyMs: 10, MaxLatencyMs: 30},
		discardLogger(),
	)
	o := registerOrder(book, domain.OrderRequest{
		Symbol:   "BTC/USDT",
		Venue:    "binance",
		Side:     domain.OrderSideBuy,
		Type:     domain.OrderTypeMarket,
		Quantity: decimal.NewFromFloat(0.5),
	})

	start := time.Now()
	res, err := exec.Execute(context.Background(), o, 0.01)
	elapsed := time.Since(start)
	if err != nil || !res.Success {
		t.Fatalf("Execute: err=%v success=%v", err, res.Success)
	}
	if elapsed < 10*time.Millisecond {
		t.Fatalf("executed in %v, expected at least the minimum latency", elapsed)
	}
	if res.ExecutionTime < 10*time.Millisecond {
		t.Fatalf("result execution time %v below minimum latency", res.ExecutionTime)
	}
}
