package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openarb/arbengine/internal/config"
	"github.com/openarb/arbengine/internal/domain"
)

// sideSlippage returns a different estimate per order side so one leg can be
// pushed over the ceiling while the other stays under it.
type sideSlippage struct {
	buy, sell float64
}

func (s sideSlippage) Estimate(o *domain.Order) float64 {
	if o.Side == domain.OrderSideSell {
		return s.sell
	}
	return s.buy
}

// panicSlippage simulates an internal fault in one leg.
type panicSlippage struct {
	panicSide domain.OrderSide
	value     float64
}

func (s panicSlippage) Estimate(o *domain.Order) float64 {
	if o.Side == s.panicSide {
		panic("slippage model fault")
	}
	return s.value
}

func newTestEngine(slip SlippageEstimator) *Engine {
	cfg := config.Defaults()
	cfg.Engine.MinLatencyMs = 0
	cfg.Engine.MaxLatencyMs = 0
	cfg.Engine.CancelLatencyMs = 0

	e := New(&cfg, fixedRand{0}, nil, discardLogger())
	if slip != nil {
		e.executor.slippage = slip
	}
	return e
}

func buyRequest(qty float64) domain.OrderRequest {
	return domain.OrderRequest{
		Symbol:   "BTC/USDT",
		Venue:    "binance",
		Side:     domain.OrderSideBuy,
		Type:     domain.OrderTypeMarket,
		Quantity: decimal.NewFromFloat(qty),
	}
}

func sellRequest(qty float64) domain.OrderRequest {
	return domain.OrderRequest{
		Symbol:   "BTC/USDT",
		Venue:    "okx",
		Side:     domain.OrderSideSell,
		Type:     domain.OrderTypeMarket,
		Quantity: decimal.NewFromFloat(qty),
	}
}

func TestExecuteArbitrageBothLegsFill(t *testing.T) {
	e := newTestEngine(fixedSlippage{0.002})

	buyRes, sellRes, err := e.ExecuteArbitrage(context.Background(), buyRequest(0.5), sellRequest(0.5), 0.01)
	if err != nil {
		t.Fatalf("ExecuteArbitrage: %v", err)
	}
	if !buyRes.Success || !sellRes.Success {
		t.Fatalf("expected both legs to fill: buy=%+v sell=%+v", buyRes, sellRes)
	}

	// Buy pays slippage, sell gives it up.
	if !buyRes.AveragePrice.Equal(decimal.RequireFromString("1002")) {
		t.Fatalf("buy price = %s, want 1002", buyRes.AveragePrice)
	}
	if !sellRes.AveragePrice.Equal(decimal.RequireFromString("998")) {
		t.Fatalf("sell price = %s, want 998", sellRes.AveragePrice)
	}

	// Venue fee rates differ: binance 0.1% on 1002, okx 0.1% on 998.
	if !buyRes.Commission.Equal(decimal.RequireFromString("0.501")) {
		t.Fatalf("buy commission = %s, want 0.501", buyRes.Commission)
	}
	if !sellRes.Commission.Equal(decimal.RequireFromString("0.499")) {
		t.Fatalf("sell commission = %s, want 0.499", sellRes.Commission)
	}

	for _, id := range []string{buyRes.OrderID, sellRes.OrderID} {
		o, err := e.GetOrderStatus(id)
		if err != nil {
			t.Fatalf("GetOrderStatus(%s): %v", id, err)
		}
		if o.Status != domain.OrderStatusFilled {
			t.Fatalf("order %s status = %s, want filled", id, o.Status)
		}
	}

	stats := e.GetStatistics()
	if stats.Total != 2 || stats.Successful != 2 {
		t.Fatalf("stats = %+v, want 2 total, 2 successful", stats)
	}
}

func TestExecuteArbitrageAlwaysReturnsBothResults(t *testing.T) {
	// Every failure mode still yields a result per leg.
	engines := map[string]*Engine{
		"both fail slippage": newTestEngine(fixedSlippage{0.02}),
		"buy fails slippage": newTestEngine(sideSlippage{buy: 0.02, sell: 0.002}),
		"buy leg panics":     newTestEngine(panicSlippage{panicSide: domain.OrderSideBuy, value: 0.002}),
	}
	for name, e := range engines {
		t.Run(name, func(t *testing.T) {
			buyRes, sellRes, err := e.ExecuteArbitrage(context.Background(), buyRequest(0.5), sellRequest(0.5), 0.01)
			if err != nil {
				t.Fatalf("ExecuteArbitrage: %v", err)
			}
			if buyRes.OrderID == "" || sellRes.OrderID == "" {
				t.Fatalf("missing order IDs: buy=%q sell=%q", buyRes.OrderID, sellRes.OrderID)
			}
		})
	}
}

func TestExecuteArbitrageLegsFailIndependently(t *testing.T) {
	e := newTestEngine(sideSlippage{buy: 0.02, sell: 0.002})

	buyRes, sellRes, err := e.ExecuteArbitrage(context.Background(), buyRequest(0.5), sellRequest(0.5), 0.01)
	if err != nil {
		t.Fatalf("ExecuteArbitrage: %v", err)
	}
	if buyRes.Success {
		t.Fatal("expected buy leg to fail on slippage")
	}
	if buyRes.FailureKind != domain.FailureSlippage {
		t.Fatalf("buy failure kind = %q, want %q", buyRes.FailureKind, domain.FailureSlippage)
	}
	if !sellRes.Success {
		t.Fatalf("expected sell leg to fill despite buy failure: %s", sellRes.ErrorMessage)
	}

	stats := e.GetStatistics()
	if stats.Total != 2 || stats.Successful != 1 || stats.Failed != 1 {
		t.Fatalf("stats = %+v, want 2 total, 1 successful, 1 failed", stats)
	}
}

func TestExecuteArbitrageValidationGatesOppositeLeg(t *testing.T) {
	e := newTestEngine(fixedSlippage{0.002})

	// Zero quantity fails validation on the buy leg.
	buyRes, sellRes, err := e.ExecuteArbitrage(context.Background(), buyRequest(0), sellRequest(0.5), 0.01)
	if err != nil {
		t.Fatalf("ExecuteArbitrage: %v", err)
	}
	if buyRes.Success || sellRes.Success {
		t.Fatal("expected neither leg to execute")
	}
	if buyRes.FailureKind != domain.FailureValidation {
		t.Fatalf("buy failure kind = %q, want %q", buyRes.FailureKind, domain.FailureValidation)
	}
	if !strings.Contains(buyRes.ErrorMessage, "quantity must be greater than 0") {
		t.Fatalf("buy error %q does not carry the validation reason", buyRes.ErrorMessage)
	}
	if sellRes.FailureKind != domain.FailureSkipped {
		t.Fatalf("sell failure kind = %q, want %q", sellRes.FailureKind, domain.FailureSkipped)
	}

	// The skipped sell order was never submitted: it is still PENDING.
	sellOrder, err := e.GetOrderStatus(sellRes.OrderID)
	if err != nil {
		t.Fatalf("GetOrderStatus: %v", err)
	}
	if sellOrder.Status != domain.OrderStatusPending {
		t.Fatalf("skipped sell order status = %s, want pending", sellOrder.Status)
	}

	// Validation rejections do not pollute execution statistics.
	if stats := e.GetStatistics(); stats.Total != 0 {
		t.Fatalf("stats total = %d, want 0 after validation failure", stats.Total)
	}
}

func TestExecuteArbitrageSellValidationSkipsBuy(t *testing.T) {
	e := newTestEngine(fixedSlippage{0.002})

	buyRes, sellRes, err := e.ExecuteArbitrage(context.Background(), buyRequest(0.5), sellRequest(0), 0.01)
	if err != nil {
		t.Fatalf("ExecuteArbitrage: %v", err)
	}
	if buyRes.FailureKind != domain.FailureSkipped {
		t.Fatalf("buy failure kind = %q, want %q", buyRes.FailureKind, domain.FailureSkipped)
	}
	if sellRes.FailureKind != domain.FailureValidation {
		t.Fatalf("sell failure kind = %q, want %q", sellRes.FailureKind, domain.FailureValidation)
	}

	buyOrder, err := e.GetOrderStatus(buyRes.OrderID)
	if err != nil {
		t.Fatalf("GetOrderStatus: %v", err)
	}
	if buyOrder.Status != domain.OrderStatusPending {
		t.Fatalf("skipped buy order status = %s, want pending", buyOrder.Status)
	}
}

func TestExecuteArbitragePanicIsolatedToOneLeg(t *testing.T) {
	e := newTestEngine(panicSlippage{panicSide: domain.OrderSideBuy, value: 0.002})

	buyRes, sellRes, err := e.ExecuteArbitrage(context.Background(), buyRequest(0.5), sellRequest(0.5), 0.01)
	if err != nil {
		t.Fatalf("ExecuteArbitrage: %v", err)
	}
	if buyRes.Success {
		t.Fatal("expected panicking buy leg to fail")
	}
	if buyRes.FailureKind != domain.FailureExecution {
		t.Fatalf("buy failure kind = %q, want %q", buyRes.FailureKind, domain.FailureExecution)
	}
	if !strings.Contains(buyRes.ErrorMessage, "internal error") {
		t.Fatalf("buy error = %q, want internal error", buyRes.ErrorMessage)
	}
	if !sellRes.Success {
		t.Fatalf("expected sell leg to survive buy panic: %s", sellRes.ErrorMessage)
	}
}

func TestExecuteArbitrageUsesDefaultMaxSlippage(t *testing.T) {
	// Estimate 0.004 is under the default ceiling 0.005 but over 0.003.
	e := newTestEngine(fixedSlippage{0.004})

	buyRes, _, err := e.ExecuteArbitrage(context.Background(), buyRequest(0.5), sellRequest(0.5), 0)
	if err != nil {
		t.Fatalf("ExecuteArbitrage: %v", err)
	}
	if !buyRes.Success {
		t.Fatalf("expected default ceiling to admit 0.004: %s", buyRes.ErrorMessage)
	}

	buyRes, _, err = e.ExecuteArbitrage(context.Background(), buyRequest(0.5), sellRequest(0.5), 0.003)
	if err != nil {
		t.Fatalf("ExecuteArbitrage: %v", err)
	}
	if buyRes.Success {
		t.Fatal("expected explicit ceiling 0.003 to reject 0.004")
	}
}

func TestGetOrderStatusUnknown(t *testing.T) {
	e := newTestEngine(nil)
	if _, err := e.GetOrderStatus("no-such-order"); err == nil {
		t.Fatal("expected error for unknown order")
	}
}

func TestGetActiveOrders(t *testing.T) {
	e := newTestEngine(fixedSlippage{0.002})

	if got := e.GetActiveOrders(); len(got) != 0 {
		t.Fatalf("expected no active orders, got %d", len(got))
	}

	// A validation failure leaves both orders non-terminal: the invalid buy is
	// failed only in the result, while the book keeps it pending alongside the
	// skipped sell.
	_, _, err := e.ExecuteArbitrage(context.Background(), buyRequest(0), sellRequest(0.5), 0.01)
	if err != nil {
		t.Fatalf("ExecuteArbitrage: %v", err)
	}
	if got := e.GetActiveOrders(); len(got) != 2 {
		t.Fatalf("expected 2 active orders after gated pair, got %d", len(got))
	}

	// A fully executed pair is terminal and drops out of the active view.
	_, _, err = e.ExecuteArbitrage(context.Background(), buyRequest(0.5), sellRequest(0.5), 0.01)
	if err != nil {
		t.Fatalf("ExecuteArbitrage: %v", err)
	}
	if got := e.GetActiveOrders(); len(got) != 2 {
		t.Fatalf("expected filled orders to leave the active view, got %d", len(got))
	}
}

func TestCancelOrder(t *testing.T) {
	e := newTestEngine(fixedSlippage{0.002})
	ctx := context.Background()

	if e.CancelOrder(ctx, "no-such-order") {
		t.Fatal("cancelling an unknown order must return false")
	}

	// Gate a pair on validation to obtain a PENDING order.
	_, sellRes, err := e.ExecuteArbitrage(ctx, buyRequest(0), sellRequest(0.5), 0.01)
	if err != nil {
		t.Fatalf("ExecuteArbitrage: %v", err)
	}
	if !e.CancelOrder(ctx, sellRes.OrderID) {
		t.Fatal("expected pending order to cancel")
	}

	o, err := e.GetOrderStatus(sellRes.OrderID)
	if err != nil {
		t.Fatalf("GetOrderStatus: %v", err)
	}
	if o.Status != domain.OrderStatusCancelled {
		t.Fatalf("order status = %s, want cancelled", o.Status)
	}

	// Terminal orders cannot be cancelled again.
	if e.CancelOrder(ctx, sellRes.OrderID) {
		t.Fatal("cancelling a cancelled order must return false")
	}

	buyRes, _, err := e.ExecuteArbitrage(ctx, buyRequest(0.5), sellRequest(0.5), 0.01)
	if err != nil {
		t.Fatalf("ExecuteArbitrage: %v", err)
	}
	if e.CancelOrder(ctx, buyRes.OrderID) {
		t.Fatal("cancelling a filled order must return false")
	}
}

func TestOptimizeParametersReflectsLedger(t *testing.T) {
	e := newTestEngine(nil)

	// No history: no recommendations.
	if rec := e.OptimizeParameters(); !rec.Empty() {
		t.Fatalf("expected no recommendations on empty ledger, got %+v", rec)
	}

	// One failing pair drives the success rate to zero.
	e.executor.slippage = fixedSlippage{0.02}
	if _, _, err := e.ExecuteArbitrage(context.Background(), buyRequest(0.5), sellRequest(0.5), 0.01); err != nil {
		t.Fatalf("ExecuteArbitrage: %v", err)
	}

	rec := e.OptimizeParameters()
	if !rec.IncreaseSlippageTolerance {
		t.Fatalf("expected slippage-tolerance recommendation, got %+v", rec)
	}
	want := e.SlippageConfig().MaxSlippagePercent * 1.2
	if diff := rec.SuggestedMaxSlippage - want; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("suggested max slippage = %v, want %v", rec.SuggestedMaxSlippage, want)
	}
}

func TestAdoptRecommendationsRaisesCeiling(t *testing.T) {
	e := newTestEngine(nil)
	before := e.SlippageConfig().MaxSlippagePercent

	e.AdoptRecommendations(domain.Recommendations{
		IncreaseSlippageTolerance: true,
		SuggestedMaxSlippage:      before * 1.2,
	})

	after := e.SlippageConfig().MaxSlippagePercent
	if after <= before {
		t.Fatalf("ceiling not raised: %v -> %v", before, after)
	}
}
