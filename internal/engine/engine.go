// Package engine implements the arbitrage execution engine: order
// validation, slippage and commission modeling, single-order execution, and
// coordinated dual-leg arbitrage execution.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openarb/arbengine/internal/config"
	"github.com/openarb/arbengine/internal/domain"
	"github.com/openarb/arbengine/internal/ledger"
)

// Engine is the top-level entry point. It owns the order book, the shared
// slippage policy, and the execution ledger. Construct one per process (or
// per test); lifetime is caller-controlled.
type Engine struct {
	validator          *Validator
	executor           *Executor
	book               *Book
	policy             *SlippagePolicy
	ledger             *ledger.Ledger
	bus                domain.SignalBus
	logger             *slog.Logger
	cancelLatency      time.Duration
	defaultMaxSlippage float64
}

// New wires an Engine from configuration. rnd seeds all randomized behavior
// (slippage noise, simulated latency); pass a deterministic source in tests.
// sigBus may be nil when no observer needs execution events.
func New(cfg *config.Config, rnd Rand, sigBus domain.SignalBus, logger *slog.Logger) *Engine {
	book := NewBook()
	policy := NewSlippagePolicy(cfg.Slippage)
	model := NewSlippageModel(policy, rnd)
	commission := NewCommissionModel(cfg.Fees)

	return &Engine{
		validator:          NewValidator(cfg.Sizing),
		executor:           NewExecutor(book, model, commission, rnd, cfg.Engine, logger),
		book:               book,
		policy:             policy,
		ledger:             ledger.New(),
		bus:                sigBus,
		logger:             logger.With(slog.String("component", "engine")),
		cancelLatency:      time.Duration(cfg.Engine.CancelLatencyMs) * time.Millisecond,
		defaultMaxSlippage: cfg.Engine.DefaultMaxSlippage,
	}
}

// ExecuteArbitrage executes a matched buy/sell pair as a single logical
// operation. Both legs are validated first; if either fails validation the
// other is never submitted. Valid legs run concurrently and both outcomes are
// always returned — business failures are data, never errors. The returned
// error is non-nil only for programming-contract violations.
func (e *Engine) ExecuteArbitrage(
	ctx context.Context,
	buyReq, sellReq domain.OrderRequest,
	maxSlippage float64,
) (domain.ExecutionResult, domain.ExecutionResult, error) {
	if maxSlippage <= 0 {
		maxSlippage = e.defaultMaxSlippage
	}

	buy := domain.NewOrder(buyReq)
	sell := domain.NewOrder(sellReq)
	e.book.Register(buy)
	e.book.Register(sell)

	// Validation gates the opposite leg: a one-sided fill on a pair that was
	// never a valid pair is unhedged exposure, not a partial success.
	buyCheck := e.validator.Validate(buy)
	if !buyCheck.Valid {
		e.logger.Warn("buy leg failed validation",
			slog.String("order_id", buy.ID),
			slog.String("reason", buyCheck.Reason),
		)
		return validationFailure(buy.ID, "buy order validation failed: "+buyCheck.Reason),
			skippedLeg(sell.ID, "buy order validation failed, sell leg skipped"),
			nil
	}
	sellCheck := e.validator.Validate(sell)
	if !sellCheck.Valid {
		e.logger.Warn("sell leg failed validation",
			slog.String("order_id", sell.ID),
			slog.String("reason", sellCheck.Reason),
		)
		return skippedLeg(buy.ID, "sell order validation failed, buy leg skipped"),
			validationFailure(sell.ID, "sell order validation failed: "+sellCheck.Reason),
			nil
	}

	pairID := uuid.New().String()
	start := time.Now()

	var (
		wg              sync.WaitGroup
		buyRes, sellRes domain.ExecutionResult
		buyErr, sellErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		buyRes, buyErr = e.runLeg(ctx, buy, maxSlippage)
	}()
	go func() {
		defer wg.Done()
		sellRes, sellErr = e.runLeg(ctx, sell, maxSlippage)
	}()
	wg.Wait()

	if buyErr != nil || sellErr != nil {
		return buyRes, sellRes, errors.Join(buyErr, sellErr)
	}

	// Both legs share the pair's total wall-clock time; per-order durations
	// stay on the orders themselves.
	total := time.Since(start)
	buyRes.ExecutionTime = total
	sellRes.ExecutionTime = total

	now := time.Now().UTC()
	buyRes.RecordedAt = now
	sellRes.RecordedAt = now
	e.ledger.Record(buyRes)
	e.ledger.Record(sellRes)

	e.publish(ctx, domain.ChannelArb, map[string]any{
		"event":         "arbitrage_executed",
		"pair_id":       pairID,
		"buy_order_id":  buy.ID,
		"sell_order_id": sell.ID,
		"buy_success":   buyRes.Success,
		"sell_success":  sellRes.Success,
		"total_time_ms": total.Milliseconds(),
	})
	e.publishOrderUpdate(ctx, buy.ID)
	e.publishOrderUpdate(ctx, sell.ID)

	e.logger.Info("arbitrage pair executed",
		slog.String("pair_id", pairID),
		slog.Bool("buy_success", buyRes.Success),
		slog.Bool("sell_success", sellRes.Success),
		slog.Duration("total_time", total),
	)

	return buyRes, sellRes, nil
}

// runLeg executes one leg, converting panics into a failed result for that
// leg only so a fault in one leg can never suppress the other's outcome.
func (e *Engine) runLeg(ctx context.Context, o *domain.Order, maxSlippage float64) (res domain.ExecutionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("leg execution panicked",
				slog.String("order_id", o.ID),
				slog.Any("panic", r),
			)
			res = domain.ExecutionResult{
				Success:      false,
				OrderID:      o.ID,
				FailureKind:  domain.FailureExecution,
				ErrorMessage: fmt.Sprintf("internal error: %v", r),
			}
			err = nil
		}
	}()
	return e.executor.Execute(ctx, o, maxSlippage)
}

// GetOrderStatus returns a copy of the order, or domain.ErrNotFound.
func (e *Engine) GetOrderStatus(id string) (domain.Order, error) {
	return e.book.Get(id)
}

// GetActiveOrders returns all orders still in a non-terminal status.
func (e *Engine) GetActiveOrders() []domain.Order {
	return e.book.Active()
}

// CancelOrder makes a best-effort attempt to cancel an order. It returns
// false when the order is unknown or already terminal, including when it
// reaches a terminal state during the simulated cancel latency.
func (e *Engine) CancelOrder(ctx context.Context, id string) bool {
	o, err := e.book.Get(id)
	if err != nil || o.Status.Terminal() {
		return false
	}

	if e.cancelLatency > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(e.cancelLatency):
		}
	}

	if err := e.book.Update(id, func(ord *domain.Order) error {
		return ord.Transition(domain.OrderStatusCancelled)
	}); err != nil {
		return false
	}

	e.publishOrderUpdate(ctx, id)
	e.logger.Info("order cancelled", slog.String("order_id", id))
	return true
}

// GetStatistics returns the ledger's aggregate execution metrics.
func (e *Engine) GetStatistics() domain.Statistics {
	return e.ledger.Statistics()
}

// OptimizeParameters derives tuning suggestions from the ledger. Read-only;
// adopting the suggestions is a separate, explicit call.
func (e *Engine) OptimizeParameters() domain.Recommendations {
	return e.ledger.Recommend(e.policy.MaxSlippage())
}

// AdoptRecommendations applies a recommendation set to the shared slippage
// policy.
func (e *Engine) AdoptRecommendations(rec domain.Recommendations) {
	e.policy.Adopt(rec)
	e.logger.Info("slippage policy updated",
		slog.Float64("max_slippage_percent", e.policy.MaxSlippage()),
	)
}

// SlippageConfig returns a snapshot of the current slippage policy.
func (e *Engine) SlippageConfig() config.SlippageConfig {
	return e.policy.Snapshot()
}

func (e *Engine) publish(ctx context.Context, channel string, payload map[string]any) {
	if e.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := e.bus.Publish(ctx, channel, data); err != nil {
		e.logger.Warn("event publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}

func (e *Engine) publishOrderUpdate(ctx context.Context, id string) {
	o, err := e.book.Get(id)
	if err != nil {
		return
	}
	e.publish(ctx, domain.ChannelOrders, map[string]any{
		"event":    "order_update",
		"order_id": o.ID,
		"status":   o.Status,
		"error":    o.ErrorMessage,
	})
}

func validationFailure(orderID, msg string) domain.ExecutionResult {
	return domain.ExecutionResult{
		Success:      false,
		OrderID:      orderID,
		FailureKind:  domain.FailureValidation,
		ErrorMessage: msg,
	}
}

func skippedLeg(orderID, msg string) domain.ExecutionResult {
	return domain.ExecutionResult{
		Success:      false,
		OrderID:      orderID,
		FailureKind:  domain.FailureSkipped,
		ErrorMessage: msg,
	}
}
