package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openarb/arbengine/internal/config"
	"github.com/openarb/arbengine/internal/domain"
)

// defaultReferencePrice stands in for a market quote when the request carries
// no price. The engine simulates venue interaction; it does not ingest
// real-time market data.
var defaultReferencePrice = decimal.NewFromInt(1000)

// Executor drives exactly one order from SUBMITTED to a terminal state,
// applying the caller's slippage ceiling as a hard constraint. Business-level
// failures are returned as failed ExecutionResults; only contract violations
// (executing a non-PENDING order) surface as errors.
type Executor struct {
	book       *Book
	slippage   SlippageEstimator
	commission *CommissionModel
	rand       Rand
	minLatency time.Duration
	maxLatency time.Duration
	logger     *slog.Logger
}

// NewExecutor creates an Executor operating on the given book, with latency
// bounds taken from the engine configuration.
func NewExecutor(
	book *Book,
	slippage SlippageEstimator,
	commission *CommissionModel,
	rnd Rand,
	cfg config.EngineConfig,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		book:       book,
		slippage:   slippage,
		commission: commission,
		rand:       rnd,
		minLatency: time.Duration(cfg.MinLatencyMs) * time.Millisecond,
		maxLatency: time.Duration(cfg.MaxLatencyMs) * time.Millisecond,
		logger:     logger.With(slog.String("component", "executor")),
	}
}

// Execute runs the order through submit, simulated venue interaction, and
// fill or fail. The order must be registered in the book and PENDING.
func (e *Executor) Execute(ctx context.Context, o *domain.Order, maxSlippage float64) (domain.ExecutionResult, error) {
	start := time.Now()

	// Contract check: only a PENDING order may be executed.
	if err := e.book.Update(o.ID, func(ord *domain.Order) error {
		if ord.Status != domain.OrderStatusPending {
			return fmt.Errorf("%w: execute requires a pending order, %s is %s",
				domain.ErrInvalidTransition, ord.ID, ord.Status)
		}
		return ord.Transition(domain.OrderStatusSubmitted)
	}); err != nil {
		return domain.ExecutionResult{}, err
	}

	// Simulated venue latency. The sole suspension point in the engine.
	if err := e.sleep(ctx); err != nil {
		return e.fail(o, start, domain.FailureExecution, err.Error(), 0), nil
	}

	slip := e.slippage.Estimate(o)
	if slip > maxSlippage {
		msg := fmt.Sprintf("slippage exceeded: %.4f > %.4f", slip, maxSlippage)
		e.logger.Warn("order rejected on slippage",
			slog.String("order_id", o.ID),
			slog.String("venue", o.Venue),
			slog.Float64("slippage", slip),
			slog.Float64("max_slippage", maxSlippage),
		)
		return e.fail(o, start, domain.FailureSlippage, msg, slip), nil
	}

	execPrice := e.executionPrice(o, slip)
	comm := e.commission.Compute(o, execPrice)

	var result domain.ExecutionResult
	if err := e.book.Update(o.ID, func(ord *domain.Order) error {
		if err := ord.Transition(domain.OrderStatusFilled); err != nil {
			return err
		}
		ord.FilledQuantity = ord.Quantity
		ord.AvgFillPrice = execPrice
		ord.Commission = comm
		ord.ExecutionTime = time.Since(start)
		result = domain.ExecutionResult{
			Success:        true,
			OrderID:        ord.ID,
			FilledQuantity: ord.FilledQuantity,
			AveragePrice:   execPrice,
			Commission:     comm,
			ExecutionTime:  ord.ExecutionTime,
			Slippage:       slip,
		}
		return nil
	}); err != nil {
		// The order raced into a terminal state (e.g. cancelled mid-flight).
		return e.fail(o, start, domain.FailureExecution, err.Error(), slip), nil
	}

	e.logger.Debug("order filled",
		slog.String("order_id", o.ID),
		slog.String("venue", o.Venue),
		slog.String("price", execPrice.String()),
		slog.Float64("slippage", slip),
	)
	return result, nil
}

// sleep suspends for a random duration within the configured latency bounds.
func (e *Executor) sleep(ctx context.Context) error {
	delay := e.minLatency
	if span := e.maxLatency - e.minLatency; span > 0 {
		delay += time.Duration(e.rand.Float64() * float64(span))
	}
	if delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// executionPrice resolves the fill price. Market orders pay slippage against
// the trader on either side; limit orders fill at their limit price verbatim;
// other kinds fill at the reference price.
func (e *Executor) executionPrice(o *domain.Order, slip float64) decimal.Decimal {
	ref := o.Price
	if ref.IsZero() {
		ref = defaultReferencePrice
	}
	switch o.Type {
	case domain.OrderTypeMarket:
		adj := 1 + slip
		if o.Side == domain.OrderSideSell {
			adj = 1 - slip
		}
		return ref.Mul(decimal.NewFromFloat(adj))
	case domain.OrderTypeLimit:
		return o.Price
	default:
		return ref
	}
}

// fail transitions the order to FAILED (unless it already reached a terminal
// state) and returns the failed result carrying the measured slippage for
// diagnostics.
func (e *Executor) fail(o *domain.Order, start time.Time, kind domain.FailureKind, msg string, slip float64) domain.ExecutionResult {
	elapsed := time.Since(start)
	_ = e.book.Update(o.ID, func(ord *domain.Order) error {
		if ord.Status.Terminal() {
			return nil
		}
		ord.ErrorMessage = msg
		ord.ExecutionTime = elapsed
		return ord.Transition(domain.OrderStatusFailed)
	})
	return domain.ExecutionResult{
		Success:       false,
		OrderID:       o.ID,
		ExecutionTime: elapsed,
		Slippage:      slip,
		FailureKind:   kind,
		ErrorMessage:  msg,
	}
}
