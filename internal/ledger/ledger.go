// Package ledger keeps the append-only record of execution results and
// derives aggregate execution-quality metrics from it.
package ledger

import (
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openarb/arbengine/internal/domain"
)

// Ledger is an in-memory, append-only record of execution results. Record is
// safe under concurrent append; Statistics readers observe a consistent
// snapshot via a read lock.
type Ledger struct {
	mu      sync.RWMutex
	results []domain.ExecutionResult
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{}
}

// Record appends a result. Results are immutable once recorded. A zero
// RecordedAt is stamped with the current time.
func (l *Ledger) Record(res domain.ExecutionResult) {
	if res.RecordedAt.IsZero() {
		res.RecordedAt = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, res)
}

// Len returns the number of recorded results.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.results)
}

// Statistics aggregates the ledger. An empty ledger yields the zero value;
// there is no division by zero.
func (l *Ledger) Statistics() domain.Statistics {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := domain.Statistics{
		TotalCommission: decimal.Zero,
	}
	if len(l.results) == 0 {
		return stats
	}

	var (
		execTimeSum time.Duration
		slippageSum float64
		slippageN   int
	)
	dayAgo := time.Now().UTC().Add(-24 * time.Hour)
	for _, r := range l.results {
		stats.Total++
		if r.RecordedAt.After(dayAgo) {
			stats.Last24h++
		}
		if !r.Success {
			stats.Failed++
			continue
		}
		stats.Successful++
		execTimeSum += r.ExecutionTime
		stats.TotalCommission = stats.TotalCommission.Add(r.Commission)
		if r.Slippage > 0 {
			slippageSum += r.Slippage
			slippageN++
		}
	}

	stats.SuccessRate = float64(stats.Successful) / float64(stats.Total)
	if stats.Successful > 0 {
		stats.AvgExecutionTime = execTimeSum / time.Duration(stats.Successful)
	}
	if slippageN > 0 {
		stats.AvgSlippage = slippageSum / float64(slippageN)
	}
	return stats
}

// Recommend derives parameter-tuning suggestions from the current
// statistics. currentMaxSlippage is the slippage ceiling in effect; the
// suggested replacement is capped at 1.0. No side effects — applying the
// suggestions is the caller's explicit decision. An empty ledger yields no
// suggestions.
func (l *Ledger) Recommend(currentMaxSlippage float64) domain.Recommendations {
	stats := l.Statistics()

	var rec domain.Recommendations
	if stats.Total == 0 {
		return rec
	}

	if stats.SuccessRate < 0.9 {
		rec.IncreaseSlippageTolerance = true
		rec.SuggestedMaxSlippage = math.Min(currentMaxSlippage*1.2, 1.0)
	}
	if stats.AvgExecutionTime > time.Second {
		rec.UseMarketOrders = true
		rec.ReduceOrderSize = true
	}
	if stats.AvgSlippage > 0.005 {
		rec.SplitLargeOrders = true
		rec.UseLimitOrders = true
	}
	return rec
}
