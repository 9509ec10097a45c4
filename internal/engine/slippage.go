package engine

import (
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/openarb/arbengine/internal/config"
	"github.com/openarb/arbengine/internal/domain"
)

// Rand yields uniform variates in [0, 1). The production implementation is
// math/rand; tests inject a fixed source so slippage and latency draws are
// deterministic.
type Rand interface {
	Float64() float64
}

// SystemRand is the default Rand backed by math/rand/v2's shared generator.
type SystemRand struct{}

func (SystemRand) Float64() float64 { return rand.Float64() }

// SlippageEstimator computes the expected execution-price deviation for an
// order. The executor depends on this interface so tests can pin slippage to
// an exact value.
type SlippageEstimator interface {
	Estimate(o *domain.Order) float64
}

// SlippagePolicy is the shared, mutable slippage configuration. Reads vastly
// outnumber writes; writes only happen when a caller explicitly adopts tuning
// recommendations.
type SlippagePolicy struct {
	mu  sync.RWMutex
	cfg config.SlippageConfig
}

// NewSlippagePolicy wraps the initial configuration.
func NewSlippagePolicy(cfg config.SlippageConfig) *SlippagePolicy {
	return &SlippagePolicy{cfg: cfg}
}

// Snapshot returns a copy of the current policy. The VenueFactors map is
// shared but never mutated after construction.
func (p *SlippagePolicy) Snapshot() config.SlippageConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// MaxSlippage returns the configured slippage ceiling as a fraction.
func (p *SlippagePolicy) MaxSlippage() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.MaxSlippagePercent
}

// Adopt applies a recommendation set. Only the slippage ceiling is tunable at
// runtime; the suggested value is capped at 1.0.
func (p *SlippagePolicy) Adopt(rec domain.Recommendations) {
	if !rec.IncreaseSlippageTolerance || rec.SuggestedMaxSlippage <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.MaxSlippagePercent = math.Min(rec.SuggestedMaxSlippage, 1.0)
}

// SlippageModel estimates slippage from order size, venue, and randomized
// market noise. Estimates are always in [0, MaxSlippagePercent].
type SlippageModel struct {
	policy *SlippagePolicy
	rand   Rand
}

// NewSlippageModel creates a model reading the shared policy and drawing
// noise from rnd.
func NewSlippageModel(policy *SlippagePolicy, rnd Rand) *SlippageModel {
	return &SlippageModel{policy: policy, rand: rnd}
}

// Estimate draws a base slippage from market noise, scales it by order size,
// volatility, and venue, then clamps the result to the configured ceiling.
func (m *SlippageModel) Estimate(o *domain.Order) float64 {
	cfg := m.policy.Snapshot()

	base := m.uniform(0.0001, 0.003)

	// Larger orders face more slippage, capped at 2x.
	sizeFactor := math.Min(o.Quantity.InexactFloat64()/1000, 2.0)

	volatility := m.uniform(0.5, 1.5)
	if cfg.AdaptiveSlippage && cfg.VolatilityMultiplier > 0 {
		volatility *= cfg.VolatilityMultiplier
	}

	venueFactor := 1.0
	if f, ok := cfg.VenueFactors[strings.ToLower(o.Venue)]; ok {
		venueFactor = f
	}

	total := base * sizeFactor * volatility * venueFactor

	if total < 0 {
		return 0
	}
	return math.Min(total, cfg.MaxSlippagePercent)
}

func (m *SlippageModel) uniform(lo, hi float64) float64 {
	return lo + m.rand.Float64()*(hi-lo)
}

var _ SlippageEstimator = (*SlippageModel)(nil)
