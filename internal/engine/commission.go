package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/openarb/arbengine/internal/config"
	"github.com/openarb/arbengine/internal/domain"
)

// CommissionModel computes the fee owed for a filled order from the injected
// per-venue fee schedule. Pure function of its inputs.
type CommissionModel struct {
	rates       map[string]decimal.Decimal
	defaultRate decimal.Decimal
}

// NewCommissionModel builds a CommissionModel from the fee configuration.
func NewCommissionModel(cfg config.FeesConfig) *CommissionModel {
	rates := make(map[string]decimal.Decimal, len(cfg.Rates))
	for venue, rate := range cfg.Rates {
		rates[strings.ToLower(venue)] = decimal.NewFromFloat(rate)
	}
	return &CommissionModel{
		rates:       rates,
		defaultRate: decimal.NewFromFloat(cfg.DefaultRate),
	}
}

// Compute returns quantity * executionPrice * venueFeeRate. Unknown venues
// use the default rate.
func (m *CommissionModel) Compute(o *domain.Order, executionPrice decimal.Decimal) decimal.Decimal {
	return o.Quantity.Mul(executionPrice).Mul(m.Rate(o.Venue))
}

// Rate returns the fee rate for a venue.
func (m *CommissionModel) Rate(venue string) decimal.Decimal {
	if rate, ok := m.rates[strings.ToLower(venue)]; ok {
		return rate
	}
	return m.defaultRate
}
