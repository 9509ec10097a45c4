package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/openarb/arbengine/internal/config"
	"github.com/openarb/arbengine/internal/domain"
)

// Validator checks an order's structural and business-rule validity before
// execution. It is pure: no side effects, deterministic for a given order and
// sizing table.
type Validator struct {
	minSizes   map[string]decimal.Decimal
	defaultMin decimal.Decimal
}

// NewValidator builds a Validator from the injected sizing table.
func NewValidator(cfg config.SizingConfig) *Validator {
	sizes := make(map[string]decimal.Decimal, len(cfg.MinOrderSizes))
	for cur, min := range cfg.MinOrderSizes {
		sizes[strings.ToUpper(cur)] = decimal.NewFromFloat(min)
	}
	return &Validator{
		minSizes:   sizes,
		defaultMin: decimal.NewFromFloat(cfg.DefaultMinSize),
	}
}

// Validate applies the rules in order; the first failure wins.
func (v *Validator) Validate(o *domain.Order) domain.ValidationOutcome {
	if o.Symbol == "" {
		return invalid("symbol must not be empty")
	}
	if o.Venue == "" {
		return invalid("venue must not be empty")
	}
	if !o.Quantity.IsPositive() {
		return invalid("quantity must be greater than 0")
	}
	if min := v.minSize(o.Symbol); o.Quantity.LessThan(min) {
		return invalid(fmt.Sprintf("quantity %s below minimum order size %s", o.Quantity, min))
	}
	if o.Type == domain.OrderTypeLimit && o.Price.IsZero() {
		return invalid("limit orders require a limit price")
	}
	if o.Type == domain.OrderTypeStopLoss && o.StopPrice.IsZero() {
		return invalid("stop-loss orders require a stop price")
	}
	return domain.ValidationOutcome{Valid: true}
}

// minSize resolves the minimum order size for the symbol's base currency.
// Unknown currencies fall back to the default minimum.
func (v *Validator) minSize(symbol string) decimal.Decimal {
	base := symbol
	if i := strings.Index(symbol, "/"); i >= 0 {
		base = symbol[:i]
	}
	if min, ok := v.minSizes[strings.ToUpper(base)]; ok {
		return min
	}
	return v.defaultMin
}

func invalid(reason string) domain.ValidationOutcome {
	return domain.ValidationOutcome{Valid: false, Reason: reason}
}
