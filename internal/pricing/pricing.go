// Package pricing resolves combo totals from the combo definition and the
// current slot selections. Per-selection prices are kept for display; the
// charged total comes from here.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/fondapos/core/internal/domain"
	"github.com/fondapos/core/internal/enum"
)

// ComboTotal returns the price charged for one unit of the combo.
// Fixed-price combos return the configured price regardless of selections;
// discount combos return the selection sum minus a percentage or absolute
// discount, floored at zero. An unknown pricing mode falls back to the plain
// selection sum.
func ComboTotal(combo domain.Combo, selections []domain.ComboSelection) decimal.Decimal {
	if combo.PricingMode == enum.ComboPricingFixed {
		return combo.FixedPrice
	}

	sum := decimal.Zero
	for _, sel := range selections {
		sum = sum.Add(sel.Price)
	}

	if combo.PricingMode != enum.ComboPricingDiscount {
		return sum
	}

	var total decimal.Decimal
	switch combo.DiscountType {
	case enum.DiscountPercentage:
		total = sum.Sub(sum.Mul(combo.DiscountValue).Div(decimal.NewFromInt(100)))
	case enum.DiscountAbsolute:
		total = sum.Sub(combo.DiscountValue)
	default:
		total = sum
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
