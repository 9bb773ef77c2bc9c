package services

import "github.com/shopspring/decimal"

// DefaultExtraUnitPrice is the flat surcharge per stock supply
const DefaultExtraUnitPrice = 2000

// PriceInput is what the payment step collects
type PriceInput struct {
	BasePrice       float64 `json:"base_price"`
	ExtrasCount     int     `json:"extras_count"`
	DiscountPercent float64 `json:"discount_percent"`
	Advance         float64 `json:"advance"`
}

// PriceBreakdown is the computed price of an order
type PriceBreakdown struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	Total          float64 `json:"total"`
	Remaining      float64 `json:"remaining"`
	Overpaid       bool    `json:"overpaid"`
}

// PriceCalculator computes order prices. It holds no state besides the surcharge.
type PriceCalculator struct {
	extraUnitPrice decimal.Decimal
}

// NewPriceCalculator creates a calculator with the given per-supply surcharge
func NewPriceCalculator(extraUnitPrice float64) PriceCalculator {
	return PriceCalculator{extraUnitPrice: decimal.NewFromFloat(nonNegative(extraUnitPrice))}
}

// Calculate prices the input. Negative inputs are treated as zero and the
// discount is clamped to [0, 100]. The total is rounded to a whole unit.
func (p PriceCalculator) Calculate(in PriceInput) PriceBreakdown {
	base := decimal.NewFromFloat(nonNegative(in.BasePrice))
	extras := int64(in.ExtrasCount)
	if extras < 0 {
		extras = 0
	}
	percent := decimal.NewFromFloat(clamp(in.DiscountPercent, 0, 100))
	advance := decimal.NewFromFloat(nonNegative(in.Advance))

	subtotal := base.Add(p.extraUnitPrice.Mul(decimal.NewFromInt(extras)))
	discount := subtotal.Mul(percent).Div(decimal.NewFromInt(100))
	total := decimal.Max(decimal.Zero, subtotal.Sub(discount).Round(0))
	remaining := total.Sub(advance)

	return PriceBreakdown{
		Subtotal:       subtotal.InexactFloat64(),
		DiscountAmount: discount.Round(2).InexactFloat64(),
		Total:          total.InexactFloat64(),
		Remaining:      remaining.InexactFloat64(),
		Overpaid:       remaining.IsNegative(),
	}
}

// Quote prices the input on behalf of actor. Only privileged actors may apply a discount.
func (p PriceCalculator) Quote(actor Actor, in PriceInput) PriceBreakdown {
	if !actor.IsPrivileged() {
		in.DiscountPercent = 0
	}
	return p.Calculate(in)
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
