package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateWorkshopExample(t *testing.T) {
	calc := NewPriceCalculator(DefaultExtraUnitPrice)

	got := calc.Calculate(PriceInput{BasePrice: 35000, ExtrasCount: 2, DiscountPercent: 10, Advance: 5000})

	assert.Equal(t, 39000.0, got.Subtotal)
	assert.Equal(t, 3900.0, got.DiscountAmount)
	assert.Equal(t, 35100.0, got.Total)
	assert.Equal(t, 30100.0, got.Remaining)
	assert.False(t, got.Overpaid)
}

func TestCalculate(t *testing.T) {
	calc := NewPriceCalculator(DefaultExtraUnitPrice)

	tests := []struct {
		name      string
		input     PriceInput
		subtotal  float64
		discount  float64
		total     float64
		remaining float64
		overpaid  bool
	}{
		{
			name:     "no extras no discount",
			input:    PriceInput{BasePrice: 25000},
			subtotal: 25000, total: 25000, remaining: 25000,
		},
		{
			name:     "extras only",
			input:    PriceInput{BasePrice: 10000, ExtrasCount: 3},
			subtotal: 16000, total: 16000, remaining: 16000,
		},
		{
			name:     "full discount floors at zero",
			input:    PriceInput{BasePrice: 10000, ExtrasCount: 1, DiscountPercent: 100},
			subtotal: 12000, discount: 12000, total: 0, remaining: 0,
		},
		{
			name:     "total is rounded to a whole unit",
			input:    PriceInput{BasePrice: 10001, DiscountPercent: 15},
			subtotal: 10001, discount: 1500.15, total: 8501, remaining: 8501,
		},
		{
			name:     "discount above 100 is clamped",
			input:    PriceInput{BasePrice: 5000, DiscountPercent: 150},
			subtotal: 5000, discount: 5000, total: 0, remaining: 0,
		},
		{
			name:     "negative inputs are treated as zero",
			input:    PriceInput{BasePrice: -5000, ExtrasCount: -2, DiscountPercent: -10, Advance: -100},
			subtotal: 0, total: 0, remaining: 0,
		},
		{
			name:     "advance above total is reported as overpaid",
			input:    PriceInput{BasePrice: 20000, Advance: 25000},
			subtotal: 20000, total: 20000, remaining: -5000, overpaid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Calculate(tt.input)
			assert.Equal(t, tt.subtotal, got.Subtotal)
			assert.Equal(t, tt.discount, got.DiscountAmount)
			assert.Equal(t, tt.total, got.Total)
			assert.Equal(t, tt.remaining, got.Remaining)
			assert.Equal(t, tt.overpaid, got.Overpaid)

			// identical input, identical output
			assert.Equal(t, got, calc.Calculate(tt.input))
		})
	}
}

func TestCalculateUsesConfiguredSurcharge(t *testing.T) {
	calc := NewPriceCalculator(1500)

	got := calc.Calculate(PriceInput{BasePrice: 10000, ExtrasCount: 2})
	assert.Equal(t, 13000.0, got.Subtotal)
}

func TestQuoteGatesDiscountByRole(t *testing.T) {
	calc := NewPriceCalculator(DefaultExtraUnitPrice)
	input := PriceInput{BasePrice: 35000, ExtrasCount: 2, DiscountPercent: 10, Advance: 5000}

	tests := []struct {
		name  string
		actor Actor
		total float64
	}{
		{"super admin gets discount", Actor{ID: 1, Role: "superAdmin"}, 35100},
		{"admin gets discount", Actor{ID: 2, Role: "admin"}, 35100},
		{"manager is ignored", Actor{ID: 3, Role: "manager"}, 39000},
		{"couturier is ignored", Actor{ID: 4, Role: "couturier"}, 39000},
		{"unknown role is ignored", Actor{ID: 5, Role: ""}, 39000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Quote(tt.actor, input)
			assert.Equal(t, tt.total, got.Total)
		})
	}

	// the caller's input is not modified
	assert.Equal(t, 10.0, input.DiscountPercent)
}
