package invoicing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places kept for amounts
const MoneyScale int32 = 2

// QuantityScale is the number of decimal places stored for quantities and unit prices
const QuantityScale int32 = 4

// DefaultTaxRate is used when no rate is configured
var DefaultTaxRate = decimal.RequireFromString("0.12")

var hundred = decimal.NewFromInt(100)

// PriceInput is one cart line handed to the pricing engine
type PriceInput struct {
	ProductID   uuid.UUID
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
}

// PricedLine is the pricing result for one line
type PricedLine struct {
	PriceInput
	GrossAmount    decimal.Decimal // Quantity * UnitPrice
	DiscountAmount decimal.Decimal
	LineSubtotal   decimal.Decimal // GrossAmount - DiscountAmount
}

// PricingResult holds priced lines and invoice totals.
// GrandTotal == Subtotal - DiscountTotal + TaxTotal holds exactly.
type PricingResult struct {
	Lines         []PricedLine
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxRate       decimal.Decimal
	TaxTotal      decimal.Decimal
	GrandTotal    decimal.Decimal
}

// TaxableBase returns Subtotal - DiscountTotal
func (r *PricingResult) TaxableBase() decimal.Decimal {
	return r.Subtotal.Sub(r.DiscountTotal)
}

// PricingEngine computes line amounts and invoice totals
type PricingEngine struct {
	taxRate decimal.Decimal
}

// NewPricingEngine creates a pricing engine for the given tax rate (0.12 = 12%)
func NewPricingEngine(taxRate decimal.Decimal) *PricingEngine {
	return &PricingEngine{taxRate: taxRate}
}

// TaxRate returns the configured tax rate
func (e *PricingEngine) TaxRate() decimal.Decimal {
	return e.taxRate
}

// Price validates and prices the lines. Amounts are rounded to MoneyScale
// per line, and totals are sums of rounded parts.
func (e *PricingEngine) Price(lines []PriceInput) (*PricingResult, error) {
	result := &PricingResult{
		Lines:         make([]PricedLine, 0, len(lines)),
		Subtotal:      decimal.Zero,
		DiscountTotal: decimal.Zero,
		TaxRate:       e.taxRate,
	}

	for i, line := range lines {
		if err := validatePriceInput(i, line); err != nil {
			return nil, err
		}

		gross := line.Quantity.Mul(line.UnitPrice).Round(MoneyScale)
		discount := line.Quantity.Mul(line.UnitPrice).Mul(line.DiscountPct).Div(hundred).Round(MoneyScale)

		result.Lines = append(result.Lines, PricedLine{
			PriceInput:     line,
			GrossAmount:    gross,
			DiscountAmount: discount,
			LineSubtotal:   gross.Sub(discount),
		})
		result.Subtotal = result.Subtotal.Add(gross)
		result.DiscountTotal = result.DiscountTotal.Add(discount)
	}

	result.TaxTotal = result.TaxableBase().Mul(e.taxRate).Round(MoneyScale)
	result.GrandTotal = result.Subtotal.Sub(result.DiscountTotal).Add(result.TaxTotal)

	return result, nil
}

func validatePriceInput(index int, line PriceInput) error {
	if line.Quantity.LessThanOrEqual(decimal.Zero) {
		return NewInvalidLineItemError(index, "quantity must be positive")
	}
	if line.UnitPrice.IsNegative() {
		return NewInvalidLineItemError(index, "unit price cannot be negative")
	}
	if line.DiscountPct.IsNegative() || line.DiscountPct.GreaterThan(hundred) {
		return NewInvalidLineItemError(index, "discount must be between 0 and 100")
	}
	if !fitsScale(line.Quantity, QuantityScale) {
		return NewInvalidLineItemError(index, fmt.Sprintf("quantity allows at most %d decimal places", QuantityScale))
	}
	if !fitsScale(line.UnitPrice, QuantityScale) {
		return NewInvalidLineItemError(index, fmt.Sprintf("unit price allows at most %d decimal places", QuantityScale))
	}
	if !fitsScale(line.DiscountPct, MoneyScale) {
		return NewInvalidLineItemError(index, fmt.Sprintf("discount allows at most %d decimal places", MoneyScale))
	}
	return nil
}

// fitsScale reports whether d is stored without rounding at the given scale
func fitsScale(d decimal.Decimal, scale int32) bool {
	return d.Equal(d.Round(scale))
}
