package invoicing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultPaymentTolerance is one minor currency unit
var DefaultPaymentTolerance = decimal.New(1, -MoneyScale)

// PaymentInput is a payment instrument submitted with an invoice
type PaymentInput struct {
	PaymentMethodID uuid.UUID
	Amount          decimal.Decimal
	Reference       string
}

// Reconcile checks that the payments cover grandTotal within tolerance and
// returns their sum. An empty list is accepted only for a zero total.
func Reconcile(grandTotal decimal.Decimal, payments []PaymentInput, tolerance decimal.Decimal) (decimal.Decimal, error) {
	if len(payments) == 0 && grandTotal.GreaterThan(decimal.Zero) {
		return decimal.Zero, shared.NewValidationError(CodePaymentRequired, "At least one payment is required")
	}

	sum := decimal.Zero
	for i, p := range payments {
		if p.Amount.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, shared.NewValidationError(CodeInvalidPaymentAmount,
				fmt.Sprintf("Payment %d: amount must be positive", i+1)).WithDetail("payment", i+1)
		}
		if !fitsScale(p.Amount, MoneyScale) {
			return decimal.Zero, shared.NewValidationError(CodeInvalidPaymentAmount,
				fmt.Sprintf("Payment %d: amount allows at most %d decimal places", i+1, MoneyScale)).WithDetail("payment", i+1)
		}
		sum = sum.Add(p.Amount)
	}

	if sum.Sub(grandTotal).Abs().GreaterThan(tolerance) {
		return sum, NewPaymentMismatchError(grandTotal, sum)
	}
	return sum, nil
}
