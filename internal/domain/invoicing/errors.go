package invoicing

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Error codes of the invoicing context
const (
	CodeInvalidLineItem      = "INVALID_LINE_ITEM"
	CodeEmptyInvoice         = "EMPTY_INVOICE"
	CodeProductNotFound      = "PRODUCT_NOT_FOUND"
	CodeClientNotFound       = "CLIENT_NOT_FOUND"
	CodeSeriesNotFound       = "SERIES_NOT_FOUND"
	CodeInvoiceNotFound      = "INVOICE_NOT_FOUND"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodePaymentMismatch      = "PAYMENT_MISMATCH"
	CodePaymentRequired      = "PAYMENT_REQUIRED"
	CodeInvalidPaymentAmount = "INVALID_PAYMENT_AMOUNT"
	CodeAlreadyVoided        = "ALREADY_VOIDED"
	CodeVoidReasonRequired   = "VOID_REASON_REQUIRED"
)

// ErrEmptyInvoice is returned when an invoice request has no lines
var ErrEmptyInvoice = shared.NewValidationError(CodeEmptyInvoice, "Invoice must contain at least one line")

// ErrAlreadyVoided is returned when voiding an invoice twice
var ErrAlreadyVoided = shared.NewConflictError(CodeAlreadyVoided, "Invoice is already voided")

// ErrVoidReasonRequired is returned when voiding without a reason
var ErrVoidReasonRequired = shared.NewValidationError(CodeVoidReasonRequired, "Void reason is required")

// NewInvalidLineItemError reports a line rejected by the pricing engine
func NewInvalidLineItemError(index int, reason string) *shared.DomainError {
	return shared.NewValidationError(CodeInvalidLineItem, fmt.Sprintf("Line %d: %s", index+1, reason)).
		WithDetail("line", index+1)
}

// NewProductNotFoundError reports a product missing from the catalog
func NewProductNotFoundError(productID uuid.UUID) *shared.DomainError {
	return shared.NewNotFoundError(CodeProductNotFound, fmt.Sprintf("Product %s not found", productID)).
		WithDetail("product_id", productID.String())
}

// NewClientNotFoundError reports a client missing from the directory
func NewClientNotFoundError(clientID uuid.UUID) *shared.DomainError {
	return shared.NewNotFoundError(CodeClientNotFound, fmt.Sprintf("Client %s not found", clientID))
}

// NewSeriesNotFoundError reports an unknown or inactive invoice series
func NewSeriesNotFoundError(seriesID uuid.UUID) *shared.DomainError {
	return shared.NewNotFoundError(CodeSeriesNotFound, fmt.Sprintf("Invoice series %s not found", seriesID))
}

// NewInvoiceNotFoundError reports an unknown invoice
func NewInvoiceNotFoundError(invoiceID uuid.UUID) *shared.DomainError {
	return shared.NewNotFoundError(CodeInvoiceNotFound, fmt.Sprintf("Invoice %s not found", invoiceID))
}

// NewInsufficientStockError reports the products that cannot cover the requested quantities
func NewInsufficientStockError(productIDs []uuid.UUID) *shared.DomainError {
	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}
	return shared.NewConflictError(CodeInsufficientStock,
		fmt.Sprintf("Insufficient stock for products: %s", strings.Join(ids, ", "))).
		WithDetail("product_ids", ids)
}

// PaymentMismatchError is returned when payments do not add up to the invoice total.
// It unwraps to a conflict DomainError.
type PaymentMismatchError struct {
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

// NewPaymentMismatchError creates a PaymentMismatchError
func NewPaymentMismatchError(expected, actual decimal.Decimal) *PaymentMismatchError {
	return &PaymentMismatchError{Expected: expected, Actual: actual}
}

func (e *PaymentMismatchError) Error() string {
	return fmt.Sprintf("Payment total %s does not match invoice total %s",
		e.Actual.StringFixed(2), e.Expected.StringFixed(2))
}

// Unwrap exposes the error as a DomainError
func (e *PaymentMismatchError) Unwrap() error {
	return shared.NewConflictError(CodePaymentMismatch, e.Error()).
		WithDetail("expected", e.Expected.StringFixed(2)).
		WithDetail("actual", e.Actual.StringFixed(2))
}
