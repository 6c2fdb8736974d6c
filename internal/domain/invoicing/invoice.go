package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an issued invoice
type InvoiceStatus string

const (
	InvoiceStatusActive InvoiceStatus = "ACTIVE"
	InvoiceStatusVoided InvoiceStatus = "VOIDED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusActive || s == InvoiceStatusVoided
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// InvoiceLine is a priced product line. Product fields are a snapshot taken
// at sale time.
type InvoiceLine struct {
	ID             uuid.UUID
	InvoiceID      uuid.UUID
	LineNo         int
	ProductID      uuid.UUID
	ProductCode    string
	ProductName    string
	Unit           string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountPct    decimal.Decimal
	DiscountAmount decimal.Decimal
	LineSubtotal   decimal.Decimal
}

// PaymentAllocation is one payment instrument applied to an invoice
type PaymentAllocation struct {
	ID              uuid.UUID
	InvoiceID       uuid.UUID
	PaymentMethodID uuid.UUID
	Amount          decimal.Decimal
	Reference       string
}

// Invoice is the invoice aggregate root
type Invoice struct {
	shared.TenantAggregateRoot
	Number        string
	SeriesID      uuid.UUID
	BranchID      uuid.UUID
	EmployeeID    uuid.UUID
	ClientID      uuid.UUID
	IssuedAt      time.Time
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxRate       decimal.Decimal
	TaxTotal      decimal.Decimal
	GrandTotal    decimal.Decimal
	Status        InvoiceStatus
	VoidReason    string
	VoidedAt      *time.Time
	VoidedBy      *uuid.UUID
	Notes         string
	Lines         []InvoiceLine
	Payments      []PaymentAllocation
}

// IssueParams carries everything needed to issue an invoice
type IssueParams struct {
	TenantID   uuid.UUID
	Number     string
	Series     *Series
	EmployeeID uuid.UUID
	ClientID   uuid.UUID
	Pricing    *PricingResult
	Stock      map[uuid.UUID]StockItem
	Payments   []PaymentInput
	Notes      string
}

// IssueInvoice builds an active invoice from priced lines and reconciled
// payments. Totals come only from the pricing result.
func IssueInvoice(p IssueParams) (*Invoice, error) {
	if p.Number == "" {
		return nil, shared.NewValidationError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if p.Series == nil {
		return nil, shared.NewValidationError("INVALID_SERIES", "Invoice series is required")
	}
	if p.Pricing == nil || len(p.Pricing.Lines) == 0 {
		return nil, ErrEmptyInvoice
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.TenantID),
		Number:              p.Number,
		SeriesID:            p.Series.ID,
		BranchID:            p.Series.BranchID,
		EmployeeID:          p.EmployeeID,
		ClientID:            p.ClientID,
		Subtotal:            p.Pricing.Subtotal,
		DiscountTotal:       p.Pricing.DiscountTotal,
		TaxRate:             p.Pricing.TaxRate,
		TaxTotal:            p.Pricing.TaxTotal,
		GrandTotal:          p.Pricing.GrandTotal,
		Status:              InvoiceStatusActive,
		Notes:               strings.TrimSpace(p.Notes),
	}
	inv.IssuedAt = inv.CreatedAt

	for i, pl := range p.Pricing.Lines {
		item, ok := p.Stock[pl.ProductID]
		if !ok {
			return nil, NewProductNotFoundError(pl.ProductID)
		}
		inv.Lines = append(inv.Lines, InvoiceLine{
			ID:             uuid.New(),
			InvoiceID:      inv.ID,
			LineNo:         i + 1,
			ProductID:      pl.ProductID,
			ProductCode:    item.Code,
			ProductName:    item.Name,
			Unit:           item.Unit,
			Quantity:       pl.Quantity,
			UnitPrice:      pl.UnitPrice,
			DiscountPct:    pl.DiscountPct,
			DiscountAmount: pl.DiscountAmount,
			LineSubtotal:   pl.LineSubtotal,
		})
	}

	for _, pay := range p.Payments {
		inv.Payments = append(inv.Payments, PaymentAllocation{
			ID:              uuid.New(),
			InvoiceID:       inv.ID,
			PaymentMethodID: pay.PaymentMethodID,
			Amount:          pay.Amount,
			Reference:       strings.TrimSpace(pay.Reference),
		})
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// IsVoided reports whether the invoice has been voided
func (i *Invoice) IsVoided() bool {
	return i.Status == InvoiceStatusVoided
}

// Void marks the invoice as voided. It is terminal: stock is not restored
// and the number is not released.
func (i *Invoice) Void(reason string, by uuid.UUID) error {
	if i.IsVoided() {
		return ErrAlreadyVoided
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrVoidReasonRequired
	}

	now := time.Now()
	i.Status = InvoiceStatusVoided
	i.VoidReason = reason
	i.VoidedAt = &now
	if by != uuid.Nil {
		i.VoidedBy = &by
	}
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoiceVoidedEvent(i))
	return nil
}

// PaymentsTotal sums the payment allocations
func (i *Invoice) PaymentsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range i.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// CheckTotals verifies the header invariant against the lines
func (i *Invoice) CheckTotals() error {
	if !i.GrandTotal.Equal(i.Subtotal.Sub(i.DiscountTotal).Add(i.TaxTotal)) {
		return shared.NewInternalError("TOTALS_MISMATCH",
			fmt.Sprintf("Invoice %s totals are inconsistent", i.Number))
	}
	discount := decimal.Zero
	for _, l := range i.Lines {
		discount = discount.Add(l.DiscountAmount)
	}
	if !discount.Equal(i.DiscountTotal) {
		return shared.NewInternalError("TOTALS_MISMATCH",
			fmt.Sprintf("Invoice %s discount total does not match its lines", i.Number))
	}
	return nil
}
