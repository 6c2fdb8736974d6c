package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate and event type names
const (
	AggregateTypeInvoice = "Invoice"

	EventTypeInvoiceCreated = "InvoiceCreated"
	EventTypeInvoiceVoided  = "InvoiceVoided"
)

// InvoiceCreatedEvent is raised when an invoice is committed
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	SeriesID   uuid.UUID       `json:"series_id"`
	ClientID   uuid.UUID       `json:"client_id"`
	EmployeeID uuid.UUID       `json:"employee_id"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	LineCount  int             `json:"line_count"`
}

// NewInvoiceCreatedEvent creates an InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID, inv.TenantID),
		Number:          inv.Number,
		SeriesID:        inv.SeriesID,
		ClientID:        inv.ClientID,
		EmployeeID:      inv.EmployeeID,
		GrandTotal:      inv.GrandTotal,
		LineCount:       len(inv.Lines),
	}
}

// InvoiceVoidedEvent is raised when an invoice is voided
type InvoiceVoidedEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	Reason     string          `json:"reason"`
	VoidedAt   time.Time       `json:"voided_at"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// NewInvoiceVoidedEvent creates an InvoiceVoidedEvent
func NewInvoiceVoidedEvent(inv *Invoice) *InvoiceVoidedEvent {
	e := &InvoiceVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceVoided, AggregateTypeInvoice, inv.ID, inv.TenantID),
		Number:          inv.Number,
		Reason:          inv.VoidReason,
		GrandTotal:      inv.GrandTotal,
	}
	if inv.VoidedAt != nil {
		e.VoidedAt = *inv.VoidedAt
	}
	return e
}
