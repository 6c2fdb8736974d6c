package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// (series_id, number) is unique, so a number can never be issued twice.
type InvoiceModel struct {
	TenantAggregateModel
	Number        string                  `gorm:"type:varchar(40);not null;uniqueIndex:idx_invoice_series_number,priority:2"`
	SeriesID      uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_series_number,priority:1"`
	BranchID      uuid.UUID               `gorm:"type:uuid;not null"`
	EmployeeID    uuid.UUID               `gorm:"type:uuid;not null"`
	ClientID      uuid.UUID               `gorm:"type:uuid;not null;index"`
	IssuedAt      time.Time               `gorm:"not null;index"`
	Subtotal      decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	DiscountTotal decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	TaxRate       decimal.Decimal         `gorm:"type:decimal(6,4);not null"`
	TaxTotal      decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	GrandTotal    decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	Status        invoicing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	VoidReason    string                  `gorm:"type:varchar(500)"`
	VoidedAt      *time.Time
	VoidedBy      *uuid.UUID `gorm:"type:uuid"`
	Notes         string     `gorm:"type:text"`
	// Associations
	Lines    []InvoiceLineModel       `gorm:"foreignKey:InvoiceID;references:ID"`
	Payments []PaymentAllocationModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
// Lines and payments are only present when preloaded.
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Number:              m.Number,
		SeriesID:            m.SeriesID,
		BranchID:            m.BranchID,
		EmployeeID:          m.EmployeeID,
		ClientID:            m.ClientID,
		IssuedAt:            m.IssuedAt,
		Subtotal:            m.Subtotal,
		DiscountTotal:       m.DiscountTotal,
		TaxRate:             m.TaxRate,
		TaxTotal:            m.TaxTotal,
		GrandTotal:          m.GrandTotal,
		Status:              m.Status,
		VoidReason:          m.VoidReason,
		VoidedAt:            m.VoidedAt,
		VoidedBy:            m.VoidedBy,
		Notes:               m.Notes,
		Lines:               make([]invoicing.InvoiceLine, len(m.Lines)),
		Payments:            make([]invoicing.PaymentAllocation, len(m.Payments)),
	}
	for i := range m.Lines {
		inv.Lines[i] = m.Lines[i].ToDomain()
	}
	for i := range m.Payments {
		inv.Payments[i] = m.Payments[i].ToDomain()
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model, including lines and
// payments, from a domain Invoice.
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Number:        inv.Number,
		SeriesID:      inv.SeriesID,
		BranchID:      inv.BranchID,
		EmployeeID:    inv.EmployeeID,
		ClientID:      inv.ClientID,
		IssuedAt:      inv.IssuedAt,
		Subtotal:      inv.Subtotal,
		DiscountTotal: inv.DiscountTotal,
		TaxRate:       inv.TaxRate,
		TaxTotal:      inv.TaxTotal,
		GrandTotal:    inv.GrandTotal,
		Status:        inv.Status,
		VoidReason:    inv.VoidReason,
		VoidedAt:      inv.VoidedAt,
		VoidedBy:      inv.VoidedBy,
		Notes:         inv.Notes,
		Lines:         make([]InvoiceLineModel, len(inv.Lines)),
		Payments:      make([]PaymentAllocationModel, len(inv.Payments)),
	}
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	for i := range inv.Lines {
		m.Lines[i] = InvoiceLineModelFromDomain(inv.Lines[i])
	}
	for i := range inv.Payments {
		m.Payments[i] = PaymentAllocationModelFromDomain(inv.Payments[i])
	}
	return m
}

// InvoiceLineModel is the persistence model for an invoice line
type InvoiceLineModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo         int             `gorm:"not null"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode    string          `gorm:"type:varchar(50);not null"`
	ProductName    string          `gorm:"type:varchar(200);not null"`
	Unit           string          `gorm:"type:varchar(20)"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountPct    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LineSubtotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain InvoiceLine
func (m *InvoiceLineModel) ToDomain() invoicing.InvoiceLine {
	return invoicing.InvoiceLine{
		ID:             m.ID,
		InvoiceID:      m.InvoiceID,
		LineNo:         m.LineNo,
		ProductID:      m.ProductID,
		ProductCode:    m.ProductCode,
		ProductName:    m.ProductName,
		Unit:           m.Unit,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		DiscountPct:    m.DiscountPct,
		DiscountAmount: m.DiscountAmount,
		LineSubtotal:   m.LineSubtotal,
	}
}

// InvoiceLineModelFromDomain creates a persistence model from a domain InvoiceLine
func InvoiceLineModelFromDomain(l invoicing.InvoiceLine) InvoiceLineModel {
	return InvoiceLineModel{
		ID:             l.ID,
		InvoiceID:      l.InvoiceID,
		LineNo:         l.LineNo,
		ProductID:      l.ProductID,
		ProductCode:    l.ProductCode,
		ProductName:    l.ProductName,
		Unit:           l.Unit,
		Quantity:       l.Quantity,
		UnitPrice:      l.UnitPrice,
		DiscountPct:    l.DiscountPct,
		DiscountAmount: l.DiscountAmount,
		LineSubtotal:   l.LineSubtotal,
	}
}

// PaymentAllocationModel is the persistence model for a payment applied to an invoice
type PaymentAllocationModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentMethodID uuid.UUID       `gorm:"type:uuid;not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Reference       string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (PaymentAllocationModel) TableName() string {
	return "invoice_payments"
}

// ToDomain converts the persistence model to a domain PaymentAllocation
func (m *PaymentAllocationModel) ToDomain() invoicing.PaymentAllocation {
	return invoicing.PaymentAllocation{
		ID:              m.ID,
		InvoiceID:       m.InvoiceID,
		PaymentMethodID: m.PaymentMethodID,
		Amount:          m.Amount,
		Reference:       m.Reference,
	}
}

// PaymentAllocationModelFromDomain creates a persistence model from a domain PaymentAllocation
func PaymentAllocationModelFromDomain(p invoicing.PaymentAllocation) PaymentAllocationModel {
	return PaymentAllocationModel{
		ID:              p.ID,
		InvoiceID:       p.InvoiceID,
		PaymentMethodID: p.PaymentMethodID,
		Amount:          p.Amount,
		Reference:       p.Reference,
	}
}
