package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceFilter narrows invoice list queries
type InvoiceFilter struct {
	shared.Filter
	Status   InvoiceStatus
	ClientID *uuid.UUID
	SeriesID *uuid.UUID
	From     *time.Time
	To       *time.Time
}

// InvoiceRepository persists invoices
type InvoiceRepository interface {
	// FindByID finds an invoice with lines and payments
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate finds an invoice and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindAll lists invoice headers matching the filter
	FindAll(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, int64, error)

	// Create inserts a new invoice with its lines and payments
	Create(ctx context.Context, invoice *Invoice) error

	// SaveStatus persists a status change, checking the version for optimistic locking
	SaveStatus(ctx context.Context, invoice *Invoice) error
}

// SeriesRepository persists invoice series counters
type SeriesRepository interface {
	// FindByID finds an active series without locking
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Series, error)

	// FindByIDForUpdate finds an active series and holds a row lock on it
	// until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Series, error)

	// SaveCounter persists the series' current correlative
	SaveCounter(ctx context.Context, series *Series) error
}

// StockRepository reads and decrements product stock
type StockRepository interface {
	// FindByProductIDs returns stock items keyed by product id; unknown ids are absent
	FindByProductIDs(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]StockItem, error)

	// FindByProductIDsForUpdate is FindByProductIDs holding row locks in id order
	FindByProductIDsForUpdate(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]StockItem, error)

	// Decrement subtracts quantity from the product's stock; it fails if stock would go negative
	Decrement(ctx context.Context, tenantID, productID uuid.UUID, quantity decimal.Decimal) error
}

// ClientDirectory checks client existence
type ClientDirectory interface {
	// Exists reports whether an active client exists for the tenant
	Exists(ctx context.Context, tenantID, clientID uuid.UUID) (bool, error)
}
