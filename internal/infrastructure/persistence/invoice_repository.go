package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"issued_at":   true,
	"created_at":  true,
	"number":      true,
	"grand_total": true,
	"status":      true,
}

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice with its lines and payments
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	return r.find(ctx, r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds an invoice and holds its row lock until the
// surrounding transaction ends
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	return r.find(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormInvoiceRepository) find(ctx context.Context, query *gorm.DB, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	var m models.InvoiceModel
	if err := query.Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoicing.NewInvoiceNotFoundError(id)
		}
		return nil, err
	}

	if err := r.db.WithContext(ctx).Where("invoice_id = ?", m.ID).Order("line_no").Find(&m.Lines).Error; err != nil {
		return nil, fmt.Errorf("load invoice lines: %w", err)
	}
	if err := r.db.WithContext(ctx).Where("invoice_id = ?", m.ID).Find(&m.Payments).Error; err != nil {
		return nil, fmt.Errorf("load invoice payments: %w", err)
	}
	return m.ToDomain(), nil
}

// FindAll lists invoice headers matching the filter; lines and payments are not loaded
func (r *GormInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) ([]invoicing.Invoice, int64, error) {
	f := filter.Filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Scopes(tenantScope(tenantID))

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.SeriesID != nil {
		query = query.Where("series_id = ?", *filter.SeriesID)
	}
	if filter.From != nil {
		query = query.Where("issued_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("issued_at <= ?", *filter.To)
	}

	// Session makes the filtered query safe to reuse for count and page
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(f.OrderBy, InvoiceSortFields, "issued_at")
	var rows []models.InvoiceModel
	if err := query.
		Order(orderBy + " " + ValidateSortOrder(f.OrderDir)).
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]invoicing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, total, nil
}

// Create inserts a new invoice with its lines and payments. A duplicate
// series number is reported as a conflict.
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *invoicing.Invoice) error {
	m := models.InvoiceModelFromDomain(inv)
	db := r.db.WithContext(ctx)

	if err := db.Omit(clause.Associations).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.NewConflictError("DUPLICATE_INVOICE_NUMBER",
				fmt.Sprintf("Invoice number %s already exists in this series", inv.Number)).
				WithDetail("number", inv.Number)
		}
		return err
	}
	if len(m.Lines) > 0 {
		if err := db.Create(&m.Lines).Error; err != nil {
			return fmt.Errorf("insert invoice lines: %w", err)
		}
	}
	if len(m.Payments) > 0 {
		if err := db.Create(&m.Payments).Error; err != nil {
			return fmt.Errorf("insert invoice payments: %w", err)
		}
	}
	return nil
}

// SaveStatus persists the void fields. The update only applies when the
// stored version is the one the invoice was loaded with.
func (r *GormInvoiceRepository) SaveStatus(ctx context.Context, inv *invoicing.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", inv.TenantID, inv.ID, inv.Version-1).
		Updates(map[string]any{
			"status":      inv.Status,
			"void_reason": inv.VoidReason,
			"voided_at":   inv.VoidedAt,
			"voided_by":   inv.VoidedBy,
			"version":     inv.Version,
			"updated_at":  inv.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
