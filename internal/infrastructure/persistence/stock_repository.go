package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockRepository implements invoicing.StockRepository over the products table
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// FindByProductIDs returns active products keyed by id
func (r *GormStockRepository) FindByProductIDs(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]invoicing.StockItem, error) {
	return r.find(r.db.WithContext(ctx), tenantID, productIDs)
}

// FindByProductIDsForUpdate locks the product rows in id order, so two
// invoices touching the same products always acquire locks in the same order.
func (r *GormStockRepository) FindByProductIDsForUpdate(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]invoicing.StockItem, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, productIDs)
}

func (r *GormStockRepository) find(query *gorm.DB, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]invoicing.StockItem, error) {
	items := make(map[uuid.UUID]invoicing.StockItem, len(productIDs))
	if len(productIDs) == 0 {
		return items, nil
	}

	var rows []models.ProductModel
	if err := query.Scopes(tenantScope(tenantID)).
		Where("id IN ? AND active = ?", productIDs, true).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		items[rows[i].ID] = rows[i].ToStockItem()
	}
	return items, nil
}

// Decrement subtracts quantity from the product's stock in a single
// conditional UPDATE; no row is touched when stock would go negative.
func (r *GormStockRepository) Decrement(ctx context.Context, tenantID, productID uuid.UUID, quantity decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tenant_id = ? AND id = ? AND on_hand >= ?", tenantID, productID, quantity).
		Updates(map[string]any{
			"on_hand":    gorm.Expr("on_hand - ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return invoicing.NewInsufficientStockError([]uuid.UUID{productID})
	}
	return nil
}

var _ invoicing.StockRepository = (*GormStockRepository)(nil)
