package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSeriesRepository implements invoicing.SeriesRepository using GORM
type GormSeriesRepository struct {
	db *gorm.DB
}

// NewGormSeriesRepository creates a new GormSeriesRepository
func NewGormSeriesRepository(db *gorm.DB) *GormSeriesRepository {
	return &GormSeriesRepository{db: db}
}

// FindByID finds an active series without locking
func (r *GormSeriesRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Series, error) {
	return r.find(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds an active series with SELECT ... FOR UPDATE.
// Concurrent invoices on the same series queue here until the holder commits.
func (r *GormSeriesRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Series, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormSeriesRepository) find(query *gorm.DB, tenantID, id uuid.UUID) (*invoicing.Series, error) {
	var m models.SeriesModel
	if err := query.Scopes(tenantScope(tenantID)).
		Where("id = ? AND active = ?", id, true).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoicing.NewSeriesNotFoundError(id)
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// SaveCounter persists the series' current correlative. The counter only
// moves forward; an update that would not advance it is a conflict.
func (r *GormSeriesRepository) SaveCounter(ctx context.Context, s *invoicing.Series) error {
	result := r.db.WithContext(ctx).
		Model(&models.SeriesModel{}).
		Where("tenant_id = ? AND id = ? AND current_number < ?", s.TenantID, s.ID, s.Current).
		Updates(map[string]any{
			"current_number": s.Current,
			"updated_at":     s.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ invoicing.SeriesRepository = (*GormSeriesRepository)(nil)
