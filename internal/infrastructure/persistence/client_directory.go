package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormClientDirectory implements invoicing.ClientDirectory over the clients table
type GormClientDirectory struct {
	db *gorm.DB
}

// NewGormClientDirectory creates a new GormClientDirectory
func NewGormClientDirectory(db *gorm.DB) *GormClientDirectory {
	return &GormClientDirectory{db: db}
}

// Exists reports whether an active client exists for the tenant
func (d *GormClientDirectory) Exists(ctx context.Context, tenantID, clientID uuid.UUID) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).
		Model(&models.ClientModel{}).
		Scopes(tenantScope(tenantID)).
		Where("id = ? AND active = ?", clientID, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ invoicing.ClientDirectory = (*GormClientDirectory)(nil)
