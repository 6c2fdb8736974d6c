package models

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// SeriesModel is the persistence model for an invoice series counter
type SeriesModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	BranchID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(100);not null"`
	Prefix   string    `gorm:"type:varchar(10);not null"`
	Current  int64     `gorm:"column:current_number;not null;default:0"`
	Active   bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (SeriesModel) TableName() string {
	return "invoice_series"
}

// ToDomain converts the persistence model to a domain Series
func (m *SeriesModel) ToDomain() *invoicing.Series {
	return &invoicing.Series{
		ID:        m.ID,
		TenantID:  m.TenantID,
		BranchID:  m.BranchID,
		Name:      m.Name,
		Prefix:    m.Prefix,
		Current:   m.Current,
		Active:    m.Active,
		UpdatedAt: m.UpdatedAt,
	}
}

// ProductModel is the catalog row read by invoicing: snapshot fields and
// the quantity on hand.
type ProductModel struct {
	BaseModel
	TenantID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_tenant_code,priority:1"`
	Code     string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_tenant_code,priority:2"`
	Name     string          `gorm:"type:varchar(200);not null"`
	Unit     string          `gorm:"type:varchar(20);not null;default:'UND'"`
	OnHand   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Active   bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToStockItem converts the persistence model to a domain StockItem
func (m *ProductModel) ToStockItem() invoicing.StockItem {
	return invoicing.StockItem{
		ProductID: m.ID,
		Code:      m.Code,
		Name:      m.Name,
		Unit:      m.Unit,
		OnHand:    m.OnHand,
	}
}

// ClientModel is the minimal client row needed to validate invoice clients
type ClientModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(200);not null"`
	TaxID    string    `gorm:"type:varchar(20)"`
	Active   bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}
