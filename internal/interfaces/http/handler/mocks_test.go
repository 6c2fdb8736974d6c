package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceRepository implements invoicing.InvoiceRepository for testing
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter invoicing.InvoiceFilter) ([]invoicing.Invoice, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]invoicing.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *invoicing.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) SaveStatus(ctx context.Context, invoice *invoicing.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

// MockSeriesRepository implements invoicing.SeriesRepository for testing
type MockSeriesRepository struct {
	mock.Mock
}

func (m *MockSeriesRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Series, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Series), args.Error(1)
}

func (m *MockSeriesRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Series, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Series), args.Error(1)
}

func (m *MockSeriesRepository) SaveCounter(ctx context.Context, series *invoicing.Series) error {
	return m.Called(ctx, series).Error(0)
}

// MockStockRepository implements invoicing.StockRepository for testing
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) FindByProductIDs(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]invoicing.StockItem, error) {
	args := m.Called(ctx, tenantID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]invoicing.StockItem), args.Error(1)
}

func (m *MockStockRepository) FindByProductIDsForUpdate(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]invoicing.StockItem, error) {
	args := m.Called(ctx, tenantID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]invoicing.StockItem), args.Error(1)
}

func (m *MockStockRepository) Decrement(ctx context.Context, tenantID, productID uuid.UUID, quantity decimal.Decimal) error {
	return m.Called(ctx, tenantID, productID, quantity).Error(0)
}

// MockClientDirectory implements invoicing.ClientDirectory for testing
type MockClientDirectory struct {
	mock.Mock
}

func (m *MockClientDirectory) Exists(ctx context.Context, tenantID, clientID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, clientID)
	return args.Bool(0), args.Error(1)
}
