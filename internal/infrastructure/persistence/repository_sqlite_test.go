package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appinv "github.com/retailpos/backend/internal/application/invoicing"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type sqliteFixture struct {
	db       *gorm.DB
	tenantID uuid.UUID
	seriesID uuid.UUID
	clientID uuid.UUID
	productA uuid.UUID
	productB uuid.UUID
}

func newSQLiteFixture(t *testing.T) *sqliteFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.SeriesModel{},
		&models.ProductModel{},
		&models.ClientModel{},
		&models.InvoiceModel{},
		&models.InvoiceLineModel{},
		&models.PaymentAllocationModel{},
	))

	f := &sqliteFixture{
		db:       db,
		tenantID: uuid.New(),
		seriesID: uuid.New(),
		clientID: uuid.New(),
		productA: uuid.New(),
		productB: uuid.New(),
	}
	now := time.Now().UTC()
	base := func(id uuid.UUID) models.BaseModel {
		return models.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now}
	}

	require.NoError(t, db.Create(&models.SeriesModel{
		BaseModel: base(f.seriesID), TenantID: f.tenantID, BranchID: uuid.New(),
		Name: "Caja 1", Prefix: "F", Current: 5, Active: true,
	}).Error)
	require.NoError(t, db.Create(&models.ClientModel{
		BaseModel: base(f.clientID), TenantID: f.tenantID, Name: "Consumidor Final", Active: true,
	}).Error)
	require.NoError(t, db.Create(&[]models.ProductModel{
		{BaseModel: base(f.productA), TenantID: f.tenantID, Code: "P-001", Name: "Arroz", Unit: "KG", OnHand: decimal.NewFromInt(10), Active: true},
		{BaseModel: base(f.productB), TenantID: f.tenantID, Code: "P-002", Name: "Azucar", Unit: "KG", OnHand: decimal.NewFromInt(4), Active: true},
	}).Error)
	return f
}

func (f *sqliteFixture) builder() *appinv.InvoiceBuilder {
	return appinv.NewInvoiceBuilder(
		appinv.DefaultBuilderConfig(),
		appinv.NewStockValidator(NewGormStockRepository(f.db)),
		NewGormClientDirectory(f.db),
		NewGormTransactionScope(f.db, zap.NewNop()),
		zap.NewNop(),
	)
}

func (f *sqliteFixture) onHand(t *testing.T, productID uuid.UUID) decimal.Decimal {
	t.Helper()
	var p models.ProductModel
	require.NoError(t, f.db.First(&p, "id = ?", productID).Error)
	return p.OnHand
}

func (f *sqliteFixture) counter(t *testing.T) int64 {
	t.Helper()
	var s models.SeriesModel
	require.NoError(t, f.db.First(&s, "id = ?", f.seriesID).Error)
	return s.Current
}

func (f *sqliteFixture) invoiceRequest(qtyA string, amount string) appinv.CreateInvoiceInput {
	return appinv.CreateInvoiceInput{
		ClientID:   f.clientID,
		SeriesID:   f.seriesID,
		EmployeeID: uuid.New(),
		Lines: []appinv.InvoiceLineInput{
			{ProductID: f.productA, Quantity: decimal.RequireFromString(qtyA), UnitPrice: decimal.RequireFromString("100.00"), DiscountPct: decimal.RequireFromString("10")},
		},
		Payments: []appinv.PaymentInput{
			{PaymentMethodID: uuid.New(), Amount: decimal.RequireFromString(amount)},
		},
	}
}

func TestSQLite_BuildCommitsInvoice(t *testing.T) {
	f := newSQLiteFixture(t)
	ctx := context.Background()

	resp, err := f.builder().Build(ctx, f.tenantID, f.invoiceRequest("2", "201.60"))
	require.NoError(t, err)

	assert.Equal(t, "F00000006", resp.Number)
	assert.True(t, resp.GrandTotal.Equal(decimal.RequireFromString("201.60")))
	assert.Equal(t, int64(6), f.counter(t))
	assert.True(t, f.onHand(t, f.productA).Equal(decimal.NewFromInt(8)))

	stored, err := NewGormInvoiceRepository(f.db).FindByID(ctx, f.tenantID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicing.InvoiceStatusActive, stored.Status)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, "P-001", stored.Lines[0].ProductCode)
	assert.True(t, stored.Lines[0].LineSubtotal.Equal(decimal.RequireFromString("180")))
	require.Len(t, stored.Payments, 1)
	assert.True(t, stored.Payments[0].Amount.Equal(decimal.RequireFromString("201.60")))
	assert.NoError(t, stored.CheckTotals())
}

func TestSQLite_AbortLeavesNoTrace(t *testing.T) {
	f := newSQLiteFixture(t)
	ctx := context.Background()

	t.Run("payment mismatch", func(t *testing.T) {
		_, err := f.builder().Build(ctx, f.tenantID, f.invoiceRequest("2", "200.00"))
		var mismatch *invoicing.PaymentMismatchError
		require.ErrorAs(t, err, &mismatch)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		_, err := f.builder().Build(ctx, f.tenantID, f.invoiceRequest("11", "1108.80"))
		assert.True(t, shared.HasCode(err, invoicing.CodeInsufficientStock))
	})

	var count int64
	require.NoError(t, f.db.Model(&models.InvoiceModel{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, int64(5), f.counter(t))
	assert.True(t, f.onHand(t, f.productA).Equal(decimal.NewFromInt(10)))
}

func TestSQLite_TransactionRollback(t *testing.T) {
	f := newSQLiteFixture(t)
	ctx := context.Background()
	scope := NewGormTransactionScope(f.db, zap.NewNop())
	boom := errors.New("boom")

	err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		series, err := repos.SeriesRepo().FindByIDForUpdate(ctx, f.tenantID, f.seriesID)
		if err != nil {
			return err
		}
		series.Next()
		if err := repos.SeriesRepo().SaveCounter(ctx, series); err != nil {
			return err
		}
		if err := repos.StockRepo().Decrement(ctx, f.tenantID, f.productA, decimal.NewFromInt(3)); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(5), f.counter(t))
	assert.True(t, f.onHand(t, f.productA).Equal(decimal.NewFromInt(10)))
}

func TestSQLite_StockRepository(t *testing.T) {
	f := newSQLiteFixture(t)
	ctx := context.Background()
	repo := NewGormStockRepository(f.db)

	t.Run("unknown and foreign-tenant products are absent", func(t *testing.T) {
		unknown := uuid.New()
		items, err := repo.FindByProductIDsForUpdate(ctx, f.tenantID, []uuid.UUID{f.productA, unknown})
		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, "Arroz", items[f.productA].Name)

		items, err = repo.FindByProductIDs(ctx, uuid.New(), []uuid.UUID{f.productA})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("empty id list", func(t *testing.T) {
		items, err := repo.FindByProductIDs(ctx, f.tenantID, nil)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("decrement refuses to go negative", func(t *testing.T) {
		err := repo.Decrement(ctx, f.tenantID, f.productB, decimal.NewFromInt(5))
		assert.True(t, shared.HasCode(err, invoicing.CodeInsufficientStock))
		assert.True(t, f.onHand(t, f.productB).Equal(decimal.NewFromInt(4)))

		require.NoError(t, repo.Decrement(ctx, f.tenantID, f.productB, decimal.NewFromInt(4)))
		assert.True(t, f.onHand(t, f.productB).IsZero())
	})
}

func TestSQLite_SeriesRepository(t *testing.T) {
	f := newSQLiteFixture(t)
	ctx := context.Background()
	repo := NewGormSeriesRepository(f.db)

	series, err := repo.FindByID(ctx, f.tenantID, f.seriesID)
	require.NoError(t, err)
	assert.Equal(t, "F00000006", series.Peek())

	t.Run("counter never moves backwards", func(t *testing.T) {
		stale := *series
		stale.Current = 5
		assert.ErrorIs(t, repo.SaveCounter(ctx, &stale), shared.ErrConcurrencyConflict)
	})

	t.Run("inactive series is not found", func(t *testing.T) {
		require.NoError(t, f.db.Model(&models.SeriesModel{}).Where("id = ?", f.seriesID).Update("active", false).Error)
		_, err := repo.FindByIDForUpdate(ctx, f.tenantID, f.seriesID)
		assert.True(t, shared.HasCode(err, invoicing.CodeSeriesNotFound))
	})
}

func TestSQLite_ClientDirectory(t *testing.T) {
	f := newSQLiteFixture(t)
	ctx := context.Background()
	dir := NewGormClientDirectory(f.db)

	ok, err := dir.Exists(ctx, f.tenantID, f.clientID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.Exists(ctx, uuid.New(), f.clientID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_VoidAndList(t *testing.T) {
	f := newSQLiteFixture(t)
	ctx := context.Background()
	builder := f.builder()

	first, err := builder.Build(ctx, f.tenantID, f.invoiceRequest("1", "100.80"))
	require.NoError(t, err)
	second, err := builder.Build(ctx, f.tenantID, f.invoiceRequest("1", "100.80"))
	require.NoError(t, err)
	assert.Equal(t, "F00000007", second.Number)

	repo := NewGormInvoiceRepository(f.db)
	svc := appinv.NewInvoiceService(repo, NewGormTransactionScope(f.db, zap.NewNop()), zap.NewNop())

	voided, err := svc.Void(ctx, f.tenantID, first.ID, appinv.VoidInvoiceInput{Reason: "Error de digitacion", EmployeeID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, "VOIDED", voided.Status)

	_, err = svc.Void(ctx, f.tenantID, first.ID, appinv.VoidInvoiceInput{Reason: "again"})
	assert.ErrorIs(t, err, invoicing.ErrAlreadyVoided)

	t.Run("void keeps stock and numbering", func(t *testing.T) {
		assert.True(t, f.onHand(t, f.productA).Equal(decimal.NewFromInt(8)))
		assert.Equal(t, int64(7), f.counter(t))
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		inv, err := repo.FindByID(ctx, f.tenantID, second.ID)
		require.NoError(t, err)
		require.NoError(t, inv.Void("first", uuid.New()))
		require.NoError(t, repo.SaveStatus(ctx, inv))
		assert.ErrorIs(t, repo.SaveStatus(ctx, inv), shared.ErrConcurrencyConflict)
	})

	t.Run("list filters by status", func(t *testing.T) {
		filter := invoicing.InvoiceFilter{Filter: shared.Filter{Page: 1, PageSize: 1, OrderBy: "number", OrderDir: "asc"}}
		items, total, err := repo.FindAll(ctx, f.tenantID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, items, 1)
		assert.Equal(t, "F00000006", items[0].Number)

		filter.Status = invoicing.InvoiceStatusActive
		_, total, err = repo.FindAll(ctx, f.tenantID, filter)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		_, err := repo.FindByID(ctx, f.tenantID, uuid.New())
		assert.True(t, shared.HasCode(err, invoicing.CodeInvoiceNotFound))
	})
}

func TestSQLite_DuplicateNumberIsConflict(t *testing.T) {
	f := newSQLiteFixture(t)
	ctx := context.Background()

	resp, err := f.builder().Build(ctx, f.tenantID, f.invoiceRequest("1", "100.80"))
	require.NoError(t, err)

	repo := NewGormInvoiceRepository(f.db)
	inv, err := repo.FindByID(ctx, f.tenantID, resp.ID)
	require.NoError(t, err)
	inv.ID = uuid.New()
	inv.Lines = nil
	inv.Payments = nil

	err = repo.Create(ctx, inv)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}
