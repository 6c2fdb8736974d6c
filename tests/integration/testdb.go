//go:build integration

// Package integration runs the invoicing stack against a real PostgreSQL
// started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/migration"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"github.com/retailpos/backend/migrations"
	"github.com/retailpos/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// TestDB is a migrated PostgreSQL database owned by one test
type TestDB struct {
	DB  *gorm.DB
	DSN string
	t   *testing.T
}

// NewTestDB starts a PostgreSQL container, applies the embedded migrations
// and connects GORM with the production settings.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("invoicing_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	migrate(t, dsn)

	db, err := persistence.Open(gormpostgres.Open(dsn), &config.DatabaseConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 1,
	}, gormlogger.Discard)
	require.NoError(t, err, "Failed to connect to database")
	t.Cleanup(func() { _ = db.Close() })

	return &TestDB{DB: db.DB, DSN: dsn, t: t}
}

// migrate runs the embedded migrations over their own connection, which the
// migrator closes.
func migrate(t *testing.T, dsn string) {
	t.Helper()

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	defer func() { _ = m.Close() }()
	require.NoError(t, m.Up(), "Failed to apply migrations")
}

func base(id uuid.UUID) models.BaseModel {
	now := time.Now().UTC()
	return models.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now}
}

// SeedSeries inserts an active series for the fixture tenant and branch
// whose counter stands at current.
func (tdb *TestDB) SeedSeries(prefix string, current int64) uuid.UUID {
	tdb.t.Helper()
	id := uuid.New()
	require.NoError(tdb.t, tdb.DB.Create(&models.SeriesModel{
		BaseModel: base(id),
		TenantID:  testutil.TestTenantID(),
		BranchID:  testutil.TestBranchID(),
		Name:      "Caja " + prefix,
		Prefix:    prefix,
		Current:   current,
		Active:    true,
	}).Error)
	return id
}

// SeedProduct inserts an active product with onHand units in stock.
func (tdb *TestDB) SeedProduct(code, name, onHand string) uuid.UUID {
	tdb.t.Helper()
	id := uuid.New()
	require.NoError(tdb.t, tdb.DB.Create(&models.ProductModel{
		BaseModel: base(id),
		TenantID:  testutil.TestTenantID(),
		Code:      code,
		Name:      name,
		Unit:      "UND",
		OnHand:    decimal.RequireFromString(onHand),
		Active:    true,
	}).Error)
	return id
}

// SeedClient inserts an active client.
func (tdb *TestDB) SeedClient(name string) uuid.UUID {
	tdb.t.Helper()
	id := uuid.New()
	require.NoError(tdb.t, tdb.DB.Create(&models.ClientModel{
		BaseModel: base(id),
		TenantID:  testutil.TestTenantID(),
		Name:      name,
		Active:    true,
	}).Error)
	return id
}

// SeriesCounter reads the stored counter of a series.
func (tdb *TestDB) SeriesCounter(id uuid.UUID) int64 {
	tdb.t.Helper()
	var s models.SeriesModel
	require.NoError(tdb.t, tdb.DB.First(&s, "id = ?", id).Error)
	return s.Current
}

// OnHand reads the stored quantity of a product.
func (tdb *TestDB) OnHand(id uuid.UUID) decimal.Decimal {
	tdb.t.Helper()
	var p models.ProductModel
	require.NoError(tdb.t, tdb.DB.First(&p, "id = ?", id).Error)
	return p.OnHand
}

// InvoiceCount counts the invoices of a series.
func (tdb *TestDB) InvoiceCount(seriesID uuid.UUID) int64 {
	tdb.t.Helper()
	var n int64
	require.NoError(tdb.t, tdb.DB.Model(&models.InvoiceModel{}).Where("series_id = ?", seriesID).Count(&n).Error)
	return n
}
