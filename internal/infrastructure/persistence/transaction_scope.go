package persistence

import (
	"context"

	appinv "github.com/retailpos/backend/internal/application/invoicing"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultTxAttempts is how many times a transaction runs when it keeps
// failing with a retryable error
const DefaultTxAttempts = 2

// GormTransactionScope implements TransactionScope using GORM transactions.
// A transaction that fails with a serialization failure, deadlock or lock
// timeout is rolled back and run again from the start.
type GormTransactionScope struct {
	db          *gorm.DB
	maxAttempts int
	logger      *zap.Logger
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, logger *zap.Logger) *GormTransactionScope {
	return &GormTransactionScope{db: db, maxAttempts: DefaultTxAttempts, logger: logger}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
// If fn succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	for attempt := 1; ; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormTransactionalRepositories{tx: tx})
		})
		if err == nil || attempt >= s.maxAttempts || !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
		s.logger.Warn("retrying transaction after transient failure",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// InvoiceRepo returns the invoice repository scoped to the current transaction
func (r *gormTransactionalRepositories) InvoiceRepo() invoicing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// SeriesRepo returns the series repository scoped to the current transaction
func (r *gormTransactionalRepositories) SeriesRepo() invoicing.SeriesRepository {
	return NewGormSeriesRepository(r.tx)
}

// StockRepo returns the stock repository scoped to the current transaction
func (r *gormTransactionalRepositories) StockRepo() invoicing.StockRepository {
	return NewGormStockRepository(r.tx)
}

var (
	_ appinv.TransactionScope          = (*GormTransactionScope)(nil)
	_ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
