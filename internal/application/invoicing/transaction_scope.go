package invoicing

import (
	"context"

	"github.com/retailpos/backend/internal/domain/invoicing"
)

// TransactionScope provides transactional access to invoicing repositories.
// All repository operations performed inside Execute are committed or
// rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to one transaction.
//
// The series counter, the invoice rows and the stock decrements of a single
// invoice are always written through the same TransactionalRepositories, so
// an aborted invoice never consumes a number or stock.
type TransactionalRepositories interface {
	InvoiceRepo() invoicing.InvoiceRepository
	SeriesRepo() invoicing.SeriesRepository
	StockRepo() invoicing.StockRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Useful in tests.
type NoOpTransactionScope struct {
	invoiceRepo invoicing.InvoiceRepository
	seriesRepo  invoicing.SeriesRepository
	stockRepo   invoicing.StockRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	invoiceRepo invoicing.InvoiceRepository,
	seriesRepo invoicing.SeriesRepository,
	stockRepo invoicing.StockRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo: invoiceRepo,
		seriesRepo:  seriesRepo,
		stockRepo:   stockRepo,
	}
}

// Execute runs fn without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) InvoiceRepo() invoicing.InvoiceRepository { return s.invoiceRepo }
func (s *NoOpTransactionScope) SeriesRepo() invoicing.SeriesRepository   { return s.seriesRepo }
func (s *NoOpTransactionScope) StockRepo() invoicing.StockRepository     { return s.stockRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
