package invoicing

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// memoryStore is an in-memory invoicing store. Execute holds a mutex for the
// whole unit of work, standing in for row locks, and restores a snapshot
// when fn fails.
type memoryStore struct {
	mu       sync.Mutex
	series   map[uuid.UUID]invoicing.Series
	stock    map[uuid.UUID]invoicing.StockItem
	invoices map[uuid.UUID]invoicing.Invoice
	clients  map[uuid.UUID]bool

	failDecrement bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		series:   make(map[uuid.UUID]invoicing.Series),
		stock:    make(map[uuid.UUID]invoicing.StockItem),
		invoices: make(map[uuid.UUID]invoicing.Invoice),
		clients:  make(map[uuid.UUID]bool),
	}
}

func (s *memoryStore) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seriesSnap := make(map[uuid.UUID]invoicing.Series, len(s.series))
	for k, v := range s.series {
		seriesSnap[k] = v
	}
	stockSnap := make(map[uuid.UUID]invoicing.StockItem, len(s.stock))
	for k, v := range s.stock {
		stockSnap[k] = v
	}
	invoiceSnap := make(map[uuid.UUID]invoicing.Invoice, len(s.invoices))
	for k, v := range s.invoices {
		invoiceSnap[k] = v
	}

	if err := fn(memoryRepos{s}); err != nil {
		s.series, s.stock, s.invoices = seriesSnap, stockSnap, invoiceSnap
		return err
	}
	return nil
}

func (s *memoryStore) counter(id uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.series[id].Current
}

func (s *memoryStore) onHand(id uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[id].OnHand
}

func (s *memoryStore) invoiceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invoices)
}

// memoryRepos is used while memoryStore.mu is held
type memoryRepos struct{ s *memoryStore }

func (r memoryRepos) InvoiceRepo() invoicing.InvoiceRepository { return memoryInvoiceRepo(r) }
func (r memoryRepos) SeriesRepo() invoicing.SeriesRepository   { return memorySeriesRepo(r) }
func (r memoryRepos) StockRepo() invoicing.StockRepository     { return memoryStockRepo(r) }

type memoryInvoiceRepo struct{ s *memoryStore }

func (r memoryInvoiceRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	inv, ok := r.s.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return nil, invoicing.NewInvoiceNotFoundError(id)
	}
	return &inv, nil
}

func (r memoryInvoiceRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r memoryInvoiceRepo) FindAll(_ context.Context, tenantID uuid.UUID, _ invoicing.InvoiceFilter) ([]invoicing.Invoice, int64, error) {
	var out []invoicing.Invoice
	for _, inv := range r.s.invoices {
		if inv.TenantID == tenantID {
			out = append(out, inv)
		}
	}
	return out, int64(len(out)), nil
}

func (r memoryInvoiceRepo) Create(_ context.Context, invoice *invoicing.Invoice) error {
	for _, existing := range r.s.invoices {
		if existing.SeriesID == invoice.SeriesID && existing.Number == invoice.Number {
			return shared.NewConflictError("DUPLICATE_NUMBER", "duplicate invoice number")
		}
	}
	r.s.invoices[invoice.ID] = *invoice
	return nil
}

func (r memoryInvoiceRepo) SaveStatus(_ context.Context, invoice *invoicing.Invoice) error {
	r.s.invoices[invoice.ID] = *invoice
	return nil
}

type memorySeriesRepo struct{ s *memoryStore }

func (r memorySeriesRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*invoicing.Series, error) {
	series, ok := r.s.series[id]
	if !ok || series.TenantID != tenantID || !series.Active {
		return nil, invoicing.NewSeriesNotFoundError(id)
	}
	return &series, nil
}

func (r memorySeriesRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Series, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r memorySeriesRepo) SaveCounter(_ context.Context, series *invoicing.Series) error {
	r.s.series[series.ID] = *series
	return nil
}

type memoryStockRepo struct{ s *memoryStore }

func (r memoryStockRepo) FindByProductIDs(_ context.Context, _ uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]invoicing.StockItem, error) {
	out := make(map[uuid.UUID]invoicing.StockItem, len(ids))
	for _, id := range ids {
		if item, ok := r.s.stock[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (r memoryStockRepo) FindByProductIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]invoicing.StockItem, error) {
	return r.FindByProductIDs(ctx, tenantID, ids)
}

func (r memoryStockRepo) Decrement(_ context.Context, _, productID uuid.UUID, quantity decimal.Decimal) error {
	if r.s.failDecrement {
		return shared.NewInternalError("STORAGE_ERROR", "decrement failed")
	}
	item := r.s.stock[productID]
	if item.OnHand.LessThan(quantity) {
		return invoicing.NewInsufficientStockError([]uuid.UUID{productID})
	}
	item.OnHand = item.OnHand.Sub(quantity)
	r.s.stock[productID] = item
	return nil
}

// unlockedStockRepo reads stock outside of Execute
type unlockedStockRepo struct{ s *memoryStore }

func (r unlockedStockRepo) FindByProductIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]invoicing.StockItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return memoryStockRepo(r).FindByProductIDs(ctx, tenantID, ids)
}

func (r unlockedStockRepo) FindByProductIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]invoicing.StockItem, error) {
	return r.FindByProductIDs(ctx, tenantID, ids)
}

func (r unlockedStockRepo) Decrement(context.Context, uuid.UUID, uuid.UUID, decimal.Decimal) error {
	panic("stock must only be decremented inside a transaction")
}

type memoryClients struct{ s *memoryStore }

func (c memoryClients) Exists(_ context.Context, _, clientID uuid.UUID) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.clients[clientID], nil
}
