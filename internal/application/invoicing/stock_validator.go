package invoicing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// StockValidator checks requested quantities against stock on hand.
// It never mutates stock.
type StockValidator struct {
	stockRepo invoicing.StockRepository
}

// NewStockValidator creates a new StockValidator
func NewStockValidator(stockRepo invoicing.StockRepository) *StockValidator {
	return &StockValidator{stockRepo: stockRepo}
}

// Validate returns a result for every requested line. Unknown products are
// reported on their line instead of failing the batch.
func (v *StockValidator) Validate(ctx context.Context, tenantID uuid.UUID, lines []StockLineInput) ([]StockCheckResult, error) {
	requests := toStockRequests(lines)
	if err := validateQuantities(requests); err != nil {
		return nil, err
	}

	checks, _, err := v.check(ctx, v.stockRepo, tenantID, requests, false)
	if err != nil {
		return nil, err
	}
	return toStockCheckResults(checks), nil
}

// check loads stock for the requested products, optionally under row locks,
// and compares. The loaded items are returned for snapshotting.
func (v *StockValidator) check(
	ctx context.Context,
	repo invoicing.StockRepository,
	tenantID uuid.UUID,
	requests []invoicing.StockRequest,
	lock bool,
) ([]invoicing.StockCheck, map[uuid.UUID]invoicing.StockItem, error) {
	ids := invoicing.DistinctProductIDs(requests)

	var (
		items map[uuid.UUID]invoicing.StockItem
		err   error
	)
	if lock {
		items, err = repo.FindByProductIDsForUpdate(ctx, tenantID, ids)
	} else {
		items, err = repo.FindByProductIDs(ctx, tenantID, ids)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load stock: %w", err)
	}

	return invoicing.CheckStock(requests, items), items, nil
}

func validateQuantities(requests []invoicing.StockRequest) error {
	for i, r := range requests {
		if r.ProductID == uuid.Nil {
			return invoicing.NewInvalidLineItemError(i, "product is required")
		}
		if r.Quantity.LessThanOrEqual(decimal.Zero) {
			return invoicing.NewInvalidLineItemError(i, "quantity must be positive")
		}
	}
	return nil
}
