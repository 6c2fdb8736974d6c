package invoicing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockItem is the catalog view of a product used when invoicing: the
// snapshot fields copied onto invoice lines and the quantity on hand.
type StockItem struct {
	ProductID uuid.UUID
	Code      string
	Name      string
	Unit      string
	OnHand    decimal.Decimal
}

// StockRequest is a requested quantity of a product
type StockRequest struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// StockCheck is the per-line outcome of a stock validation
type StockCheck struct {
	ProductID uuid.UUID
	Found     bool
	Available bool
	OnHand    decimal.Decimal
	Requested decimal.Decimal
}

// CheckStock compares requests against the given stock items. Quantities of
// repeated products are summed, so each check reports the total requested
// for its product. Unknown products are reported with Found=false.
func CheckStock(requests []StockRequest, items map[uuid.UUID]StockItem) []StockCheck {
	totals := TotalRequested(requests)

	checks := make([]StockCheck, len(requests))
	for i, req := range requests {
		requested := totals[req.ProductID]
		item, ok := items[req.ProductID]
		if !ok {
			checks[i] = StockCheck{ProductID: req.ProductID, OnHand: decimal.Zero, Requested: requested}
			continue
		}
		checks[i] = StockCheck{
			ProductID: req.ProductID,
			Found:     true,
			Available: item.OnHand.GreaterThanOrEqual(requested),
			OnHand:    item.OnHand,
			Requested: requested,
		}
	}
	return checks
}

// TotalRequested sums requested quantities per product
func TotalRequested(requests []StockRequest) map[uuid.UUID]decimal.Decimal {
	totals := make(map[uuid.UUID]decimal.Decimal, len(requests))
	for _, req := range requests {
		totals[req.ProductID] = totals[req.ProductID].Add(req.Quantity)
	}
	return totals
}

// DistinctProductIDs returns the product ids of requests, deduplicated and
// sorted so row locks are always taken in the same order.
func DistinctProductIDs(requests []StockRequest) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(requests))
	ids := make([]uuid.UUID, 0, len(requests))
	for _, req := range requests {
		if _, ok := seen[req.ProductID]; ok {
			continue
		}
		seen[req.ProductID] = struct{}{}
		ids = append(ids, req.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// StockFailure turns failed checks into the matching error: product not
// found takes precedence over insufficient stock. Returns nil when every
// check passed.
func StockFailure(checks []StockCheck) error {
	var short []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	for _, c := range checks {
		if !c.Found {
			return NewProductNotFoundError(c.ProductID)
		}
		if c.Available {
			continue
		}
		if _, ok := seen[c.ProductID]; ok {
			continue
		}
		seen[c.ProductID] = struct{}{}
		short = append(short, c.ProductID)
	}
	if len(short) > 0 {
		return NewInsufficientStockError(short)
	}
	return nil
}
