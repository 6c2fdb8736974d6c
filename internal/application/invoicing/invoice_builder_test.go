package invoicing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type builderFixture struct {
	store     *memoryStore
	builder   *InvoiceBuilder
	tenantID  uuid.UUID
	seriesID  uuid.UUID
	clientID  uuid.UUID
	productID uuid.UUID
}

func newBuilderFixture(t *testing.T) *builderFixture {
	t.Helper()
	f := &builderFixture{
		store:     newMemoryStore(),
		tenantID:  uuid.New(),
		seriesID:  uuid.New(),
		clientID:  uuid.New(),
		productID: uuid.New(),
	}
	f.store.series[f.seriesID] = invoicing.Series{
		ID: f.seriesID, TenantID: f.tenantID, BranchID: uuid.New(), Prefix: "A", Current: 5, Active: true,
	}
	f.store.stock[f.productID] = invoicing.StockItem{
		ProductID: f.productID, Code: "P-100", Name: "Rice 1kg", Unit: "und", OnHand: dec("10"),
	}
	f.store.clients[f.clientID] = true

	cfg := DefaultBuilderConfig()
	cfg.TaxRate = dec("0.12")
	f.builder = NewInvoiceBuilder(cfg, NewStockValidator(unlockedStockRepo{f.store}), memoryClients{f.store}, f.store, zap.NewNop())
	return f
}

func (f *builderFixture) request(amounts ...string) CreateInvoiceInput {
	req := CreateInvoiceInput{
		ClientID:   f.clientID,
		SeriesID:   f.seriesID,
		EmployeeID: uuid.New(),
		Lines: []InvoiceLineInput{
			{ProductID: f.productID, Quantity: dec("2"), UnitPrice: dec("100.00"), DiscountPct: dec("10")},
		},
	}
	for _, a := range amounts {
		req.Payments = append(req.Payments, PaymentInput{PaymentMethodID: uuid.New(), Amount: dec(a)})
	}
	return req
}

func TestInvoiceBuilder_Build_Committed(t *testing.T) {
	f := newBuilderFixture(t)
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return len(events) == 1 && events[0].EventType() == invoicing.EventTypeInvoiceCreated
	})).Return(nil)
	f.builder.SetEventPublisher(publisher)

	resp, err := f.builder.Build(context.Background(), f.tenantID, f.request("201.60"))
	require.NoError(t, err)

	assert.Equal(t, "A00000006", resp.Number)
	assert.Equal(t, "ACTIVE", resp.Status)
	assert.True(t, dec("200.00").Equal(resp.Subtotal))
	assert.True(t, dec("20.00").Equal(resp.DiscountTotal))
	assert.True(t, dec("21.60").Equal(resp.TaxTotal))
	assert.True(t, dec("201.60").Equal(resp.GrandTotal))
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "Rice 1kg", resp.Lines[0].ProductName)
	require.Len(t, resp.Payments, 1)

	assert.Equal(t, int64(6), f.store.counter(f.seriesID))
	assert.True(t, dec("8").Equal(f.store.onHand(f.productID)))
	assert.Equal(t, 1, f.store.invoiceCount())
	publisher.AssertExpectations(t)
}

func TestInvoiceBuilder_Build_PaymentMismatch(t *testing.T) {
	f := newBuilderFixture(t)

	_, err := f.builder.Build(context.Background(), f.tenantID, f.request("200.00"))
	require.Error(t, err)

	var mismatch *invoicing.PaymentMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.True(t, dec("201.60").Equal(mismatch.Expected))
	assert.True(t, dec("200.00").Equal(mismatch.Actual))

	assert.Equal(t, 0, f.store.invoiceCount())
	assert.Equal(t, int64(5), f.store.counter(f.seriesID))
	assert.True(t, dec("10").Equal(f.store.onHand(f.productID)))
}

func TestInvoiceBuilder_Build_InsufficientStockThenRetry(t *testing.T) {
	f := newBuilderFixture(t)
	req := f.request()
	req.Lines[0].Quantity = dec("11")
	req.Lines[0].DiscountPct = dec("0")
	req.Payments = []PaymentInput{{PaymentMethodID: uuid.New(), Amount: dec("1232.00")}}

	_, err := f.builder.Build(context.Background(), f.tenantID, req)
	require.Error(t, err)
	assert.True(t, shared.HasCode(err, invoicing.CodeInsufficientStock))
	assert.Contains(t, err.Error(), f.productID.String())
	assert.Equal(t, 0, f.store.invoiceCount())
	assert.Equal(t, int64(5), f.store.counter(f.seriesID))

	f.store.mu.Lock()
	item := f.store.stock[f.productID]
	item.OnHand = dec("11")
	f.store.stock[f.productID] = item
	f.store.mu.Unlock()

	resp, err := f.builder.Build(context.Background(), f.tenantID, req)
	require.NoError(t, err)
	assert.Equal(t, "A00000006", resp.Number)
	assert.True(t, f.store.onHand(f.productID).IsZero())
}

func TestInvoiceBuilder_Build_RepeatedProductSumsStock(t *testing.T) {
	f := newBuilderFixture(t)
	req := f.request()
	req.Lines = []InvoiceLineInput{
		{ProductID: f.productID, Quantity: dec("6"), UnitPrice: dec("1"), DiscountPct: dec("0")},
		{ProductID: f.productID, Quantity: dec("5"), UnitPrice: dec("1"), DiscountPct: dec("0")},
	}
	req.Payments = []PaymentInput{{PaymentMethodID: uuid.New(), Amount: dec("12.32")}}

	_, err := f.builder.Build(context.Background(), f.tenantID, req)
	assert.True(t, shared.HasCode(err, invoicing.CodeInsufficientStock))
	assert.True(t, dec("10").Equal(f.store.onHand(f.productID)))
}

func TestInvoiceBuilder_Build_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *builderFixture, req *CreateInvoiceInput)
		code   string
		kind   shared.ErrorKind
	}{
		{
			name:   "empty invoice",
			mutate: func(_ *builderFixture, req *CreateInvoiceInput) { req.Lines = nil },
			code:   invoicing.CodeEmptyInvoice,
			kind:   shared.KindValidation,
		},
		{
			name:   "unknown client",
			mutate: func(_ *builderFixture, req *CreateInvoiceInput) { req.ClientID = uuid.New() },
			code:   invoicing.CodeClientNotFound,
			kind:   shared.KindNotFound,
		},
		{
			name: "unknown product",
			mutate: func(_ *builderFixture, req *CreateInvoiceInput) {
				req.Lines = append(req.Lines, InvoiceLineInput{ProductID: uuid.New(), Quantity: dec("1"), UnitPrice: dec("1")})
			},
			code: invoicing.CodeProductNotFound,
			kind: shared.KindNotFound,
		},
		{
			name: "invalid discount",
			mutate: func(_ *builderFixture, req *CreateInvoiceInput) {
				req.Lines[0].DiscountPct = dec("150")
			},
			code: invoicing.CodeInvalidLineItem,
			kind: shared.KindValidation,
		},
		{
			name:   "unknown series",
			mutate: func(_ *builderFixture, req *CreateInvoiceInput) { req.SeriesID = uuid.New() },
			code:   invoicing.CodeSeriesNotFound,
			kind:   shared.KindNotFound,
		},
		{
			name:   "no payments",
			mutate: func(_ *builderFixture, req *CreateInvoiceInput) { req.Payments = nil },
			code:   invoicing.CodePaymentRequired,
			kind:   shared.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBuilderFixture(t)
			req := f.request("201.60")
			tt.mutate(f, &req)

			_, err := f.builder.Build(context.Background(), f.tenantID, req)
			require.Error(t, err)
			assert.True(t, shared.HasCode(err, tt.code), "got %v", err)
			assert.Equal(t, tt.kind, shared.KindOf(err))
			assert.Equal(t, 0, f.store.invoiceCount())
			assert.Equal(t, int64(5), f.store.counter(f.seriesID))
		})
	}
}

func TestInvoiceBuilder_Build_RollsBackOnCommitFailure(t *testing.T) {
	f := newBuilderFixture(t)
	f.store.failDecrement = true

	_, err := f.builder.Build(context.Background(), f.tenantID, f.request("201.60"))
	require.Error(t, err)
	assert.Equal(t, shared.KindInternal, shared.KindOf(err))

	assert.Equal(t, 0, f.store.invoiceCount())
	assert.Equal(t, int64(5), f.store.counter(f.seriesID))
	assert.True(t, dec("10").Equal(f.store.onHand(f.productID)))
}

func TestInvoiceBuilder_Build_SeriesBranch(t *testing.T) {
	t.Run("caller from another branch", func(t *testing.T) {
		f := newBuilderFixture(t)
		req := f.request("201.60")
		req.BranchID = uuid.New()

		_, err := f.builder.Build(context.Background(), f.tenantID, req)
		require.Error(t, err)
		assert.True(t, shared.HasCode(err, invoicing.CodeSeriesNotFound))
		assert.Equal(t, shared.KindNotFound, shared.KindOf(err))

		assert.Equal(t, 0, f.store.invoiceCount())
		assert.Equal(t, int64(5), f.store.counter(f.seriesID))
		assert.True(t, dec("10").Equal(f.store.onHand(f.productID)))
	})

	t.Run("caller from the series branch", func(t *testing.T) {
		f := newBuilderFixture(t)
		req := f.request("201.60")
		req.BranchID = f.store.series[f.seriesID].BranchID

		resp, err := f.builder.Build(context.Background(), f.tenantID, req)
		require.NoError(t, err)
		assert.Equal(t, req.BranchID, resp.BranchID)
	})
}

func TestInvoiceBuilder_Build_ConcurrentAllocation(t *testing.T) {
	f := newBuilderFixture(t)

	const workers = 2
	numbers := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.builder.Build(context.Background(), f.tenantID, f.request("201.60"))
			errs[i] = err
			if err == nil {
				numbers[i] = resp.Number
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.ElementsMatch(t, []string{"A00000006", "A00000007"}, numbers)
	assert.Equal(t, int64(7), f.store.counter(f.seriesID))
	assert.True(t, dec("6").Equal(f.store.onHand(f.productID)))
}

func TestInvoiceBuilder_Build_Idempotency(t *testing.T) {
	t.Run("duplicate key is rejected", func(t *testing.T) {
		f := newBuilderFixture(t)
		store := new(MockIdempotencyStore)
		store.On("MarkProcessed", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(false, nil)
		store.On("Release", mock.Anything, mock.Anything).Return(nil)
		f.builder.SetIdempotencyStore(store)

		req := f.request("201.60")
		req.IdempotencyKey = "abc"
		_, err := f.builder.Build(context.Background(), f.tenantID, req)

		assert.ErrorIs(t, err, shared.ErrDuplicateRequest)
		assert.Equal(t, 0, f.store.invoiceCount())
	})

	t.Run("key is released when the build fails", func(t *testing.T) {
		f := newBuilderFixture(t)
		store := new(MockIdempotencyStore)
		key := "invoice:" + f.tenantID.String() + ":abc"
		store.On("MarkProcessed", mock.Anything, key, mock.Anything).Return(true, nil)
		store.On("Release", mock.Anything, key).Return(nil).Once()
		f.builder.SetIdempotencyStore(store)

		req := f.request("1.00")
		req.IdempotencyKey = "abc"
		_, err := f.builder.Build(context.Background(), f.tenantID, req)

		assert.True(t, shared.HasCode(err, invoicing.CodePaymentMismatch))
		store.AssertExpectations(t)
	})

	t.Run("key is kept after commit", func(t *testing.T) {
		f := newBuilderFixture(t)
		store := new(MockIdempotencyStore)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		f.builder.SetIdempotencyStore(store)

		req := f.request("201.60")
		req.IdempotencyKey = "abc"
		_, err := f.builder.Build(context.Background(), f.tenantID, req)

		require.NoError(t, err)
		store.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	})
}

func TestBuildState_CanTransitionTo(t *testing.T) {
	assert.True(t, BuildStateDraft.CanTransitionTo(BuildStateValidated))
	assert.True(t, BuildStateDraft.CanTransitionTo(BuildStateAborted))
	assert.False(t, BuildStateDraft.CanTransitionTo(BuildStateCommitted))
	assert.True(t, BuildStateValidated.CanTransitionTo(BuildStateCommitted))
	assert.False(t, BuildStateCommitted.CanTransitionTo(BuildStateAborted))
	assert.False(t, BuildStateAborted.CanTransitionTo(BuildStateValidated))
}
