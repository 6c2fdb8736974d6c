package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testInvoice() *invoicing.Invoice {
	return &invoicing.Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(TestTenantID()),
		Number:              "F001-00000006",
		GrandTotal:          Dec("112.00"),
	}
}

func TestMockEventHandler_RecordsBusDeliveries(t *testing.T) {
	bus := event.NewInMemoryEventBus(zap.NewNop())
	handler := NewMockEventHandler(invoicing.EventTypeInvoiceCreated, invoicing.EventTypeInvoiceVoided)
	bus.Subscribe(handler)

	inv := testInvoice()
	require.NoError(t, bus.Publish(context.Background(),
		invoicing.NewInvoiceCreatedEvent(inv),
		invoicing.NewInvoiceVoidedEvent(inv),
	))

	require.True(t, WaitForEventCount(t, handler, 2, time.Second))
	created := handler.HandledOfType(invoicing.EventTypeInvoiceCreated)
	require.Len(t, created, 1)
	assert.Equal(t, inv.ID, created[0].AggregateID())
	assert.Equal(t, "F001-00000006", created[0].(*invoicing.InvoiceCreatedEvent).Number)
}

func TestMockEventHandler_SetErrorAndReset(t *testing.T) {
	handler := NewMockEventHandler()
	handler.SetError(assert.AnError)

	err := handler.Handle(context.Background(), invoicing.NewInvoiceCreatedEvent(testInvoice()))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, handler.HandledCount())

	handler.Reset()
	assert.Equal(t, 0, handler.HandledCount())
	assert.NoError(t, handler.Handle(context.Background(), invoicing.NewInvoiceCreatedEvent(testInvoice())))
}

func TestWaitForCondition_Timeout(t *testing.T) {
	met := WaitForCondition(t, func() bool { return false }, 30*time.Millisecond, 5*time.Millisecond)
	assert.False(t, met)
}
