package invoicing

import (
	"context"
	"fmt"

	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes an audit trail entry for every invoice event
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("invoice_audit")}
}

// EventTypes returns the event types this handler is interested in
func (h *AuditLogHandler) EventTypes() []string {
	return []string{invoicing.EventTypeInvoiceCreated, invoicing.EventTypeInvoiceVoided}
}

// Handle logs the event
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	base := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("invoice_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *invoicing.InvoiceCreatedEvent:
		h.logger.Info("invoice issued", append(base,
			zap.String("number", e.Number),
			zap.String("client_id", e.ClientID.String()),
			zap.String("employee_id", e.EmployeeID.String()),
			zap.String("grand_total", e.GrandTotal.StringFixed(2)),
			zap.Int("lines", e.LineCount),
		)...)
	case *invoicing.InvoiceVoidedEvent:
		h.logger.Info("invoice voided", append(base,
			zap.String("number", e.Number),
			zap.String("reason", e.Reason),
			zap.String("grand_total", e.GrandTotal.StringFixed(2)),
		)...)
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
