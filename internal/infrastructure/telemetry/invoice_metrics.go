package telemetry

import (
	"context"
	"fmt"

	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/retailpos/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrTenantID = attribute.Key("tenant_id")
	AttrSeriesID = attribute.Key("series_id")
)

// InvoiceMetrics records invoice counters from domain events. It is
// subscribed to the event bus, so only committed work is counted.
type InvoiceMetrics struct {
	issued     metric.Int64Counter
	voided     metric.Int64Counter
	grandTotal metric.Float64Histogram
	lines      metric.Int64Histogram
}

// NewInvoiceMetrics creates the invoice instruments on meter
func NewInvoiceMetrics(meter metric.Meter) (*InvoiceMetrics, error) {
	issued, err := meter.Int64Counter("invoices_issued_total",
		metric.WithDescription("Number of invoices committed"),
		metric.WithUnit("{invoice}"))
	if err != nil {
		return nil, fmt.Errorf("create invoices_issued_total: %w", err)
	}
	voided, err := meter.Int64Counter("invoices_voided_total",
		metric.WithDescription("Number of invoices voided"),
		metric.WithUnit("{invoice}"))
	if err != nil {
		return nil, fmt.Errorf("create invoices_voided_total: %w", err)
	}
	grandTotal, err := meter.Float64Histogram("invoice_grand_total",
		metric.WithDescription("Grand total of committed invoices"))
	if err != nil {
		return nil, fmt.Errorf("create invoice_grand_total: %w", err)
	}
	lines, err := meter.Int64Histogram("invoice_line_count",
		metric.WithDescription("Lines per committed invoice"),
		metric.WithUnit("{line}"))
	if err != nil {
		return nil, fmt.Errorf("create invoice_line_count: %w", err)
	}
	return &InvoiceMetrics{issued: issued, voided: voided, grandTotal: grandTotal, lines: lines}, nil
}

// EventTypes implements shared.EventHandler
func (m *InvoiceMetrics) EventTypes() []string {
	return []string{invoicing.EventTypeInvoiceCreated, invoicing.EventTypeInvoiceVoided}
}

// Handle implements shared.EventHandler
func (m *InvoiceMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *invoicing.InvoiceCreatedEvent:
		attrs := metric.WithAttributes(
			AttrTenantID.String(e.TenantID().String()),
			AttrSeriesID.String(e.SeriesID.String()),
		)
		m.issued.Add(ctx, 1, attrs)
		m.grandTotal.Record(ctx, e.GrandTotal.InexactFloat64(), attrs)
		m.lines.Record(ctx, int64(e.LineCount), attrs)
	case *invoicing.InvoiceVoidedEvent:
		m.voided.Add(ctx, 1, metric.WithAttributes(AttrTenantID.String(e.TenantID().String())))
	}
	return nil
}

var _ shared.EventHandler = (*InvoiceMetrics)(nil)
