package invoicing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InvoiceService handles operations on issued invoices
type InvoiceService struct {
	invoiceRepo    invoicing.InvoiceRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo invoicing.InvoiceRepository, txScope TransactionScope, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		txScope:     txScope,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID returns an invoice with its lines and payments
func (s *InvoiceService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// List returns a page of invoice headers. Page and PageSize of the result
// are the normalized values used for the query.
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, in InvoiceListInput) (*InvoiceListResult, error) {
	filter := invoicing.InvoiceFilter{
		Filter: shared.Filter{
			Page:     in.Page,
			PageSize: in.PageSize,
			OrderBy:  "issued_at",
			OrderDir: "desc",
		}.Normalize(),
		ClientID: in.ClientID,
		SeriesID: in.SeriesID,
		From:     in.From,
		To:       in.To,
	}
	if in.Status != "" {
		status := invoicing.InvoiceStatus(strings.ToUpper(in.Status))
		if !status.IsValid() {
			return nil, shared.NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown invoice status %q", in.Status))
		}
		filter.Status = status
	}

	invoices, total, err := s.invoiceRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{
		Items:    ToInvoiceListResponses(invoices),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// Void transitions an active invoice to voided, recording the reason, the
// time and who voided it. Stock and numbering are left untouched.
func (s *InvoiceService) Void(ctx context.Context, tenantID, id uuid.UUID, in VoidInvoiceInput) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "void",
		telemetry.WithAttribute("invoice_id", id.String()),
	)
	defer span.End()

	var inv *invoicing.Invoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.InvoiceRepo().FindByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := inv.Void(in.Reason, in.EmployeeID); err != nil {
			return err
		}
		return repos.InvoiceRepo().SaveStatus(ctx, inv)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("invoice voided",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("number", inv.Number),
		zap.String("reason", inv.VoidReason),
	)

	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish invoice events",
				zap.String("invoice_id", inv.ID.String()), zap.Error(err))
		}
	}

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}
