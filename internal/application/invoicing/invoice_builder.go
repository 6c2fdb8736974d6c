package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// BuildState is the state of one invoice build
type BuildState string

const (
	BuildStateDraft     BuildState = "DRAFT"
	BuildStateValidated BuildState = "VALIDATED"
	BuildStateCommitted BuildState = "COMMITTED"
	BuildStateAborted   BuildState = "ABORTED"
)

// CanTransitionTo checks if the build can move to the target state
func (s BuildState) CanTransitionTo(target BuildState) bool {
	switch s {
	case BuildStateDraft:
		return target == BuildStateValidated || target == BuildStateAborted
	case BuildStateValidated:
		return target == BuildStateCommitted || target == BuildStateAborted
	}
	return false
}

// BuilderConfig holds invoicing parameters
type BuilderConfig struct {
	TaxRate          decimal.Decimal
	PaymentTolerance decimal.Decimal
	IdempotencyTTL   time.Duration
}

// DefaultBuilderConfig returns the default invoicing parameters
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		TaxRate:          invoicing.DefaultTaxRate,
		PaymentTolerance: invoicing.DefaultPaymentTolerance,
		IdempotencyTTL:   24 * time.Hour,
	}
}

// InvoiceBuilder validates, prices and commits invoices.
//
// Every check that can fail runs before the commit transaction, and the
// stock check runs again under row locks inside it. Inside the transaction
// the series row is locked first, then stock rows in product id order.
type InvoiceBuilder struct {
	cfg            BuilderConfig
	pricing        *invoicing.PricingEngine
	stock          *StockValidator
	clients        invoicing.ClientDirectory
	txScope        TransactionScope
	idempotency    shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewInvoiceBuilder creates a new InvoiceBuilder
func NewInvoiceBuilder(
	cfg BuilderConfig,
	stock *StockValidator,
	clients invoicing.ClientDirectory,
	txScope TransactionScope,
	logger *zap.Logger,
) *InvoiceBuilder {
	if cfg.PaymentTolerance.IsZero() {
		cfg.PaymentTolerance = invoicing.DefaultPaymentTolerance
	}
	return &InvoiceBuilder{
		cfg:     cfg,
		pricing: invoicing.NewPricingEngine(cfg.TaxRate),
		stock:   stock,
		clients: clients,
		txScope: txScope,
		logger:  logger,
	}
}

// SetEventPublisher sets the publisher used after commit
func (b *InvoiceBuilder) SetEventPublisher(publisher shared.EventPublisher) {
	b.eventPublisher = publisher
}

// SetIdempotencyStore enables Idempotency-Key handling
func (b *InvoiceBuilder) SetIdempotencyStore(store shared.IdempotencyStore) {
	b.idempotency = store
}

// buildRun tracks the state of a single Build call
type buildRun struct {
	state  BuildState
	logger *zap.Logger
	span   trace.Span
}

func (r *buildRun) transition(to BuildState, fields ...zap.Field) {
	if !r.state.CanTransitionTo(to) {
		r.logger.Error("invalid invoice build transition",
			zap.String("from", string(r.state)), zap.String("to", string(to)))
		return
	}
	r.logger.Debug("invoice build transition",
		append([]zap.Field{zap.String("from", string(r.state)), zap.String("to", string(to))}, fields...)...)
	telemetry.AddEvent(r.span, "invoice_build."+string(to))
	r.state = to
}

func (r *buildRun) abort(step string, err error) error {
	r.transition(BuildStateAborted, zap.String("step", step), zap.Error(err))
	r.logger.Info("invoice build aborted",
		zap.String("step", step),
		zap.String("error_kind", string(shared.KindOf(err))),
		zap.Error(err),
	)
	telemetry.RecordError(r.span, err)
	telemetry.SetAttribute(r.span, "abort_step", step)
	return err
}

// Build runs the invoice saga: Draft → Validated → Committed, or Aborted at
// the first failing step. Nothing is persisted unless the final transaction
// commits.
func (b *InvoiceBuilder) Build(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceInput) (resp *InvoiceResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_builder", "build",
		telemetry.WithAttribute("series_id", req.SeriesID.String()),
		telemetry.WithAttribute("line_count", len(req.Lines)),
	)
	defer span.End()

	run := &buildRun{
		state: BuildStateDraft,
		logger: b.logger.With(
			zap.String("tenant_id", tenantID.String()),
			zap.String("series_id", req.SeriesID.String()),
			zap.String("client_id", req.ClientID.String()),
		),
		span: span,
	}

	if req.IdempotencyKey != "" && b.idempotency != nil {
		key := idempotencyKey(tenantID, req.IdempotencyKey)
		claimed, claimErr := b.idempotency.MarkProcessed(ctx, key, b.cfg.IdempotencyTTL)
		if claimErr != nil {
			return nil, run.abort("idempotency", fmt.Errorf("claim idempotency key: %w", claimErr))
		}
		if !claimed {
			return nil, run.abort("idempotency", shared.ErrDuplicateRequest)
		}
		defer func() {
			if err == nil {
				return
			}
			if relErr := b.idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
				run.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}()
	}

	if len(req.Lines) == 0 {
		return nil, run.abort("lines", invoicing.ErrEmptyInvoice)
	}

	exists, err := b.clients.Exists(ctx, tenantID, req.ClientID)
	if err != nil {
		return nil, run.abort("client", fmt.Errorf("check client: %w", err))
	}
	if !exists {
		return nil, run.abort("client", invoicing.NewClientNotFoundError(req.ClientID))
	}

	stockRequests := make([]invoicing.StockRequest, len(req.Lines))
	priceInputs := make([]invoicing.PriceInput, len(req.Lines))
	for i, l := range req.Lines {
		stockRequests[i] = invoicing.StockRequest{ProductID: l.ProductID, Quantity: l.Quantity}
		priceInputs[i] = invoicing.PriceInput{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
		}
	}

	if err := validateQuantities(stockRequests); err != nil {
		return nil, run.abort("stock", err)
	}
	checks, _, err := b.stock.check(ctx, b.stock.stockRepo, tenantID, stockRequests, false)
	if err != nil {
		return nil, run.abort("stock", err)
	}
	if err := invoicing.StockFailure(checks); err != nil {
		return nil, run.abort("stock", err)
	}

	pricing, err := b.pricing.Price(priceInputs)
	if err != nil {
		return nil, run.abort("pricing", err)
	}

	payments := make([]invoicing.PaymentInput, len(req.Payments))
	for i, p := range req.Payments {
		payments[i] = invoicing.PaymentInput{
			PaymentMethodID: p.PaymentMethodID,
			Amount:          p.Amount,
			Reference:       p.Reference,
		}
	}
	if _, err := invoicing.Reconcile(pricing.GrandTotal, payments, b.cfg.PaymentTolerance); err != nil {
		return nil, run.abort("payments", err)
	}

	run.transition(BuildStateValidated, zap.String("grand_total", pricing.GrandTotal.StringFixed(2)))

	var invoice *invoicing.Invoice
	err = b.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		series, err := repos.SeriesRepo().FindByIDForUpdate(ctx, tenantID, req.SeriesID)
		if err != nil {
			return err
		}
		if !series.IssuableFrom(req.BranchID) {
			return invoicing.NewSeriesNotFoundError(req.SeriesID)
		}

		checks, items, err := b.stock.check(ctx, repos.StockRepo(), tenantID, stockRequests, true)
		if err != nil {
			return err
		}
		if err := invoicing.StockFailure(checks); err != nil {
			return err
		}

		number := series.Next()
		invoice, err = invoicing.IssueInvoice(invoicing.IssueParams{
			TenantID:   tenantID,
			Number:     number,
			Series:     series,
			EmployeeID: req.EmployeeID,
			ClientID:   req.ClientID,
			Pricing:    pricing,
			Stock:      items,
			Payments:   payments,
			Notes:      req.Notes,
		})
		if err != nil {
			return err
		}

		if err := repos.InvoiceRepo().Create(ctx, invoice); err != nil {
			return err
		}
		if err := repos.SeriesRepo().SaveCounter(ctx, series); err != nil {
			return err
		}
		totals := invoicing.TotalRequested(stockRequests)
		for _, productID := range invoicing.DistinctProductIDs(stockRequests) {
			if err := repos.StockRepo().Decrement(ctx, tenantID, productID, totals[productID]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, run.abort("commit", err)
	}

	run.transition(BuildStateCommitted, zap.String("number", invoice.Number))
	telemetry.SetAttribute(span, "invoice_number", invoice.Number)
	run.logger.Info("invoice committed",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.String("grand_total", invoice.GrandTotal.StringFixed(2)),
	)

	b.publishEvents(ctx, invoice)

	out := ToInvoiceResponse(invoice)
	return &out, nil
}

// publishEvents publishes pending events after commit. Publishing failures
// are logged; the invoice is already committed.
func (b *InvoiceBuilder) publishEvents(ctx context.Context, inv *invoicing.Invoice) {
	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()
	if b.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := b.eventPublisher.Publish(ctx, events...); err != nil {
		b.logger.Warn("failed to publish invoice events",
			zap.String("invoice_id", inv.ID.String()), zap.Error(err))
	}
}

func idempotencyKey(tenantID uuid.UUID, key string) string {
	return "invoice:" + tenantID.String() + ":" + key
}
