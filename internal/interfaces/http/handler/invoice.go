package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	invoicingapp "github.com/retailpos/backend/internal/application/invoicing"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
)

// InvoiceHandler serves the /facturas endpoints
type InvoiceHandler struct {
	BaseHandler
	stock    *invoicingapp.StockValidator
	builder  *invoicingapp.InvoiceBuilder
	invoices *invoicingapp.InvoiceService
	series   *invoicingapp.SeriesService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(
	stock *invoicingapp.StockValidator,
	builder *invoicingapp.InvoiceBuilder,
	invoices *invoicingapp.InvoiceService,
	series *invoicingapp.SeriesService,
) *InvoiceHandler {
	return &InvoiceHandler{
		stock:    stock,
		builder:  builder,
		invoices: invoices,
		series:   series,
	}
}

// ValidateStock godoc
// @Summary      Check stock for a cart
// @Description  Read-only availability check. One result per requested line, in request order.
// @Tags         facturas
// @Accept       json
// @Produce      json
// @Param        request body ValidateStockRequest true "Products to check"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /facturas/validar-stock [post]
func (h *InvoiceHandler) ValidateStock(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	var req ValidateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	results, err := h.stock.Validate(c.Request.Context(), p.TenantID, toStockLineInputs(req.Productos))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toStockCheckResponses(results))
}

// Create godoc
// @Summary      Issue an invoice
// @Description  Prices the cart, reconciles payments, allocates the next series number and decrements stock atomically.
// @Tags         facturas
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replay key"
// @Param        request body CreateInvoiceRequest true "Invoice"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /facturas [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	in := req.toCreateInvoiceInput(p, c.GetHeader(middleware.IdempotencyKeyHeader))
	inv, err := h.builder.Build(c.Request.Context(), p.TenantID, in)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, toInvoiceResponse(inv))
}

// GetByID godoc
// @Summary      Get an invoice
// @Tags         facturas
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /facturas/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.invoices.GetByID(c.Request.Context(), p.TenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(inv))
}

// List godoc
// @Summary      List invoices
// @Tags         facturas
// @Produce      json
// @Param        page       query int    false "Page"
// @Param        page_size  query int    false "Page size"
// @Param        estado     query string false "ACTIVE or VOIDED"
// @Param        id_cliente query string false "Client"
// @Param        id_serie   query string false "Series"
// @Param        desde      query string false "From date (YYYY-MM-DD)"
// @Param        hasta      query string false "To date, inclusive (YYYY-MM-DD)"
// @Success      200 {object} dto.Response
// @Router       /facturas [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	var q ListInvoicesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	in := invoicingapp.InvoiceListInput{
		Page:     q.Page,
		PageSize: q.PageSize,
		Status:   q.Estado,
	}
	if q.IDCliente != "" {
		id := uuid.MustParse(q.IDCliente)
		in.ClientID = &id
	}
	if q.IDSerie != "" {
		id := uuid.MustParse(q.IDSerie)
		in.SeriesID = &id
	}
	if q.Desde != "" {
		from, _ := time.Parse(time.DateOnly, q.Desde)
		in.From = &from
	}
	if q.Hasta != "" {
		to, _ := time.Parse(time.DateOnly, q.Hasta)
		to = to.Add(24*time.Hour - time.Nanosecond)
		in.To = &to
	}
	if in.From != nil && in.To != nil && in.To.Before(*in.From) {
		h.BadRequest(c, "hasta must not be before desde")
		return
	}

	result, err := h.invoices.List(c.Request.Context(), p.TenantID, in)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, toInvoiceResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// Void godoc
// @Summary      Void an invoice
// @Description  Marks an active invoice as voided. Stock and numbering are not reverted.
// @Tags         facturas
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Param        request body VoidInvoiceRequest true "Reason"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /facturas/{id}/anular [put]
func (h *InvoiceHandler) Void(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req VoidInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	inv, err := h.invoices.Void(c.Request.Context(), p.TenantID, id, invoicingapp.VoidInvoiceInput{
		Reason:     req.Motivo,
		EmployeeID: p.EmployeeID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, toInvoiceResponse(inv))
}

// NextNumber godoc
// @Summary      Preview the next invoice number of a series
// @Description  Read-only. Concurrent issuance may consume the previewed number.
// @Tags         facturas
// @Produce      json
// @Param        id_serie path string true "Series ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /facturas/serie/{id_serie}/proximo-numero [get]
func (h *InvoiceHandler) NextNumber(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	seriesID, ok := h.parseUUIDParam(c, "id_serie")
	if !ok {
		return
	}

	next, err := h.series.PreviewNextNumber(c.Request.Context(), p.TenantID, seriesID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, NextNumberResponse{
		IDSerie:       next.SeriesID.String(),
		Prefijo:       next.Prefix,
		ProximoNumero: next.NextNumber,
	})
}
