package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// ==================== Stock DTOs ====================

// StockLineInput is one product/quantity pair to validate
type StockLineInput struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// StockCheckResult is the per-line result of a stock validation.
// ErrorCode is set to PRODUCT_NOT_FOUND for unknown products.
type StockCheckResult struct {
	ProductID uuid.UUID       `json:"product_id"`
	Available bool            `json:"available"`
	OnHand    decimal.Decimal `json:"on_hand"`
	Requested decimal.Decimal `json:"requested"`
	ErrorCode string          `json:"error_code,omitempty"`
}

// ==================== Invoice DTOs ====================

// CreateInvoiceInput is the request to build and commit an invoice
type CreateInvoiceInput struct {
	ClientID       uuid.UUID
	SeriesID       uuid.UUID
	BranchID       uuid.UUID // branch of the caller; uuid.Nil skips the series branch check
	EmployeeID     uuid.UUID
	Lines          []InvoiceLineInput
	Payments       []PaymentInput
	Notes          string
	IdempotencyKey string
}

// InvoiceLineInput is a cart line
type InvoiceLineInput struct {
	ProductID   uuid.UUID
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
}

// PaymentInput is a payment instrument
type PaymentInput struct {
	PaymentMethodID uuid.UUID
	Amount          decimal.Decimal
	Reference       string
}

// VoidInvoiceInput is the request to void an invoice
type VoidInvoiceInput struct {
	Reason     string
	EmployeeID uuid.UUID
}

// InvoiceListInput holds list query parameters
type InvoiceListInput struct {
	Page     int
	PageSize int
	Status   string
	ClientID *uuid.UUID
	SeriesID *uuid.UUID
	From     *time.Time
	To       *time.Time
}

// InvoiceListResult is one page of invoices with the paging actually applied
type InvoiceListResult struct {
	Items    []InvoiceResponse
	Total    int64
	Page     int
	PageSize int
}

// InvoiceResponse represents an invoice
type InvoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	Number        string                `json:"number"`
	SeriesID      uuid.UUID             `json:"series_id"`
	BranchID      uuid.UUID             `json:"branch_id"`
	ClientID      uuid.UUID             `json:"client_id"`
	EmployeeID    uuid.UUID             `json:"employee_id"`
	IssuedAt      time.Time             `json:"issued_at"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	DiscountTotal decimal.Decimal       `json:"discount_total"`
	TaxRate       decimal.Decimal       `json:"tax_rate"`
	TaxTotal      decimal.Decimal       `json:"tax_total"`
	GrandTotal    decimal.Decimal       `json:"grand_total"`
	Status        string                `json:"status"`
	VoidReason    string                `json:"void_reason,omitempty"`
	VoidedAt      *time.Time            `json:"voided_at,omitempty"`
	VoidedBy      *uuid.UUID            `json:"voided_by,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	Lines         []InvoiceLineResponse `json:"lines,omitempty"`
	Payments      []PaymentResponse     `json:"payments,omitempty"`
}

// InvoiceLineResponse represents an invoice line
type InvoiceLineResponse struct {
	LineNo         int             `json:"line_no"`
	ProductID      uuid.UUID       `json:"product_id"`
	ProductCode    string          `json:"product_code"`
	ProductName    string          `json:"product_name"`
	Unit           string          `json:"unit"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	LineSubtotal   decimal.Decimal `json:"line_subtotal"`
}

// PaymentResponse represents a payment allocation
type PaymentResponse struct {
	PaymentMethodID uuid.UUID       `json:"payment_method_id"`
	Amount          decimal.Decimal `json:"amount"`
	Reference       string          `json:"reference,omitempty"`
}

// NextNumberResponse is the preview of a series' next number
type NextNumberResponse struct {
	SeriesID   uuid.UUID `json:"series_id"`
	Prefix     string    `json:"prefix"`
	Current    int64     `json:"current"`
	NextNumber string    `json:"next_number"`
}

// ToInvoiceResponse converts an Invoice to its response
func ToInvoiceResponse(inv *invoicing.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID,
		Number:        inv.Number,
		SeriesID:      inv.SeriesID,
		BranchID:      inv.BranchID,
		ClientID:      inv.ClientID,
		EmployeeID:    inv.EmployeeID,
		IssuedAt:      inv.IssuedAt,
		Subtotal:      inv.Subtotal,
		DiscountTotal: inv.DiscountTotal,
		TaxRate:       inv.TaxRate,
		TaxTotal:      inv.TaxTotal,
		GrandTotal:    inv.GrandTotal,
		Status:        inv.Status.String(),
		VoidReason:    inv.VoidReason,
		VoidedAt:      inv.VoidedAt,
		VoidedBy:      inv.VoidedBy,
		Notes:         inv.Notes,
	}
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, InvoiceLineResponse{
			LineNo:         l.LineNo,
			ProductID:      l.ProductID,
			ProductCode:    l.ProductCode,
			ProductName:    l.ProductName,
			Unit:           l.Unit,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			DiscountPct:    l.DiscountPct,
			DiscountAmount: l.DiscountAmount,
			LineSubtotal:   l.LineSubtotal,
		})
	}
	for _, p := range inv.Payments {
		resp.Payments = append(resp.Payments, PaymentResponse{
			PaymentMethodID: p.PaymentMethodID,
			Amount:          p.Amount,
			Reference:       p.Reference,
		})
	}
	return resp
}

// ToInvoiceListResponses converts invoice headers to responses
func ToInvoiceListResponses(invoices []invoicing.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i])
	}
	return out
}

func toStockRequests(lines []StockLineInput) []invoicing.StockRequest {
	reqs := make([]invoicing.StockRequest, len(lines))
	for i, l := range lines {
		reqs[i] = invoicing.StockRequest{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return reqs
}

func toStockCheckResults(checks []invoicing.StockCheck) []StockCheckResult {
	out := make([]StockCheckResult, len(checks))
	for i, c := range checks {
		out[i] = StockCheckResult{
			ProductID: c.ProductID,
			Available: c.Available,
			OnHand:    c.OnHand,
			Requested: c.Requested,
		}
		if !c.Found {
			out[i].ErrorCode = invoicing.CodeProductNotFound
		}
	}
	return out
}
