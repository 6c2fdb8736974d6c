package handler

import (
	"time"

	"github.com/google/uuid"
	invoicingapp "github.com/retailpos/backend/internal/application/invoicing"
	"github.com/retailpos/backend/internal/infrastructure/auth"
	"github.com/shopspring/decimal"
)

// Wire field names follow the point-of-sale frontend contract. Money fields
// accept JSON numbers or strings and are answered as fixed 2-decimal strings.

// ValidateStockRequest is the body of POST /facturas/validar-stock
type ValidateStockRequest struct {
	Productos []StockLineRequest `json:"productos" binding:"required,min=1,dive"`
}

// StockLineRequest is one product/quantity pair to check
type StockLineRequest struct {
	IDProducto string          `json:"id_producto" binding:"required,uuid"`
	Cantidad   decimal.Decimal `json:"cantidad" binding:"decimalgt0"`
}

// StockCheckResponse is the availability of one product
type StockCheckResponse struct {
	IDProducto        string `json:"id_producto"`
	Disponible        bool   `json:"disponible"`
	StockActual       string `json:"stock_actual"`
	CantidadRequerida string `json:"cantidad_requerida"`
	Error             string `json:"error,omitempty"`
}

// CreateInvoiceRequest is the body of POST /facturas. Empty product and
// payment lists are passed through so the builder reports them with its
// own error codes.
type CreateInvoiceRequest struct {
	IDCliente     string               `json:"id_cliente" binding:"required,uuid"`
	IDSerie       string               `json:"id_serie" binding:"required,uuid"`
	Productos     []InvoiceLineRequest `json:"productos" binding:"dive"`
	MediosPago    []PaymentRequest     `json:"mediosPago" binding:"dive"`
	Observaciones string               `json:"observaciones" binding:"max=500"`
}

// InvoiceLineRequest is a cart line
type InvoiceLineRequest struct {
	IDProducto          string          `json:"id_producto" binding:"required,uuid"`
	Cantidad            decimal.Decimal `json:"cantidad" binding:"decimalgt0"`
	PrecioUnitario      decimal.Decimal `json:"precio_unitario" binding:"decimalgte0"`
	DescuentoPorcentaje decimal.Decimal `json:"descuento_porcentaje" binding:"decimalgte0,decimallte=100"`
}

// PaymentRequest is one payment instrument
type PaymentRequest struct {
	IDTipoPago       string          `json:"id_tipo_pago" binding:"required,uuid"`
	Monto            decimal.Decimal `json:"monto" binding:"decimalgt0"`
	NumeroReferencia string          `json:"numero_referencia" binding:"max=100"`
}

// VoidInvoiceRequest is the body of PUT /facturas/:id/anular
type VoidInvoiceRequest struct {
	Motivo string `json:"motivo" binding:"required,max=500"`
}

// ListInvoicesQuery holds GET /facturas query parameters. Dates are
// YYYY-MM-DD; hasta is inclusive.
type ListInvoicesQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Estado    string `form:"estado" binding:"omitempty,oneof=ACTIVE VOIDED active voided"`
	IDCliente string `form:"id_cliente" binding:"omitempty,uuid"`
	IDSerie   string `form:"id_serie" binding:"omitempty,uuid"`
	Desde     string `form:"desde" binding:"omitempty,datetime=2006-01-02"`
	Hasta     string `form:"hasta" binding:"omitempty,datetime=2006-01-02"`
}

// InvoiceResponse is an invoice on the wire. Detalle and mediosPago are
// omitted from list results.
type InvoiceResponse struct {
	IDFactura       string                `json:"id_factura"`
	NumeroFactura   string                `json:"numero_factura"`
	IDSerie         string                `json:"id_serie"`
	IDSucursal      string                `json:"id_sucursal"`
	IDCliente       string                `json:"id_cliente"`
	IDEmpleado      string                `json:"id_empleado"`
	FechaEmision    time.Time             `json:"fecha_emision"`
	Subtotal        string                `json:"subtotal"`
	DescuentoTotal  string                `json:"descuento_total"`
	TasaImpuesto    string                `json:"tasa_impuesto"`
	ImpuestoTotal   string                `json:"impuesto_total"`
	Total           string                `json:"total"`
	Estado          string                `json:"estado"`
	Observaciones   string                `json:"observaciones,omitempty"`
	MotivoAnulacion string                `json:"motivo_anulacion,omitempty"`
	FechaAnulacion  *time.Time            `json:"fecha_anulacion,omitempty"`
	AnuladoPor      string                `json:"anulado_por,omitempty"`
	Detalle         []InvoiceLineResponse `json:"detalle,omitempty"`
	MediosPago      []PaymentResponse     `json:"mediosPago,omitempty"`
}

// InvoiceLineResponse is an invoice line on the wire
type InvoiceLineResponse struct {
	NumeroLinea         int    `json:"numero_linea"`
	IDProducto          string `json:"id_producto"`
	CodigoProducto      string `json:"codigo_producto"`
	NombreProducto      string `json:"nombre_producto"`
	Unidad              string `json:"unidad"`
	Cantidad            string `json:"cantidad"`
	PrecioUnitario      string `json:"precio_unitario"`
	DescuentoPorcentaje string `json:"descuento_porcentaje"`
	DescuentoMonto      string `json:"descuento_monto"`
	Subtotal            string `json:"subtotal"`
}

// PaymentResponse is a payment allocation on the wire
type PaymentResponse struct {
	IDTipoPago       string `json:"id_tipo_pago"`
	Monto            string `json:"monto"`
	NumeroReferencia string `json:"numero_referencia,omitempty"`
}

// NextNumberResponse is the preview of a series' next number
type NextNumberResponse struct {
	IDSerie       string `json:"id_serie"`
	Prefijo       string `json:"prefijo"`
	ProximoNumero string `json:"proximo_numero"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toStockLineInputs(lines []StockLineRequest) []invoicingapp.StockLineInput {
	out := make([]invoicingapp.StockLineInput, len(lines))
	for i, l := range lines {
		out[i] = invoicingapp.StockLineInput{
			ProductID: uuid.MustParse(l.IDProducto),
			Quantity:  l.Cantidad,
		}
	}
	return out
}

func toStockCheckResponses(results []invoicingapp.StockCheckResult) []StockCheckResponse {
	out := make([]StockCheckResponse, len(results))
	for i, r := range results {
		out[i] = StockCheckResponse{
			IDProducto:        r.ProductID.String(),
			Disponible:        r.Available,
			StockActual:       r.OnHand.String(),
			CantidadRequerida: r.Requested.String(),
			Error:             r.ErrorCode,
		}
	}
	return out
}

// toCreateInvoiceInput converts a bound request; ids were validated by binding
func (r CreateInvoiceRequest) toCreateInvoiceInput(principal *auth.Principal, idempotencyKey string) invoicingapp.CreateInvoiceInput {
	in := invoicingapp.CreateInvoiceInput{
		ClientID:       uuid.MustParse(r.IDCliente),
		SeriesID:       uuid.MustParse(r.IDSerie),
		BranchID:       principal.BranchID,
		EmployeeID:     principal.EmployeeID,
		Notes:          r.Observaciones,
		IdempotencyKey: idempotencyKey,
		Lines:          make([]invoicingapp.InvoiceLineInput, len(r.Productos)),
		Payments:       make([]invoicingapp.PaymentInput, len(r.MediosPago)),
	}
	for i, l := range r.Productos {
		in.Lines[i] = invoicingapp.InvoiceLineInput{
			ProductID:   uuid.MustParse(l.IDProducto),
			Quantity:    l.Cantidad,
			UnitPrice:   l.PrecioUnitario,
			DiscountPct: l.DescuentoPorcentaje,
		}
	}
	for i, p := range r.MediosPago {
		in.Payments[i] = invoicingapp.PaymentInput{
			PaymentMethodID: uuid.MustParse(p.IDTipoPago),
			Amount:          p.Monto,
			Reference:       p.NumeroReferencia,
		}
	}
	return in
}

func toInvoiceResponse(inv *invoicingapp.InvoiceResponse) InvoiceResponse {
	resp := InvoiceResponse{
		IDFactura:       inv.ID.String(),
		NumeroFactura:   inv.Number,
		IDSerie:         inv.SeriesID.String(),
		IDSucursal:      inv.BranchID.String(),
		IDCliente:       inv.ClientID.String(),
		IDEmpleado:      inv.EmployeeID.String(),
		FechaEmision:    inv.IssuedAt,
		Subtotal:        money(inv.Subtotal),
		DescuentoTotal:  money(inv.DiscountTotal),
		TasaImpuesto:    inv.TaxRate.String(),
		ImpuestoTotal:   money(inv.TaxTotal),
		Total:           money(inv.GrandTotal),
		Estado:          inv.Status,
		Observaciones:   inv.Notes,
		MotivoAnulacion: inv.VoidReason,
		FechaAnulacion:  inv.VoidedAt,
	}
	if inv.VoidedBy != nil {
		resp.AnuladoPor = inv.VoidedBy.String()
	}
	for _, l := range inv.Lines {
		resp.Detalle = append(resp.Detalle, InvoiceLineResponse{
			NumeroLinea:         l.LineNo,
			IDProducto:          l.ProductID.String(),
			CodigoProducto:      l.ProductCode,
			NombreProducto:      l.ProductName,
			Unidad:              l.Unit,
			Cantidad:            l.Quantity.String(),
			PrecioUnitario:      money(l.UnitPrice),
			DescuentoPorcentaje: l.DiscountPct.String(),
			DescuentoMonto:      money(l.DiscountAmount),
			Subtotal:            money(l.LineSubtotal),
		})
	}
	for _, p := range inv.Payments {
		resp.MediosPago = append(resp.MediosPago, PaymentResponse{
			IDTipoPago:       p.PaymentMethodID.String(),
			Monto:            money(p.Amount),
			NumeroReferencia: p.Reference,
		})
	}
	return resp
}

func toInvoiceResponses(invoices []invoicingapp.InvoiceResponse) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = toInvoiceResponse(&invoices[i])
	}
	return out
}
