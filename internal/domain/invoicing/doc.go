// Package invoicing contains the invoicing bounded context: the Invoice
// aggregate with its lines and payment allocations, the per-series number
// counter, the pricing engine and payment reconciliation rules, and the
// repository ports used by the application layer.
//
// Money is always decimal. Header totals and payments are kept at two
// decimal places; the pricing engine is the only producer of totals.
package invoicing
