package invoicing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NumberWidth is the zero-padded width of the correlative in an invoice number
const NumberWidth = 8

// Series is a numbering stream for invoices, typically one per branch.
// Current is the last correlative issued; it only ever moves forward.
type Series struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	BranchID  uuid.UUID
	Name      string
	Prefix    string
	Current   int64
	Active    bool
	UpdatedAt time.Time
}

// FormatNumber renders prefix + zero-padded correlative
func FormatNumber(prefix string, correlative int64) string {
	return fmt.Sprintf("%s%0*d", prefix, NumberWidth, correlative)
}

// IssuableFrom reports whether a caller bound to branchID may issue on this
// series. uuid.Nil means the caller is not bound to a branch.
func (s *Series) IssuableFrom(branchID uuid.UUID) bool {
	return branchID == uuid.Nil || branchID == s.BranchID
}

// Peek returns the number the next allocation will produce, without allocating
func (s *Series) Peek() string {
	return FormatNumber(s.Prefix, s.Current+1)
}

// Next advances the counter and returns the allocated number.
// The caller must hold the series row lock and persist the series in the
// same transaction as the invoice that uses the number.
func (s *Series) Next() string {
	s.Current++
	s.UpdatedAt = time.Now()
	return FormatNumber(s.Prefix, s.Current)
}
