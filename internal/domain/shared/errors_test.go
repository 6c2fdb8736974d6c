package shared

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(ErrNotFound))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("saving: %w", ErrConcurrencyConflict)))
	assert.Equal(t, KindInternal, KindOf(fmt.Errorf("plain error")))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewValidationError("BAD", "bad input"))
	assert.True(t, HasCode(err, "BAD"))
	assert.False(t, HasCode(err, "OTHER"))
	assert.False(t, HasCode(nil, "BAD"))
}

func TestDomainError_WithDetail(t *testing.T) {
	base := NewConflictError("X", "x")
	withDetail := base.WithDetail("id", 7)

	assert.Nil(t, base.Details)
	assert.Equal(t, 7, withDetail.Details["id"])
	assert.Equal(t, base.Code, withDetail.Code)
	assert.Equal(t, base.Kind, withDetail.Kind)
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 1000, OrderDir: "DROP"}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageSize, f.PageSize)
	assert.Equal(t, "desc", f.OrderDir)
	assert.Equal(t, 0, f.Offset())

	f = Filter{Page: 3, PageSize: 10, OrderDir: "asc"}.Normalize()
	assert.Equal(t, 20, f.Offset())
	assert.Equal(t, "asc", f.OrderDir)
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 21, 1, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPaginated([]int{}, 0, 1, 0).TotalPages)
}
