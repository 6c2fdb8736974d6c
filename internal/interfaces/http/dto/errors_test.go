package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeBodyTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRequestTimeout, http.StatusGatewayTimeout},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusForKind(shared.KindValidation))
	assert.Equal(t, http.StatusNotFound, StatusForKind(shared.KindNotFound))
	assert.Equal(t, http.StatusConflict, StatusForKind(shared.KindConflict))
	assert.Equal(t, http.StatusInternalServerError, StatusForKind(shared.KindInternal))
	assert.Equal(t, http.StatusInternalServerError, StatusForKind(""))
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID("INVOICE_NOT_FOUND", "Invoice not found", "req-123")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVOICE_NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "Invoice not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	fields := []ValidationDetail{
		{Field: "id_cliente", Message: "id_cliente is required", Tag: "required"},
		{Field: "productos", Message: "productos must have at least 1 items", Tag: "min"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", fields)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Equal(t, fields, resp.Error.Details)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewDetailedErrorResponse("PAYMENT_MISMATCH", "payments do not match", "req-1",
		map[string]any{"expected": "201.60", "actual": "200.00"})

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")
	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, "PAYMENT_MISMATCH", errObj["code"])
	assert.Equal(t, "req-1", errObj["request_id"])
	details := errObj["details"].(map[string]any)
	assert.Equal(t, "201.60", details["expected"])
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		total         int64
		pageSize      int
		expectedPages int
	}{
		{100, 10, 10},
		{101, 10, 11},
		{0, 10, 0},
		{9, 10, 1},
		{11, 10, 2},
		{100, 0, 0},
	}

	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta([]string{}, tt.total, 1, tt.pageSize)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, tt.expectedPages, resp.Meta.TotalPages, "total=%d size=%d", tt.total, tt.pageSize)
		assert.Equal(t, tt.total, resp.Meta.Total)
	}
}
