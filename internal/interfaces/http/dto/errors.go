package dto

import (
	"net/http"

	"github.com/retailpos/backend/internal/domain/shared"
)

// Transport-level error codes. Domain failures keep their own domain code
// (INSUFFICIENT_STOCK, PAYMENT_MISMATCH, ...) and are mapped by kind.
const (
	ErrCodeInternal       = "ERR_INTERNAL"
	ErrCodeValidation     = "ERR_VALIDATION"
	ErrCodeBadRequest     = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON    = "ERR_INVALID_JSON"
	ErrCodeUnauthorized   = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired   = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid   = "ERR_TOKEN_INVALID"
	ErrCodeNotFound       = "ERR_NOT_FOUND"
	ErrCodeRateLimited    = "ERR_RATE_LIMITED"
	ErrCodeBodyTooLarge   = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRequestTimeout = "ERR_REQUEST_TIMEOUT"
)

// ErrorCodeHTTPStatus maps transport-level codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeValidation:     http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeInvalidJSON:    http.StatusBadRequest,
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	ErrCodeTokenExpired:   http.StatusUnauthorized,
	ErrCodeTokenInvalid:   http.StatusUnauthorized,
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeRateLimited:    http.StatusTooManyRequests,
	ErrCodeBodyTooLarge:   http.StatusRequestEntityTooLarge,
	ErrCodeRequestTimeout: http.StatusGatewayTimeout,
}

// GetHTTPStatus returns the HTTP status for a transport-level code.
// Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// StatusForKind maps a domain error kind to its HTTP status
func StatusForKind(kind shared.ErrorKind) int {
	switch kind {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
