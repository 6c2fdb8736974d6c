package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is dto.Response with a typed payload.
type Envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

// APIClient sends requests to an http.Handler with the gateway identity
// headers already set.
type APIClient struct {
	t          *testing.T
	handler    http.Handler
	TenantID   uuid.UUID
	BranchID   uuid.UUID
	EmployeeID uuid.UUID
	headers    map[string]string
}

// NewAPIClient creates a client that identifies as the standard fixture
// tenant, branch and employee.
func NewAPIClient(t *testing.T, handler http.Handler) *APIClient {
	return &APIClient{
		t:          t,
		handler:    handler,
		TenantID:   TestTenantID(),
		BranchID:   TestBranchID(),
		EmployeeID: TestEmployeeID(),
		headers:    map[string]string{},
	}
}

// WithHeader returns a copy of the client that also sends key.
func (c *APIClient) WithHeader(key, value string) *APIClient {
	clone := *c
	clone.headers = make(map[string]string, len(c.headers)+1)
	for k, v := range c.headers {
		clone.headers[k] = v
	}
	clone.headers[key] = value
	return &clone
}

// Anonymous returns a copy of the client that sends no identity headers.
func (c *APIClient) Anonymous() *APIClient {
	clone := *c
	clone.TenantID = uuid.Nil
	clone.EmployeeID = uuid.Nil
	clone.BranchID = uuid.Nil
	return &clone
}

// Do sends the request; body is marshalled to JSON unless nil.
func (c *APIClient) Do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err, "Failed to marshal request body")
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.TenantID != uuid.Nil {
		req.Header.Set(middleware.TenantIDHeader, c.TenantID.String())
	}
	if c.EmployeeID != uuid.Nil {
		req.Header.Set(middleware.EmployeeIDHeader, c.EmployeeID.String())
	}
	if c.BranchID != uuid.Nil {
		req.Header.Set(middleware.BranchIDHeader, c.BranchID.String())
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	return w
}

// Get sends a GET request.
func (c *APIClient) Get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(http.MethodGet, path, nil)
}

// Post sends a POST request with a JSON body.
func (c *APIClient) Post(path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(http.MethodPost, path, body)
}

// Put sends a PUT request with a JSON body.
func (c *APIClient) Put(path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(http.MethodPut, path, body)
}

// DecodeEnvelope parses the response body into an Envelope.
func DecodeEnvelope[T any](t *testing.T, w *httptest.ResponseRecorder) Envelope[T] {
	t.Helper()

	var env Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Failed to parse JSON response: %s", w.Body.String())
	return env
}

// RequireData asserts status and success, then returns the payload.
func RequireData[T any](t *testing.T, w *httptest.ResponseRecorder, status int) T {
	t.Helper()

	require.Equal(t, status, w.Code, w.Body.String())
	env := DecodeEnvelope[T](t, w)
	require.True(t, env.Success, "Expected success to be true")
	return env.Data
}

// AssertErrorResponse asserts status and the error code of a failed response.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, status int, code string) *dto.ErrorInfo {
	t.Helper()

	assert.Equal(t, status, w.Code, w.Body.String())
	env := DecodeEnvelope[json.RawMessage](t, w)
	assert.False(t, env.Success, "Expected success to be false")
	require.NotNil(t, env.Error, "Expected error object in response")
	assert.Equal(t, code, env.Error.Code)
	return env.Error
}
