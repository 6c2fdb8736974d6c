package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLine struct {
	Quantity decimal.Decimal `json:"cantidad" binding:"decimalgt0"`
	Price    decimal.Decimal `json:"precio_unitario" binding:"decimalgte0"`
	Discount decimal.Decimal `json:"descuento_porcentaje" binding:"decimalgte0,decimallte=100"`
}

type testRequest struct {
	ClientID string     `json:"id_cliente" binding:"required,uuid"`
	Lines    []testLine `json:"productos" binding:"required,min=1,dive"`
}

func TestRegisterValidations(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, RegisterValidations(v))

	tests := []struct {
		name    string
		line    testLine
		wantTag string
	}{
		{"valid", testLine{Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(100), Discount: decimal.NewFromInt(10)}, ""},
		{"free item", testLine{Quantity: decimal.NewFromInt(1), Price: decimal.Zero, Discount: decimal.Zero}, ""},
		{"zero quantity", testLine{Quantity: decimal.Zero, Price: decimal.NewFromInt(1)}, TagDecimalGT0},
		{"negative price", testLine{Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(-1)}, TagDecimalGTE0},
		{"discount over 100", testLine{Quantity: decimal.NewFromInt(1), Discount: decimal.NewFromInt(101)}, TagDecimalLTE},
		{"discount exactly 100", testLine{Quantity: decimal.NewFromInt(1), Discount: decimal.NewFromInt(100)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.line)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.wantTag, verrs[0].Tag())
		})
	}
}

func TestHandleValidationError(t *testing.T) {
	require.NoError(t, SetupValidator())

	r := gin.New()
	r.Use(RequestID())
	r.POST("/facturas", func(c *gin.Context) {
		var req testRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(body string) (*httptest.ResponseRecorder, dto.Response) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/facturas", strings.NewReader(body)))
		var resp dto.Response
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		return w, resp
	}

	t.Run("field errors use json names and paths", func(t *testing.T) {
		w, resp := post(`{"id_cliente":"nope","productos":[{"cantidad":0,"precio_unitario":"5"}]}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)

		raw, err := json.Marshal(resp.Error.Details)
		require.NoError(t, err)
		var fields []dto.ValidationDetail
		require.NoError(t, json.Unmarshal(raw, &fields))
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			names = append(names, f.Field)
		}
		assert.ElementsMatch(t, []string{"id_cliente", "productos[0].cantidad"}, names)
	})

	t.Run("decimals accept strings and numbers", func(t *testing.T) {
		w, _ := post(`{"id_cliente":"6f1c1c3e-8a0e-4c7a-9d55-3f1f1f1f1f1f","productos":[{"cantidad":"2","precio_unitario":100.50}]}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("empty product list", func(t *testing.T) {
		w, resp := post(`{"id_cliente":"6f1c1c3e-8a0e-4c7a-9d55-3f1f1f1f1f1f","productos":[]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		w, resp := post(`{"id_cliente":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	})
}
