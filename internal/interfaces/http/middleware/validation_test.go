package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator_YearMonth(t *testing.T) {
	SetupValidator()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	type ledgerQuery struct {
		Month string `form:"month" binding:"omitempty,yearmonth"`
	}
	for month, valid := range map[string]bool{
		"":        true,
		"2026-03": true,
		"2026-13": false,
		"03-2026": false,
		"2026-3":  false,
	} {
		err := v.Struct(ledgerQuery{Month: month})
		assert.Equal(t, valid, err == nil, "month %q", month)
		if err != nil {
			resp := FormatValidationErrors(err, "req-1")
			require.Len(t, resp.Error.Details, 1)
			assert.Equal(t, "month", resp.Error.Details[0].Field)
			assert.Equal(t, "Must be a month in YYYY-MM format", resp.Error.Details[0].Message)
		}
	}
}

func TestHandleValidationError(t *testing.T) {
	type rejectInput struct {
		Reason string `json:"reason" binding:"required,max=5"`
		Terms  string `json:"terms" binding:"omitempty,oneof=net cod"`
	}

	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var in rejectInput
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("field errors use json names", func(t *testing.T) {
		w := post(`{"reason": "far too long", "terms": "barter"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "reason", resp.Error.Details[0].Field)
		assert.Equal(t, "Must be at most 5 characters", resp.Error.Details[0].Message)
		assert.Equal(t, "terms", resp.Error.Details[1].Field)
		assert.Equal(t, "Must be one of: net cod", resp.Error.Details[1].Message)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := post(`{"reason": `)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Malformed request body")
	})

	t.Run("valid input", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, post(`{"reason": "late"}`).Code)
	})
}
