package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature_PaymentPayload(t *testing.T) {
	secret := "s3cr3t"
	payload := PaymentSignaturePayload("order_ABC", "pay_XYZ")
	assert.Equal(t, "order_ABC|pay_XYZ", string(payload))

	sig := GenerateSignature(payload, secret)
	assert.Len(t, sig, 64)
	assert.True(t, VerifySignature(payload, sig, secret))
	assert.True(t, VerifySignature(payload, sig, secret), "verification is repeatable")

	assert.False(t, VerifySignature(payload, sig, "other"))
	assert.False(t, VerifySignature(PaymentSignaturePayload("order_ABC", "pay_XYZ2"), sig, secret))
	assert.False(t, VerifySignature(payload, "", secret))
}

func TestGenerateReceipt(t *testing.T) {
	r, err := GenerateReceipt("65f1c0ffee")
	require.NoError(t, err)
	assert.Equal(t, "rcpt_65f1c0ffee", r)

	r, err = GenerateReceipt("")
	require.NoError(t, err)
	assert.Len(t, r, len("rcpt_")+16)

	r, err = GenerateReceipt("0123456789012345678901234567890123456789")
	require.NoError(t, err)
	assert.Len(t, r, 40)
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", ValidationError("Missing required field: %s", "gender"), http.StatusBadRequest, "Missing required field: gender"},
		{"not found", NotFoundError(ErrProductNotFound), http.StatusNotFound, "Product not found"},
		{"duplicate", &DuplicateKeyError{Key: "product_id"}, http.StatusConflict, "Duplicate key: product_id"},
		{"wrapped app error", fmt.Errorf("svc: %w", ConflictError("already voted", ErrAlreadyVoted)), http.StatusConflict, "already voted"},
		{"upstream", UpstreamError("Failed to fetch products", errors.New("socket closed")), http.StatusInternalServerError, "Failed to fetch products"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			RespondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.NotContains(t, w.Body.String(), "socket closed")
		})
	}
}

func TestList_EmptyDataIsArray(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	List(c, []string{}, 0, nil, nil)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []any{}, body["data"])
	assert.Equal(t, float64(0), body["total"])
	assert.NotContains(t, body, "filters")
}

func TestDuplicateKeyError_IsDuplicate(t *testing.T) {
	err := fmt.Errorf("insert: %w", &DuplicateKeyError{Key: "slug"})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}
