package phonepe

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
)

const (
	testMerchantID = "PVMERCHANT"
	testSaltKey    = "salt-key-1"
	testSaltIndex  = "1"
)

func testChecksum(payload string) string {
	sum := sha256.Sum256([]byte(payload + testSaltKey))
	return hex.EncodeToString(sum[:]) + "###" + testSaltIndex
}

func TestPaySendsSignedBase64Payload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pg/v1/pay", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		encoded := body["request"]
		require.NotEmpty(t, encoded)

		require.Equal(t, testChecksum(encoded+"/pg/v1/pay"), r.Header.Get("X-VERIFY"))

		decoded, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(decoded, &payload))
		assert.Equal(t, testMerchantID, payload["merchantId"])
		assert.Equal(t, "PVtxn1", payload["merchantTransactionId"])
		assert.Equal(t, float64(50000), payload["amount"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"code":    CodePaymentPending,
			"message": "Payment initiated",
			"data": map[string]any{
				"instrumentResponse": map[string]any{
					"redirectInfo": map[string]any{"url": "https://mercury.phonepe.example/pay/abc"},
				},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(testMerchantID, testSaltKey, testSaltIndex, WithBaseURL(server.URL))
	require.NoError(t, err)

	result, err := client.Pay(context.Background(), PayRequest{
		MerchantTransactionID: "PVtxn1",
		MerchantUserID:        "asha@example.com",
		AmountPaise:           50000,
		RedirectURL:           "https://shop.example/return",
		CallbackURL:           "https://shop.example/api/v1/payment/phonepe-callback",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "https://mercury.phonepe.example/pay/abc", result.RedirectURL)
}

func TestPayRejectsNonPositiveAmount(t *testing.T) {
	client, err := NewClient(testMerchantID, testSaltKey, testSaltIndex)
	require.NoError(t, err)

	_, err = client.Pay(context.Background(), PayRequest{MerchantTransactionID: "PVtxn1"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestStatusSignsPathAndDecodesState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/pg/v1/status/" + testMerchantID + "/PVtxn1"
		require.Equal(t, wantPath, r.URL.Path)
		require.Equal(t, testChecksum(wantPath), r.Header.Get("X-VERIFY"))
		require.Equal(t, testMerchantID, r.Header.Get("X-MERCHANT-ID"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"code":    CodePaymentSuccess,
			"data": map[string]any{
				"transactionId": "T2407221851",
				"amount":        float64(50000),
				"state":         "COMPLETED",
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(testMerchantID, testSaltKey, testSaltIndex, WithBaseURL(server.URL))
	require.NoError(t, err)

	result, err := client.Status(context.Background(), "PVtxn1")
	require.NoError(t, err)
	assert.Equal(t, CodePaymentSuccess, result.Code)
	assert.Equal(t, int64(50000), result.AmountPaise)
	assert.Equal(t, "T2407221851", result.ProviderTxnID)
}

func TestVerifyCallback(t *testing.T) {
	client, err := NewClient(testMerchantID, testSaltKey, testSaltIndex)
	require.NoError(t, err)

	encoded := base64.StdEncoding.EncodeToString([]byte(`{"code":"PAYMENT_SUCCESS"}`))

	require.NoError(t, client.VerifyCallback(testChecksum(encoded), encoded))

	err = client.VerifyCallback("deadbeef###1", encoded)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestDecodeCallback(t *testing.T) {
	body := map[string]any{
		"code": CodePaymentSuccess,
		"data": map[string]any{
			"merchantId":            testMerchantID,
			"merchantTransactionId": "PVtxn1",
			"transactionId":         "T2407221851",
			"amount":                float64(50000),
			"state":                 "COMPLETED",
		},
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	payload, err := DecodeCallback(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, CodePaymentSuccess, payload.Code)
	assert.Equal(t, "PVtxn1", payload.MerchantTransactionID)
	assert.Equal(t, int64(50000), payload.AmountPaise)
	assert.Equal(t, "COMPLETED", payload.State)

	_, err = DecodeCallback("not-base64!!")
	require.Error(t, err)
}
