package payments

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printveda/printveda-backend/internal/reconcile"
	"github.com/printveda/printveda-backend/pkg/enums"
	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
	"github.com/printveda/printveda-backend/pkg/types"
)

func TestCheckStatusResolves(t *testing.T) {
	svc := &stubReconcileService{result: &reconcile.ResolveResult{
		TransactionID: "PV-abc",
		Status:        enums.OrderStatusSuccess,
		State:         enums.SettlementSuccess,
		Amount:        decimal.NewFromInt(500),
		ProviderTxnID: "AXIS123",
	}}

	body := `{"client_txn_id": "PV-abc", "txn_date": "21-08-2026"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/check-status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	CheckStatus(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			ClientTxnID string `json:"client_txn_id"`
			Status      string `json:"status"`
			State       string `json:"state"`
			UPITxnID    string `json:"upi_txn_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "PV-abc", envelope.Data.ClientTxnID)
	assert.Equal(t, "success", envelope.Data.Status)
	assert.Equal(t, "AXIS123", envelope.Data.UPITxnID)

	require.NotNil(t, svc.input)
	assert.Equal(t, "21-08-2026", svc.input.TxnDate)
}

func TestCheckStatusMissingTxnID(t *testing.T) {
	svc := &stubReconcileService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/check-status", strings.NewReader(`{"txn_date": "21-08-2026"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	CheckStatus(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.input)
}

func TestCheckStatusUnknownOrder(t *testing.T) {
	svc := &stubReconcileService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/check-status", strings.NewReader(`{"client_txn_id": "PV-missing"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	CheckStatus(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckStatusQueryByOrderID(t *testing.T) {
	svc := &stubReconcileService{result: &reconcile.ResolveResult{
		TransactionID: "PV-abc",
		Status:        enums.OrderStatusPending,
		State:         enums.SettlementPending,
	}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/check-status?orderId=PV-abc", nil)
	rec := httptest.NewRecorder()
	CheckStatusQuery(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.input)
	assert.Equal(t, "PV-abc", svc.input.OrderID)
	assert.Empty(t, svc.input.TransactionID)
}

func TestCheckStatusQueryMissingParam(t *testing.T) {
	svc := &stubReconcileService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/check-status", nil)
	rec := httptest.NewRecorder()
	CheckStatusQuery(svc, testLogger())(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Error.Message, "orderId")
}
