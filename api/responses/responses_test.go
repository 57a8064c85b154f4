package responses

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
	"github.com/printveda/printveda-backend/pkg/logger"
	"github.com/printveda/printveda-backend/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"client_txn_id": "PV-abc"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "PV-abc", envelope.Data["client_txn_id"])
}

func TestWriteSuccessStatusCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, "ok")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestWriteErrorValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive").
		WithDetails(map[string]any{"fields": []string{"amount"}})
	WriteError(context.Background(), testLogger(), rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
	assert.Equal(t, "amount must be positive", envelope.Error.Message)
	assert.NotNil(t, envelope.Error.Details)
}

func TestWriteErrorInternalHidesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInternal, "pq: connection reset by peer")
	WriteError(context.Background(), testLogger(), rec, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "internal server error", envelope.Error.Message, "internal detail must not leak")
}

func TestWriteErrorConfigSurfacesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeConfig, "Payment gateway configuration error: merchant key missing")
	WriteError(context.Background(), testLogger(), rec, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "Payment gateway configuration error: merchant key missing", envelope.Error.Message)
}

func TestWriteErrorUntypedBecomesInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), testLogger(), rec, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", envelope.Error.Code)
}

func TestWriteErrorNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), testLogger(), rec, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeError(t, rec)
	assert.Equal(t, "order not found", envelope.Error.Message)
}
