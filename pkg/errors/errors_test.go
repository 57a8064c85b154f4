package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeDependency, cause, "calling gateway")

	assert.Equal(t, CodeDependency, err.Code())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "calling gateway")
}

func TestWrapNilCause(t *testing.T) {
	err := Wrap(CodeInternal, nil, "no underlying error")
	require.NotNil(t, err)
	assert.Nil(t, err.Unwrap())
}

func TestAsUnwrapsNestedError(t *testing.T) {
	inner := New(CodeValidation, "amount must be positive")
	outer := fmt.Errorf("handling request: %w", inner)

	typed := As(outer)
	require.NotNil(t, typed)
	assert.Equal(t, CodeValidation, typed.Code())
	assert.Equal(t, "amount must be positive", typed.Message())
}

func TestAsPlainError(t *testing.T) {
	assert.Nil(t, As(errors.New("plain")))
	assert.Nil(t, As(nil))
}

func TestMetadataForKnownCodes(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, MetadataFor(CodeValidation).HTTPStatus)
	assert.Equal(t, http.StatusNotFound, MetadataFor(CodeNotFound).HTTPStatus)
	assert.Equal(t, http.StatusUnprocessableEntity, MetadataFor(CodeStateConflict).HTTPStatus)
	assert.Equal(t, http.StatusServiceUnavailable, MetadataFor(CodeDependency).HTTPStatus)
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "missing required fields").
		WithDetails(map[string]any{"fields": []string{"customer_email"}})
	require.NotNil(t, err.Details())
}
