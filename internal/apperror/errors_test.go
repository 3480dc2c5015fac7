package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestError_Error(t *testing.T) {
	err := NewValidation(CodeRequired, "storage", "value is required")
	assert.Equal(t, "[VALIDATION:REQUIRED] storage: value is required", err.Error())

	wrapped := NewInternal("load bindings", fmt.Errorf("connection refused"))
	assert.Equal(t, "[INTERNAL:UNEXPECTED] load bindings: connection refused", wrapped.Error())
}

func TestError_IsMatchesKindAndCode(t *testing.T) {
	err := NewAlreadyAssigned("cat-1", "attr-1")
	assert.True(t, errors.Is(err, ErrAlreadyAssigned))
	assert.False(t, errors.Is(err, ErrDuplicateVariant))

	wrapped := fmt.Errorf("assign: %w", err)
	assert.True(t, errors.Is(wrapped, ErrAlreadyAssigned))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewInternal("failed", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestFieldsOf(t *testing.T) {
	multi := NewValidationFields([]FieldError{
		{Field: "a", Code: CodeRequired, Message: "a is required"},
		{Field: "b", Code: CodeRequired, Message: "b is required"},
	})
	assert.Len(t, FieldsOf(multi), 2)
	assert.Equal(t, "validation failed on 2 fields", multi.Message)

	single := NewUnsupportedDimensionType("attr-9", "TEXT")
	fields := FieldsOf(single)
	if assert.Len(t, fields, 1) {
		assert.Equal(t, "attr-9", fields[0].Field)
		assert.Equal(t, CodeUnsupportedDimensionType, fields[0].Code)
	}

	assert.Nil(t, FieldsOf(errors.New("plain")))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		http int
		grpc codes.Code
	}{
		{NewValidation(CodeRequired, "x", "required"), http.StatusUnprocessableEntity, codes.InvalidArgument},
		{NewAlreadyAssigned("c", "a"), http.StatusConflict, codes.AlreadyExists},
		{NewUnsupportedDimensionType("a", "TEXT"), http.StatusBadRequest, codes.InvalidArgument},
		{ErrCategoryNotFound, http.StatusNotFound, codes.NotFound},
		{errors.New("boom"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.http, HTTPStatus(tt.err), tt.err.Error())
		assert.Equal(t, tt.grpc, GRPCCode(tt.err), tt.err.Error())
	}
}
