package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	t.Run("With Field", func(t *testing.T) {
		err := &ValidationError{Field: "email", Message: "cannot be empty"}
		assert.Equal(t, "validation failed for field 'email': cannot be empty", err.Error())
	})

	t.Run("Without Field", func(t *testing.T) {
		err := &ValidationError{Message: "payload is malformed"}
		assert.Equal(t, "validation failed: payload is malformed", err.Error())
	})
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("phoneNumber", "cannot be empty")

	assert.ErrorIs(t, err, ErrValidation)

	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
	assert.Equal(t, "phoneNumber", valErr.Field)
}

func TestAppError(t *testing.T) {
	t.Run("Error With Code", func(t *testing.T) {
		err := &AppError{Code: "DB_ERROR", Message: "insert failed"}
		assert.Equal(t, "[DB_ERROR] insert failed", err.Error())
	})

	t.Run("Error Without Code", func(t *testing.T) {
		err := &AppError{Message: "insert failed"}
		assert.Equal(t, "insert failed", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := &AppError{Message: "insert failed", Cause: cause}
		assert.ErrorIs(t, err, cause)
	})
}

func TestWrapDatabaseError(t *testing.T) {
	cause := errors.New("connection refused")

	err := WrapDatabaseError(cause, "failed to insert customer")

	assert.ErrorIs(t, err, ErrDatabase)
	assert.ErrorIs(t, err, cause)

	var appErr *AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "DB_ERROR", appErr.Code)
}
