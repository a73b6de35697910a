package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"go-workforce/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestToHTTP(t *testing.T) {
	t.Run("app error keeps status code and message", func(t *testing.T) {
		err := apperror.New(apperror.CodeConflict, "Duplicate request", http.StatusConflict)

		got := apperror.ToHTTP(err)

		assert.Equal(t, http.StatusConflict, got.Status)
		assert.Equal(t, apperror.CodeConflict, got.Code)
		assert.Equal(t, "Duplicate request", got.Message)
	})

	t.Run("wrapped app error is unwrapped", func(t *testing.T) {
		err := fmt.Errorf("create leave: %w", apperror.ErrNotFound)

		got := apperror.ToHTTP(err)

		assert.Equal(t, http.StatusNotFound, got.Status)
		assert.Equal(t, apperror.CodeNotFound, got.Code)
	})

	t.Run("plain error hides its text", func(t *testing.T) {
		got := apperror.ToHTTP(errors.New("dial tcp 10.0.0.1:5432: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, got.Status)
		assert.Equal(t, apperror.CodeInternalError, got.Code)
		assert.Equal(t, apperror.ErrInternal.Message, got.Message)
	})
}

func TestIsPermanent(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"not found", apperror.ErrNotFound, true},
		{"invalid state", apperror.New(apperror.CodeInvalidState, "x", http.StatusBadRequest), true},
		{"conflict wrapped", fmt.Errorf("wrap: %w", apperror.New(apperror.CodeConflict, "dup", http.StatusConflict)), true},
		{"service unavailable", apperror.ErrServiceUnavailable, false},
		{"plain", errors.New("redis: connection pool timeout"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, apperror.IsPermanent(tc.err))
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("boom")
	err := apperror.Wrap(cause, apperror.CodeInternalError, "failed", http.StatusInternalServerError)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed: boom", err.Error())
	assert.Nil(t, apperror.Wrap(nil, apperror.CodeInternalError, "failed", http.StatusInternalServerError))
}

type sample struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Email      string `json:"email" validate:"email"`
}

func TestMapValidationError(t *testing.T) {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})

	t.Run("required", func(t *testing.T) {
		err := v.Struct(sample{Email: "a@b.co"})

		got := apperror.MapValidationError(err)

		assert.Equal(t, apperror.CodeInvalidInput, got.Code)
		assert.Equal(t, "Employee Id is required", got.Message)
	})

	t.Run("other tag", func(t *testing.T) {
		err := v.Struct(sample{EmployeeID: "x", Email: "nope"})

		got := apperror.MapValidationError(err)

		assert.Equal(t, "Email is invalid", got.Message)
	})

	t.Run("not a validation error", func(t *testing.T) {
		got := apperror.MapValidationError(errors.New("EOF"))

		assert.Equal(t, apperror.ErrInvalidInput, got)
	})
}
