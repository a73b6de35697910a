package leaveerrors

import (
	"fmt"
	"net/http"

	"go-workforce/internal/shared/apperror"
)

var (
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"Leave request not found",
		http.StatusNotFound,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid date format, expected YYYY-MM-DD or RFC 3339",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"End date must be after start date",
		http.StatusBadRequest,
	)
	ErrInvalidStatus = apperror.New(
		apperror.CodeInvalidInput,
		"Status must be APPROVED or REJECTED",
		http.StatusBadRequest,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"Invalid leave request status transition",
		http.StatusBadRequest,
	)
)

// InvalidStatusTransition names both statuses and still matches
// ErrInvalidStatusTransition with errors.Is.
func InvalidStatusTransition(current, requested string) *apperror.AppError {
	return &apperror.AppError{
		Code:       apperror.CodeInvalidState,
		Message:    fmt.Sprintf("Cannot change leave request status from %s to %s", current, requested),
		HTTPStatus: http.StatusBadRequest,
		Err:        ErrInvalidStatusTransition,
	}
}
