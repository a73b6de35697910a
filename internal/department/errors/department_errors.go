package departmenterrors

import (
	"net/http"

	"go-workforce/internal/shared/apperror"
)

var (
	ErrDepartmentNotFound = apperror.New(
		apperror.CodeNotFound,
		"Department not found",
		http.StatusNotFound,
	)
	ErrInvalidPagination = apperror.New(
		apperror.CodeInvalidInput,
		"page and limit must be positive integers",
		http.StatusBadRequest,
	)
)
