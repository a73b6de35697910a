package employee

import (
	"errors"
	"testing"

	employeeerrors "go-workforce/internal/employee/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapRepositoryError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "record not found", err: gorm.ErrRecordNotFound, want: employeeerrors.ErrEmployeeNotFound},
		{
			name: "pg unique violation on email",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "uq_employees_email"},
			want: employeeerrors.ErrEmployeeAlreadyExists,
		},
		{
			name: "duplicate key text",
			err:  errors.New(`ERROR: duplicate key value violates unique constraint "uq_employees_email"`),
			want: employeeerrors.ErrEmployeeAlreadyExists,
		},
		{name: "other", err: other, want: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapRepositoryError(tt.err))
		})
	}
}
