package leave

import (
	"context"
	"database/sql"
	"time"

	"go-workforce/internal/shared/database"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	FindEmployee(ctx context.Context, employeeID string) (*Employee, error)
	UpdateStatusIfPending(ctx context.Context, id, status string, at time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db, r.tx)
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *repository) FindEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	var e Employee
	err := r.conn(ctx).
		Select("id", "department_id").
		First(&e, "id = ?", employeeID).Error
	return &e, err
}

// UpdateStatusIfPending moves a PENDING request to status and reports how
// many rows changed. Zero means another writer got there first.
func (r *repository) UpdateStatusIfPending(ctx context.Context, id, status string, at time.Time) (int64, error) {
	res := r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{
			"status":     status,
			"updated_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.conn(ctx).Delete(&LeaveRequest{}, "id = ?", id).Error
}
