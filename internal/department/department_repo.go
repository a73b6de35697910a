package department

import (
	"context"
	"database/sql"

	"go-workforce/internal/shared/database"

	"gorm.io/gorm"
)

//go:generate mockgen -source=department_repo.go -destination=mock/department_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, dept *Department) error
	FindAll(ctx context.Context) ([]Department, error)
	FindByID(ctx context.Context, id string) (*Department, error)
	Exists(ctx context.Context, id string) (bool, error)
	FindEmployees(ctx context.Context, departmentID string, offset, limit int) ([]Employee, int64, error)
	FindLeaveRequestsByEmployees(ctx context.Context, employeeIDs []string) ([]LeaveRequest, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db, r.tx)
}

func (r *repository) Create(ctx context.Context, dept *Department) error {
	return r.conn(ctx).Create(dept).Error
}

func (r *repository) FindAll(ctx context.Context) ([]Department, error) {
	var depts []Department
	err := r.conn(ctx).
		Order("name ASC").
		Find(&depts).Error
	return depts, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Department, error) {
	var dept Department
	err := r.conn(ctx).
		First(&dept, "id = ?", id).Error
	return &dept, err
}

func (r *repository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&Department{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindEmployees(ctx context.Context, departmentID string, offset, limit int) ([]Employee, int64, error) {
	var total int64
	if err := r.conn(ctx).
		Model(&Employee{}).
		Where("department_id = ?", departmentID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var employees []Employee
	err := r.conn(ctx).
		Where("department_id = ?", departmentID).
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&employees).Error
	return employees, total, err
}

func (r *repository) FindLeaveRequestsByEmployees(ctx context.Context, employeeIDs []string) ([]LeaveRequest, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}

	var leaves []LeaveRequest
	err := r.conn(ctx).
		Where("employee_id IN ?", employeeIDs).
		Order("start_date DESC").
		Find(&leaves).Error
	return leaves, err
}
