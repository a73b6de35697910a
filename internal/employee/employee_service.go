package employee

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-workforce/internal/cache"
	employeeerrors "go-workforce/internal/employee/errors"
	"go-workforce/internal/idempotency"
	"go-workforce/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest, idempotencyKey string) (EmployeeResponse, error)
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
}

type service struct {
	db          *sql.DB
	repo        Repository
	guard       idempotency.Guard
	reads       *cache.ReadThrough
	invalidator *cache.Invalidator
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(
	db *sql.DB,
	repo Repository,
	guard idempotency.Guard,
	reads *cache.ReadThrough,
	invalidator *cache.Invalidator,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:          db,
		repo:        repo,
		guard:       guard,
		reads:       reads,
		invalidator: invalidator,
		logger:      l,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(
	ctx context.Context,
	req CreateEmployeeRequest,
	idempotencyKey string,
) (EmployeeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create employee requested", zap.String("department_id", req.DepartmentID))

	if err := s.guard.Ensure(ctx, idempotency.NamespaceEmployee, idempotencyKey); err != nil {
		return EmployeeResponse{}, err
	}

	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrDepartmentNotFound
	}
	exists, err := s.repo.DepartmentExists(ctx, departmentID.String())
	if err != nil {
		log.Error("create employee department lookup failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	if !exists {
		return EmployeeResponse{}, employeeerrors.ErrDepartmentNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	now := s.now()
	emp := &Employee{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		DepartmentID: departmentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.WithTx(tx).Create(ctx, emp); err != nil {
		log.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("create employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	if err := s.guard.Record(ctx, idempotency.NamespaceEmployee, idempotencyKey, idempotency.EmployeeCreated{
		EmployeeID: emp.ID.String(),
		CreatedAt:  emp.CreatedAt,
	}); err != nil {
		log.Warn("record employee idempotency failed", zap.String("employee_id", emp.ID.String()), zap.Error(err))
	}
	if err := s.invalidator.InvalidateDepartmentEmployeeCaches(ctx, emp.DepartmentID.String()); err != nil {
		log.Warn("invalidate department employee caches failed", zap.Error(err))
	}
	if err := s.invalidator.InvalidateKeys(ctx, cache.EmployeesAllKey); err != nil {
		log.Warn("invalidate employees cache failed", zap.Error(err))
	}

	log.Info("create employee success", zap.String("employee_id", emp.ID.String()))
	return mapToResponse(*emp), nil
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	var resp []EmployeeResponse
	err := s.reads.Fetch(ctx, cache.EmployeesAllKey, &resp, func(ctx context.Context) (any, error) {
		employees, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		return mapToListResponse(employees), nil
	})
	return resp, err
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
	}

	emp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}
	return mapToResponse(*emp), nil
}

func mapToResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:           e.ID.String(),
		Name:         e.Name,
		Email:        e.Email,
		DepartmentID: e.DepartmentID.String(),
		CreatedAt:    e.CreatedAt.Format(time.RFC3339),
	}
}

func mapToListResponse(employees []Employee) []EmployeeResponse {
	resp := make([]EmployeeResponse, len(employees))
	for i, e := range employees {
		resp[i] = mapToResponse(e)
	}
	return resp
}
