package department

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-workforce/internal/cache"
	departmenterrors "go-workforce/internal/department/errors"
	"go-workforce/internal/idempotency"
	"go-workforce/internal/shared/contextutil"
	"go-workforce/internal/shared/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit far from int overflow.
	MaxPage      = 1_000_000
)

//go:generate mockgen -source=department_service.go -destination=mock/department_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateDepartmentRequest, idempotencyKey string) (DepartmentResponse, error)
	GetAll(ctx context.Context) ([]DepartmentResponse, error)
	GetByID(ctx context.Context, id string) (DepartmentResponse, error)
	GetEmployees(ctx context.Context, id string, page, limit int) (EmployeePage, error)
	GetEmployeesWithLeaves(ctx context.Context, id string, page, limit int) (EmployeeWithLeavesPage, error)
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
	l := zap.L().Named("department.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("department.service")
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
	req CreateDepartmentRequest,
	idempotencyKey string,
) (DepartmentResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create department requested", zap.String("name", req.Name))

	if err := s.guard.Ensure(ctx, idempotency.NamespaceDepartment, idempotencyKey); err != nil {
		return DepartmentResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create department begin tx failed", zap.Error(err))
		return DepartmentResponse{}, err
	}
	defer tx.Rollback()

	now := s.now()
	dept := &Department{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.WithTx(tx).Create(ctx, dept); err != nil {
		log.Error("create department persist failed", zap.Error(err))
		return DepartmentResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("create department commit failed", zap.Error(err))
		return DepartmentResponse{}, err
	}

	if err := s.guard.Record(ctx, idempotency.NamespaceDepartment, idempotencyKey, idempotency.DepartmentCreated{
		DepartmentID: dept.ID.String(),
		CreatedAt:    dept.CreatedAt,
	}); err != nil {
		log.Warn("record department idempotency failed", zap.String("department_id", dept.ID.String()), zap.Error(err))
	}
	if err := s.invalidator.InvalidateKeys(ctx, cache.DepartmentsAllKey); err != nil {
		log.Warn("invalidate departments cache failed", zap.Error(err))
	}

	log.Info("create department success", zap.String("department_id", dept.ID.String()))
	return mapToResponse(*dept), nil
}

func (s *service) GetAll(ctx context.Context) ([]DepartmentResponse, error) {
	var resp []DepartmentResponse
	err := s.reads.Fetch(ctx, cache.DepartmentsAllKey, &resp, func(ctx context.Context) (any, error) {
		depts, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		return mapToListResponse(depts), nil
	})
	return resp, err
}

func (s *service) GetByID(ctx context.Context, id string) (DepartmentResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return DepartmentResponse{}, departmenterrors.ErrDepartmentNotFound
	}

	dept, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DepartmentResponse{}, departmenterrors.ErrDepartmentNotFound
		}
		return DepartmentResponse{}, err
	}
	return mapToResponse(*dept), nil
}

func (s *service) GetEmployees(ctx context.Context, id string, page, limit int) (EmployeePage, error) {
	page, limit, err := normalizePage(page, limit)
	if err != nil {
		return EmployeePage{}, err
	}

	var resp EmployeePage
	err = s.reads.Fetch(ctx, cache.DepartmentEmployeesKey(id, page, limit), &resp, func(ctx context.Context) (any, error) {
		employees, total, err := s.loadEmployees(ctx, id, page, limit)
		if err != nil {
			return nil, err
		}
		return EmployeePage{
			Items: mapEmployees(employees),
			Meta:  response.NewPaginationMeta(total, page, limit),
		}, nil
	})
	return resp, err
}

func (s *service) GetEmployeesWithLeaves(ctx context.Context, id string, page, limit int) (EmployeeWithLeavesPage, error) {
	page, limit, err := normalizePage(page, limit)
	if err != nil {
		return EmployeeWithLeavesPage{}, err
	}

	var resp EmployeeWithLeavesPage
	err = s.reads.Fetch(ctx, cache.DepartmentEmployeesWithLeavesKey(id, page, limit), &resp, func(ctx context.Context) (any, error) {
		employees, total, err := s.loadEmployees(ctx, id, page, limit)
		if err != nil {
			return nil, err
		}

		ids := make([]string, len(employees))
		for i, e := range employees {
			ids[i] = e.ID.String()
		}
		leaves, err := s.repo.FindLeaveRequestsByEmployees(ctx, ids)
		if err != nil {
			return nil, err
		}

		return EmployeeWithLeavesPage{
			Items: mapEmployeesWithLeaves(employees, leaves),
			Meta:  response.NewPaginationMeta(total, page, limit),
		}, nil
	})
	return resp, err
}

func (s *service) loadEmployees(ctx context.Context, id string, page, limit int) ([]Employee, int64, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, 0, departmenterrors.ErrDepartmentNotFound
	}

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, departmenterrors.ErrDepartmentNotFound
	}

	return s.repo.FindEmployees(ctx, id, (page-1)*limit, limit)
}

// normalizePage applies defaults to zero values and rejects the rest.
func normalizePage(page, limit int) (int, int, error) {
	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if page < 0 || page > MaxPage || limit < 0 || limit > MaxLimit {
		return 0, 0, departmenterrors.ErrInvalidPagination
	}
	return page, limit, nil
}

func mapToResponse(d Department) DepartmentResponse {
	return DepartmentResponse{
		ID:        d.ID.String(),
		Name:      d.Name,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
	}
}

func mapToListResponse(depts []Department) []DepartmentResponse {
	resp := make([]DepartmentResponse, len(depts))
	for i, d := range depts {
		resp[i] = mapToResponse(d)
	}
	return resp
}

func mapEmployee(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:           e.ID.String(),
		Name:         e.Name,
		Email:        e.Email,
		DepartmentID: e.DepartmentID.String(),
	}
}

func mapEmployees(employees []Employee) []EmployeeResponse {
	resp := make([]EmployeeResponse, len(employees))
	for i, e := range employees {
		resp[i] = mapEmployee(e)
	}
	return resp
}

func mapEmployeesWithLeaves(employees []Employee, leaves []LeaveRequest) []EmployeeWithLeavesResponse {
	byEmployee := make(map[uuid.UUID][]LeaveResponse, len(employees))
	for _, l := range leaves {
		byEmployee[l.EmployeeID] = append(byEmployee[l.EmployeeID], LeaveResponse{
			ID:        l.ID.String(),
			StartDate: l.StartDate.Format(time.DateOnly),
			EndDate:   l.EndDate.Format(time.DateOnly),
			Status:    l.Status,
		})
	}

	resp := make([]EmployeeWithLeavesResponse, len(employees))
	for i, e := range employees {
		items := byEmployee[e.ID]
		if items == nil {
			items = []LeaveResponse{}
		}
		resp[i] = EmployeeWithLeavesResponse{
			EmployeeResponse: mapEmployee(e),
			LeaveRequests:    items,
		}
	}
	return resp
}
