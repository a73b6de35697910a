package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-workforce/internal/cache"
	"go-workforce/internal/events"
	"go-workforce/internal/idempotency"
	leaveerrors "go-workforce/internal/leave/errors"
	"go-workforce/internal/messaging"
	"go-workforce/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoAdjudicationWindow is the longest leave, exclusive, that is handed
// to the worker for automatic approval.
const AutoAdjudicationWindow = 48 * time.Hour

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateLeaveRequest, idempotencyKey string) (LeaveResponse, error)
	GetByID(ctx context.Context, id string) (LeaveResponse, error)
	UpdateStatus(ctx context.Context, id, status, idempotencyKey string) (*LeaveResponse, error)
	Delete(ctx context.Context, id, idempotencyKey string) error
}

type service struct {
	db          *sql.DB
	repo        Repository
	guard       idempotency.Guard
	invalidator *cache.Invalidator
	publisher   messaging.Publisher
	queue       string
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(
	db *sql.DB,
	repo Repository,
	guard idempotency.Guard,
	invalidator *cache.Invalidator,
	publisher messaging.Publisher,
	queue string,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:          db,
		repo:        repo,
		guard:       guard,
		invalidator: invalidator,
		publisher:   publisher,
		queue:       queue,
		logger:      l,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, req CreateLeaveRequest, idempotencyKey string) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create leave requested",
		zap.String("employee_id", req.EmployeeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	if err := s.guard.Ensure(ctx, idempotency.NamespaceLeaveRequestCreate, idempotencyKey); err != nil {
		return LeaveResponse{}, err
	}

	emp, err := s.findEmployee(ctx, req.EmployeeID)
	if err != nil {
		return LeaveResponse{}, err
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !endDate.After(startDate) {
		return LeaveResponse{}, leaveerrors.ErrInvalidDateRange
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	now := s.now()
	l := &LeaveRequest{
		ID:         uuid.New(),
		EmployeeID: emp.ID,
		StartDate:  startDate,
		EndDate:    endDate,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.WithTx(tx).Create(ctx, l); err != nil {
		log.Error("create leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("create leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.guard.Record(ctx, idempotency.NamespaceLeaveRequestCreate, idempotencyKey, idempotency.LeaveRequestCreated{
		LeaveRequestID: l.ID.String(),
		CreatedAt:      l.CreatedAt,
	}); err != nil {
		log.Warn("record leave create idempotency failed", zap.String("leave_id", l.ID.String()), zap.Error(err))
	}
	s.invalidateDepartment(ctx, emp.DepartmentID.String())

	if endDate.Sub(startDate) < AutoAdjudicationWindow {
		s.publishAdjudication(ctx, l.ID.String(), idempotencyKey)
	}

	log.Info("create leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", emp.ID.String()),
	)
	return mapToResponse(*l), nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveResponse, error) {
	l, err := s.findLeave(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	return mapToResponse(*l), nil
}

// UpdateStatus adjudicates a PENDING request. A nil response with a nil
// error means a concurrent writer already moved the request out of PENDING.
func (s *service) UpdateStatus(ctx context.Context, id, status, idempotencyKey string) (*LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("update leave status requested", zap.String("leave_id", id), zap.String("status", status))

	if err := s.guard.Ensure(ctx, idempotency.NamespaceLeaveRequestUpdate, idempotencyKey); err != nil {
		return nil, err
	}
	if status != StatusApproved && status != StatusRejected {
		return nil, leaveerrors.ErrInvalidStatus
	}

	l, err := s.findLeave(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Status != StatusPending {
		return nil, leaveerrors.InvalidStatusTransition(l.Status, status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("update leave status begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	now := s.now()
	rows, err := s.repo.WithTx(tx).UpdateStatusIfPending(ctx, id, status, now)
	if err != nil {
		log.Error("update leave status persist failed", zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("update leave status commit failed", zap.Error(err))
		return nil, err
	}

	if rows == 0 {
		log.Info("leave status already changed concurrently", zap.String("leave_id", id))
		return nil, nil
	}

	if err := s.guard.Record(ctx, idempotency.NamespaceLeaveRequestUpdate, idempotencyKey, idempotency.LeaveRequestUpdated{
		LeaveRequestID: id,
		UpdatedAt:      now,
		Status:         status,
	}); err != nil {
		log.Warn("record leave update idempotency failed", zap.String("leave_id", id), zap.Error(err))
	}

	emp, err := s.repo.FindEmployee(ctx, l.EmployeeID.String())
	if err != nil {
		log.Warn("resolve leave employee failed", zap.String("leave_id", id), zap.Error(err))
	} else {
		s.invalidateDepartment(ctx, emp.DepartmentID.String())
	}

	l.Status = status
	l.UpdatedAt = now
	resp := mapToResponse(*l)

	log.Info("update leave status success", zap.String("leave_id", id), zap.String("status", status))
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, id, idempotencyKey string) error {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("delete leave requested", zap.String("leave_id", id))

	if err := s.guard.Ensure(ctx, idempotency.NamespaceLeaveRequestDelete, idempotencyKey); err != nil {
		return err
	}

	l, err := s.findLeave(ctx, id)
	if err != nil {
		return err
	}

	var departmentID string
	emp, err := s.repo.FindEmployee(ctx, l.EmployeeID.String())
	switch {
	case err == nil:
		departmentID = emp.DepartmentID.String()
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Warn("leave employee missing, skipping invalidation", zap.String("leave_id", id))
	default:
		log.Error("delete leave employee lookup failed", zap.Error(err))
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("delete leave begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
		log.Error("delete leave persist failed", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("delete leave commit failed", zap.Error(err))
		return err
	}

	if err := s.guard.Record(ctx, idempotency.NamespaceLeaveRequestDelete, idempotencyKey, idempotency.LeaveRequestDeleted{
		LeaveRequestID: id,
		DeletedAt:      s.now(),
	}); err != nil {
		log.Warn("record leave delete idempotency failed", zap.String("leave_id", id), zap.Error(err))
	}
	s.invalidateDepartment(ctx, departmentID)

	log.Info("delete leave success", zap.String("leave_id", id))
	return nil
}

func (s *service) findLeave(ctx context.Context, id string) (*LeaveRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, leaveerrors.ErrLeaveNotFound
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *service) findEmployee(ctx context.Context, id string) (*Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, leaveerrors.ErrEmployeeNotFound
	}
	emp, err := s.repo.FindEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrEmployeeNotFound
		}
		return nil, err
	}
	return emp, nil
}

func (s *service) invalidateDepartment(ctx context.Context, departmentID string) {
	if err := s.invalidator.InvalidateDepartmentEmployeeCaches(ctx, departmentID); err != nil {
		contextutil.GetLogger(ctx, s.logger).Warn("invalidate department caches failed",
			zap.String("department_id", departmentID),
			zap.Error(err),
		)
	}
}

// publishAdjudication hands the request to the worker. The request is
// already committed, so failures are logged and the leave stays PENDING.
func (s *service) publishAdjudication(ctx context.Context, leaveID, idempotencyKey string) {
	log := contextutil.GetLogger(ctx, s.logger)

	body, err := events.LeaveRequestAdjudication{
		IdempotencyKey: idempotencyKey,
		LeaveID:        leaveID,
	}.Encode()
	if err != nil {
		log.Error("encode adjudication message failed", zap.String("leave_id", leaveID), zap.Error(err))
		return
	}

	if err := s.publisher.Publish(ctx, s.queue, messaging.Message{Key: leaveID, Body: body}); err != nil {
		log.Error("publish adjudication message failed",
			zap.String("leave_id", leaveID),
			zap.String("queue", s.queue),
			zap.Error(err),
		)
		return
	}
	log.Debug("adjudication message published", zap.String("leave_id", leaveID), zap.String("queue", s.queue))
}

// parseDate accepts YYYY-MM-DD or RFC 3339 and keeps only the UTC date.
func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		t, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, leaveerrors.ErrInvalidDateFormat
		}
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	return LeaveResponse{
		ID:         l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		StartDate:  l.StartDate.Format(time.DateOnly),
		EndDate:    l.EndDate.Format(time.DateOnly),
		Status:     l.Status,
		CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  l.UpdatedAt.Format(time.RFC3339),
	}
}
