package department_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-workforce/internal/department"
	departmenterrors "go-workforce/internal/department/errors"
	"go-workforce/internal/idempotency"
	"go-workforce/internal/middleware"
	"go-workforce/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeDepartmentService struct {
	CreateFn                 func(ctx context.Context, req department.CreateDepartmentRequest, key string) (department.DepartmentResponse, error)
	GetAllFn                 func(ctx context.Context) ([]department.DepartmentResponse, error)
	GetByIDFn                func(ctx context.Context, id string) (department.DepartmentResponse, error)
	GetEmployeesFn           func(ctx context.Context, id string, page, limit int) (department.EmployeePage, error)
	GetEmployeesWithLeavesFn func(ctx context.Context, id string, page, limit int) (department.EmployeeWithLeavesPage, error)
}

func (f *fakeDepartmentService) Create(ctx context.Context, req department.CreateDepartmentRequest, key string) (department.DepartmentResponse, error) {
	return f.CreateFn(ctx, req, key)
}
func (f *fakeDepartmentService) GetAll(ctx context.Context) ([]department.DepartmentResponse, error) {
	return f.GetAllFn(ctx)
}
func (f *fakeDepartmentService) GetByID(ctx context.Context, id string) (department.DepartmentResponse, error) {
	return f.GetByIDFn(ctx, id)
}
func (f *fakeDepartmentService) GetEmployees(ctx context.Context, id string, page, limit int) (department.EmployeePage, error) {
	return f.GetEmployeesFn(ctx, id, page, limit)
}
func (f *fakeDepartmentService) GetEmployeesWithLeaves(ctx context.Context, id string, page, limit int) (department.EmployeeWithLeavesPage, error) {
	return f.GetEmployeesWithLeavesFn(ctx, id, page, limit)
}

func setupRouter(svc department.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	department.RegisterRoutes(r.Group("/api/v1"), department.NewHandler(svc))
	return r
}

type envelope struct {
	Ok    bool                     `json:"ok"`
	Data  json.RawMessage          `json:"data"`
	Meta  *response.PaginationMeta `json:"meta"`
	Error *response.ErrorBody      `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestDepartmentHandler_Create(t *testing.T) {
	t.Run("success passes idempotency key", func(t *testing.T) {
		svc := &fakeDepartmentService{
			CreateFn: func(_ context.Context, req department.CreateDepartmentRequest, key string) (department.DepartmentResponse, error) {
				assert.Equal(t, "HR", req.Name)
				assert.Equal(t, "create-dept-01", key)
				return department.DepartmentResponse{ID: uuid.NewString(), Name: req.Name}, nil
			},
		}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/departments", strings.NewReader(`{"name":"HR"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.HeaderIdempotencyKey, "create-dept-01")

		setupRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, decode(t, w).Ok)
	})

	t.Run("missing idempotency key", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/departments", strings.NewReader(`{"name":"HR"}`))
		req.Header.Set("Content-Type", "application/json")

		setupRouter(&fakeDepartmentService{}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/departments", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.HeaderIdempotencyKey, "create-dept-02")

		setupRouter(&fakeDepartmentService{}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate request", func(t *testing.T) {
		svc := &fakeDepartmentService{
			CreateFn: func(context.Context, department.CreateDepartmentRequest, string) (department.DepartmentResponse, error) {
				return department.DepartmentResponse{}, idempotency.ErrDuplicateRequest
			},
		}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/departments", strings.NewReader(`{"name":"HR"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.HeaderIdempotencyKey, "create-dept-03")

		setupRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Duplicate request", decode(t, w).Error.Message)
	})

	t.Run("infrastructure error is 500", func(t *testing.T) {
		svc := &fakeDepartmentService{
			CreateFn: func(context.Context, department.CreateDepartmentRequest, string) (department.DepartmentResponse, error) {
				return department.DepartmentResponse{}, errors.New("redis: connection refused")
			},
		}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/departments", strings.NewReader(`{"name":"HR"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.HeaderIdempotencyKey, "create-dept-04")

		setupRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestDepartmentHandler_GetByID(t *testing.T) {
	deptID := uuid.NewString()
	svc := &fakeDepartmentService{
		GetByIDFn: func(_ context.Context, id string) (department.DepartmentResponse, error) {
			if id == deptID {
				return department.DepartmentResponse{ID: id, Name: "HR"}, nil
			}
			return department.DepartmentResponse{}, departmenterrors.ErrDepartmentNotFound
		},
	}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/departments/"+deptID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/departments/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDepartmentHandler_GetEmployees(t *testing.T) {
	t.Run("passes pagination and returns meta", func(t *testing.T) {
		svc := &fakeDepartmentService{
			GetEmployeesFn: func(_ context.Context, id string, page, limit int) (department.EmployeePage, error) {
				assert.Equal(t, "d1", id)
				assert.Equal(t, 3, page)
				assert.Equal(t, 20, limit)
				return department.EmployeePage{
					Items: []department.EmployeeResponse{{ID: "e1"}},
					Meta:  response.NewPaginationMeta(41, 3, 20),
				}, nil
			},
		}
		w := httptest.NewRecorder()

		setupRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/departments/d1/employees?page=3&limit=20", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		env := decode(t, w)
		assert.Equal(t, 3, env.Meta.TotalPages)
	})

	t.Run("bad page", func(t *testing.T) {
		w := httptest.NewRecorder()

		setupRouter(&fakeDepartmentService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/departments/d1/employees?page=zero", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDepartmentHandler_GetEmployeesWithLeaves(t *testing.T) {
	svc := &fakeDepartmentService{
		GetEmployeesWithLeavesFn: func(_ context.Context, id string, page, limit int) (department.EmployeeWithLeavesPage, error) {
			assert.Equal(t, department.DefaultPage, page)
			assert.Equal(t, department.DefaultLimit, limit)
			return department.EmployeeWithLeavesPage{Items: []department.EmployeeWithLeavesResponse{}}, nil
		},
	}
	w := httptest.NewRecorder()

	setupRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/departments/d1/employees-with-leaves", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
