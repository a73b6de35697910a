package leave_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-workforce/internal/idempotency"
	"go-workforce/internal/leave"
	leaveerrors "go-workforce/internal/leave/errors"
	"go-workforce/internal/middleware"
	"go-workforce/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeLeaveService struct {
	CreateFn       func(ctx context.Context, req leave.CreateLeaveRequest, key string) (leave.LeaveResponse, error)
	GetByIDFn      func(ctx context.Context, id string) (leave.LeaveResponse, error)
	UpdateStatusFn func(ctx context.Context, id, status, key string) (*leave.LeaveResponse, error)
	DeleteFn       func(ctx context.Context, id, key string) error
}

func (f *fakeLeaveService) Create(ctx context.Context, req leave.CreateLeaveRequest, key string) (leave.LeaveResponse, error) {
	return f.CreateFn(ctx, req, key)
}
func (f *fakeLeaveService) GetByID(ctx context.Context, id string) (leave.LeaveResponse, error) {
	return f.GetByIDFn(ctx, id)
}
func (f *fakeLeaveService) UpdateStatus(ctx context.Context, id, status, key string) (*leave.LeaveResponse, error) {
	return f.UpdateStatusFn(ctx, id, status, key)
}
func (f *fakeLeaveService) Delete(ctx context.Context, id, key string) error {
	return f.DeleteFn(ctx, id, key)
}

func setupRouter(svc leave.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	leave.RegisterRoutes(r.Group("/api/v1"), leave.NewHandler(svc))
	return r
}

type envelope struct {
	Ok    bool                `json:"ok"`
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func doRequest(r *gin.Engine, method, path, body, key string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if key != "" {
		req.Header.Set(middleware.HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestLeaveHandler_Create(t *testing.T) {
	empID := uuid.NewString()
	body := `{"employeeId":"` + empID + `","startDate":"2025-10-05","endDate":"2025-10-06"}`

	t.Run("created", func(t *testing.T) {
		svc := &fakeLeaveService{
			CreateFn: func(_ context.Context, req leave.CreateLeaveRequest, key string) (leave.LeaveResponse, error) {
				assert.Equal(t, empID, req.EmployeeID)
				assert.Equal(t, "leave-create-01", key)
				return leave.LeaveResponse{ID: uuid.NewString(), Status: leave.StatusPending}, nil
			},
		}

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/leave-requests", body, "leave-create-01")

		assert.Equal(t, http.StatusCreated, w.Code)
		var got leave.LeaveResponse
		assert.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &got))
		assert.Equal(t, leave.StatusPending, got.Status)
	})

	t.Run("missing key", func(t *testing.T) {
		w := doRequest(setupRouter(&fakeLeaveService{}), http.MethodPost, "/api/v1/leave-requests", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		svc := &fakeLeaveService{
			CreateFn: func(context.Context, leave.CreateLeaveRequest, string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, idempotency.ErrDuplicateRequest
			},
		}

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/leave-requests", body, "leave-create-02")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Duplicate request", decodeEnvelope(t, w).Error.Message)
	})

	t.Run("invalid range", func(t *testing.T) {
		svc := &fakeLeaveService{
			CreateFn: func(context.Context, leave.CreateLeaveRequest, string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrInvalidDateRange
			},
		}

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/leave-requests", body, "leave-create-03")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "End date must be after start date", decodeEnvelope(t, w).Error.Message)
	})
}

func TestLeaveHandler_UpdateStatus(t *testing.T) {
	id := uuid.NewString()
	path := "/api/v1/leave-requests/" + id + "/status"

	t.Run("approved", func(t *testing.T) {
		svc := &fakeLeaveService{
			UpdateStatusFn: func(_ context.Context, gotID, status, key string) (*leave.LeaveResponse, error) {
				assert.Equal(t, id, gotID)
				assert.Equal(t, leave.StatusApproved, status)
				assert.Equal(t, "leave-update-01", key)
				return &leave.LeaveResponse{ID: id, Status: status}, nil
			},
		}

		w := doRequest(setupRouter(svc), http.MethodPatch, path, `{"status":"APPROVED"}`, "leave-update-01")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("concurrent change is not an error", func(t *testing.T) {
		svc := &fakeLeaveService{
			UpdateStatusFn: func(context.Context, string, string, string) (*leave.LeaveResponse, error) {
				return nil, nil
			},
		}

		w := doRequest(setupRouter(svc), http.MethodPatch, path, `{"status":"REJECTED"}`, "leave-update-02")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"`+id+`","updated":false}`, string(decodeEnvelope(t, w).Data))
	})

	t.Run("unsupported status", func(t *testing.T) {
		w := doRequest(setupRouter(&fakeLeaveService{}), http.MethodPatch, path, `{"status":"PENDING"}`, "leave-update-03")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid transition", func(t *testing.T) {
		svc := &fakeLeaveService{
			UpdateStatusFn: func(context.Context, string, string, string) (*leave.LeaveResponse, error) {
				return nil, leaveerrors.InvalidStatusTransition(leave.StatusApproved, leave.StatusRejected)
			},
		}

		w := doRequest(setupRouter(svc), http.MethodPatch, path, `{"status":"REJECTED"}`, "leave-update-04")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w)
		assert.Equal(t, "INVALID_STATE", env.Error.Code)
		assert.Contains(t, env.Error.Message, "APPROVED")
		assert.Contains(t, env.Error.Message, "REJECTED")
	})
}

func TestLeaveHandler_GetAndDelete(t *testing.T) {
	id := uuid.NewString()
	svc := &fakeLeaveService{
		GetByIDFn: func(_ context.Context, got string) (leave.LeaveResponse, error) {
			if got != id {
				return leave.LeaveResponse{}, leaveerrors.ErrLeaveNotFound
			}
			return leave.LeaveResponse{ID: id}, nil
		},
		DeleteFn: func(_ context.Context, got, key string) error {
			assert.Equal(t, "leave-delete-01", key)
			if got != id {
				return leaveerrors.ErrLeaveNotFound
			}
			return nil
		},
	}
	r := setupRouter(svc)

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/api/v1/leave-requests/"+id, "", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodGet, "/api/v1/leave-requests/"+uuid.NewString(), "", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodDelete, "/api/v1/leave-requests/"+id, "", "leave-delete-01").Code)
}
