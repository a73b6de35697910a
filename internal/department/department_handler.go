package department

import (
	"net/http"
	"strconv"

	departmenterrors "go-workforce/internal/department/errors"
	"go-workforce/internal/shared/apperror"
	"go-workforce/internal/shared/contextutil"
	"go-workforce/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("department.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("department.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("department request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	key := contextutil.GetIdempotencyKey(c.Request.Context())
	resp, err := h.service.Create(c.Request.Context(), req, key)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	resp, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetById(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetEmployees(c *gin.Context) {
	page, limit, ok := h.pagination(c)
	if !ok {
		return
	}

	resp, err := h.service.GetEmployees(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp.Items, &resp.Meta)
}

func (h *Handler) GetEmployeesWithLeaves(c *gin.Context) {
	page, limit, ok := h.pagination(c)
	if !ok {
		return
	}

	resp, err := h.service.GetEmployeesWithLeaves(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp.Items, &resp.Meta)
}

func (h *Handler) pagination(c *gin.Context) (int, int, bool) {
	page, errPage := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, errLimit := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if errPage != nil || errLimit != nil || page < 1 || limit < 1 {
		h.writeServiceError(c, departmenterrors.ErrInvalidPagination)
		return 0, 0, false
	}
	return page, limit, true
}
