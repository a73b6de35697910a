package department

import (
	"go-workforce/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	h *Handler,
) {
	departments := r.Group("/departments")
	{
		departments.GET("", h.GetAll)
		departments.POST("",
			middleware.RateLimitByIP(1, 5),
			middleware.RequireIdempotencyKey(),
			h.Create,
		)
		departments.GET("/:id", h.GetById)
		departments.GET("/:id/employees", h.GetEmployees)
		departments.GET("/:id/employees-with-leaves", h.GetEmployeesWithLeaves)
	}
}
