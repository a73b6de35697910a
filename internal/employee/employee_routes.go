package employee

import (
	"go-workforce/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
) {
	employees := r.Group("/employees")
	{
		employees.GET("", handler.GetAll)
		employees.GET("/:id", handler.GetById)
		employees.POST("",
			middleware.RateLimitByIP(1, 5),
			middleware.RequireIdempotencyKey(),
			handler.Create,
		)
	}
}
