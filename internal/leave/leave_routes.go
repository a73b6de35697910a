package leave

import (
	"go-workforce/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
) {
	leaves := r.Group("/leave-requests")
	{
		leaves.GET("/:id", handler.GetById)

		leaves.POST("",
			middleware.RateLimitByIP(1, 5),
			middleware.RequireIdempotencyKey(),
			handler.Create,
		)

		leaves.PATCH("/:id/status",
			middleware.RateLimitByIP(1, 5),
			middleware.RequireIdempotencyKey(),
			handler.UpdateStatus,
		)

		leaves.DELETE("/:id",
			middleware.RateLimitByIP(0.5, 2),
			middleware.RequireIdempotencyKey(),
			handler.Delete,
		)
	}
}
