package middleware

import (
	"net/http"
	"regexp"

	"go-workforce/internal/shared/apperror"
	"go-workforce/internal/shared/contextutil"
	"go-workforce/internal/shared/response"

	"github.com/gin-gonic/gin"
)

const HeaderIdempotencyKey = "Idempotency-Key"

var idempotencyKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// RequireIdempotencyKey rejects mutating requests without a well-formed
// Idempotency-Key header and passes the key on through the request context.
func RequireIdempotencyKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			response.Abort(c, http.StatusBadRequest, apperror.CodeInvalidInput, "Idempotency-Key header is required")
			return
		}
		if !idempotencyKeyPattern.MatchString(key) {
			response.Abort(c, http.StatusBadRequest, apperror.CodeInvalidInput,
				"Idempotency-Key must be 8-64 characters of letters, digits, '-' or '_'")
			return
		}

		c.Set("idempotency_key", key)
		ctx := contextutil.WithIdempotencyKey(c.Request.Context(), key)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
