package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-workforce/internal/middleware"
	"go-workforce/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestRequireIdempotencyKey(t *testing.T) {
	r := setupRouter()
	var seen string
	r.POST("/x", middleware.RequireIdempotencyKey(), func(c *gin.Context) {
		seen = contextutil.GetIdempotencyKey(c.Request.Context())
		c.Status(http.StatusCreated)
	})

	cases := []struct {
		name   string
		key    string
		status int
	}{
		{"missing", "", http.StatusBadRequest},
		{"too short", "abc", http.StatusBadRequest},
		{"bad chars", "key with spaces!", http.StatusBadRequest},
		{"too long", "a123456789b123456789c123456789d123456789e123456789f123456789g12345", http.StatusBadRequest},
		{"valid", "leave_req-0001", http.StatusCreated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			if tc.key != "" {
				req.Header.Set(middleware.HeaderIdempotencyKey, tc.key)
			}

			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusCreated {
				assert.Equal(t, tc.key, seen)
			} else {
				assert.Empty(t, seen)
			}
		})
	}
}

func TestRequestIDAndContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := setupRouter()
	r.Use(middleware.RequestID(), middleware.ContextLogger(zap.New(core)))
	r.GET("/x", func(c *gin.Context) {
		assert.Equal(t, "rid-1", contextutil.GetRequestID(c.Request.Context()))
		contextutil.GetLogger(c.Request.Context(), nil).Info("inside")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(middleware.HeaderRequestID, "rid-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, "rid-1", w.Header().Get(middleware.HeaderRequestID))
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "rid-1", logs.All()[0].ContextMap()["request_id"])
}

func TestRequestID_Generated(t *testing.T) {
	r := setupRouter()
	r.Use(middleware.RequestID())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Len(t, w.Header().Get(middleware.HeaderRequestID), 36)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := setupRouter()
	r.Use(middleware.RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 1, logs.FilterMessage("request completed").Len())
	assert.Equal(t, 1, logs.FilterMessage("request rejected").Len())
}

func TestRateLimitByIP(t *testing.T) {
	r := setupRouter()
	r.Use(middleware.RateLimitByIP(rate.Limit(0.001), 1))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/x", nil))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
