package bootstrap

import (
	"context"
	"testing"
	"time"

	"go-workforce/internal/shared/contextutil"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStdoutAuditLogger_Log(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewStdoutAuditLogger(zap.New(core))
	l.now = func() time.Time { return time.Date(2025, 10, 5, 8, 0, 0, 0, time.UTC) }

	ctx := contextutil.WithRequestID(context.Background(), "req-1")
	l.Log(ctx, AuditLog{
		Action:  "SERVER_SHUTDOWN",
		Message: "Server is shutting down",
		Meta:    map[string]any{"port": "3000"},
	})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		e := entries[0]
		assert.Equal(t, "audit", e.LoggerName)
		fields := e.ContextMap()
		assert.Equal(t, "2025-10-05T08:00:00Z", fields["timestamp"])
		assert.Equal(t, "SERVER_SHUTDOWN", fields["action"])
		assert.Equal(t, "req-1", fields["request_id"])
	}
}
