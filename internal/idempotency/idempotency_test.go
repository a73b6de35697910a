package idempotency_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-workforce/internal/cache"
	"go-workforce/internal/idempotency"
	"go-workforce/internal/shared/apperror"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "idempotency:leaverequest:create:abc12345", idempotency.Key(idempotency.NamespaceLeaveRequestCreate, "abc12345"))
	assert.Equal(t, "idempotency:employee:k", idempotency.Key(idempotency.NamespaceEmployee, "k"))
}

func TestGuard_CheckAndReserve(t *testing.T) {
	ctx := context.Background()
	key := "idempotency:department:dep-key-1"

	t.Run("proceed when no record", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		g := idempotency.NewGuard(cache.NewRedisStore(rdb), time.Hour)
		mock.ExpectExists(key).SetVal(0)

		d, err := g.CheckAndReserve(ctx, idempotency.NamespaceDepartment, "dep-key-1")

		assert.NoError(t, err)
		assert.Equal(t, idempotency.Proceed, d)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already done when record exists", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		g := idempotency.NewGuard(cache.NewRedisStore(rdb), time.Hour)
		mock.ExpectExists(key).SetVal(1)

		d, err := g.CheckAndReserve(ctx, idempotency.NamespaceDepartment, "dep-key-1")

		assert.NoError(t, err)
		assert.Equal(t, idempotency.AlreadyDone, d)
	})
}

func TestGuard_Ensure(t *testing.T) {
	ctx := context.Background()
	key := "idempotency:leaverequest:update:upd-key-1"

	t.Run("duplicate is a conflict", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		g := idempotency.NewGuard(cache.NewRedisStore(rdb), time.Hour)
		mock.ExpectExists(key).SetVal(1)

		err := g.Ensure(ctx, idempotency.NamespaceLeaveRequestUpdate, "upd-key-1")

		assert.ErrorIs(t, err, idempotency.ErrDuplicateRequest)
	})

	t.Run("store failure surfaces unmodified", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		g := idempotency.NewGuard(cache.NewRedisStore(rdb), time.Hour)
		cause := errors.New("dial tcp: connection refused")
		mock.ExpectExists(key).SetErr(cause)

		err := g.Ensure(ctx, idempotency.NamespaceLeaveRequestUpdate, "upd-key-1")

		assert.ErrorIs(t, err, cause)
		assert.False(t, apperror.IsPermanent(err))
		assert.NotErrorIs(t, err, idempotency.ErrDuplicateRequest)
	})

	t.Run("fresh key passes", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		g := idempotency.NewGuard(cache.NewRedisStore(rdb), time.Hour)
		mock.ExpectExists(key).SetVal(0)

		assert.NoError(t, g.Ensure(ctx, idempotency.NamespaceLeaveRequestUpdate, "upd-key-1"))
	})
}

func TestGuard_Record(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	g := idempotency.NewGuard(cache.NewRedisStore(rdb), 0)
	at := time.Date(2025, 10, 5, 8, 30, 0, 0, time.UTC)

	mock.ExpectSet(
		"idempotency:leaverequest:update:upd-key-1",
		[]byte(`{"leaveRequestId":"l-1","updatedAt":"2025-10-05T08:30:00Z","status":"APPROVED"}`),
		idempotency.DefaultTTL,
	).SetVal("OK")

	err := g.Record(context.Background(), idempotency.NamespaceLeaveRequestUpdate, "upd-key-1", idempotency.LeaveRequestUpdated{
		LeaveRequestID: "l-1",
		UpdatedAt:      at,
		Status:         "APPROVED",
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
