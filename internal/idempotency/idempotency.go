// Package idempotency suppresses replays of mutating requests.
//
// Callers check a key before touching the store and record the outcome only
// after their transaction committed. The guard never locks: two concurrent
// first attempts with the same key may both proceed.
package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-workforce/internal/cache"
	"go-workforce/internal/shared/apperror"

	"go.uber.org/zap"
)

type Namespace string

const (
	NamespaceEmployee           Namespace = "employee"
	NamespaceDepartment         Namespace = "department"
	NamespaceLeaveRequestCreate Namespace = "leaverequest:create"
	NamespaceLeaveRequestUpdate Namespace = "leaverequest:update"
	NamespaceLeaveRequestDelete Namespace = "leaverequest:delete"
)

const DefaultTTL = 24 * time.Hour

type Decision int

const (
	Proceed Decision = iota
	AlreadyDone
)

func (d Decision) String() string {
	if d == AlreadyDone {
		return "already_done"
	}
	return "proceed"
}

var ErrDuplicateRequest = apperror.New(
	apperror.CodeConflict,
	"Duplicate request",
	http.StatusConflict,
)

// Key builds the store key of a record, e.g. idempotency:leaverequest:create:<key>.
func Key(ns Namespace, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", ns, key)
}

//go:generate mockgen -source=idempotency.go -destination=mock/idempotency_mock.go -package=mock
type Guard interface {
	CheckAndReserve(ctx context.Context, ns Namespace, key string) (Decision, error)
	Ensure(ctx context.Context, ns Namespace, key string) error
	Record(ctx context.Context, ns Namespace, key string, payload any) error
}

type guard struct {
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

func NewGuard(store cache.Store, ttl time.Duration, logger ...*zap.Logger) Guard {
	l := zap.L().Named("idempotency.guard")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("idempotency.guard")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &guard{store: store, ttl: ttl, logger: l}
}

func (g *guard) CheckAndReserve(ctx context.Context, ns Namespace, key string) (Decision, error) {
	done, err := g.store.Exists(ctx, Key(ns, key))
	if err != nil {
		return Proceed, err
	}
	if done {
		return AlreadyDone, nil
	}
	return Proceed, nil
}

// Ensure returns ErrDuplicateRequest when a record already exists for key.
// Lookup failures are returned as they are.
func (g *guard) Ensure(ctx context.Context, ns Namespace, key string) error {
	decision, err := g.CheckAndReserve(ctx, ns, key)
	if err != nil {
		g.logger.Error("idempotency check failed",
			zap.String("namespace", string(ns)),
			zap.Error(err),
		)
		return err
	}
	if decision == AlreadyDone {
		g.logger.Warn("duplicate request rejected",
			zap.String("namespace", string(ns)),
			zap.String("idempotency_key", key),
		)
		return ErrDuplicateRequest
	}
	return nil
}

func (g *guard) Record(ctx context.Context, ns Namespace, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	return g.store.Set(ctx, Key(ns, key), body, g.ttl)
}
