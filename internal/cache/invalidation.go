package cache

import (
	"context"

	"go.uber.org/zap"
)

type Invalidator struct {
	store  Store
	logger *zap.Logger
}

func NewInvalidator(store Store, logger ...*zap.Logger) *Invalidator {
	l := zap.L().Named("cache.invalidator")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("cache.invalidator")
	}
	return &Invalidator{store: store, logger: l}
}

// InvalidateDepartmentEmployeeCaches deletes every cached employee list of
// the department in a single call. An empty department id is a no-op.
func (i *Invalidator) InvalidateDepartmentEmployeeCaches(ctx context.Context, departmentID string) error {
	if departmentID == "" {
		return nil
	}

	pattern := DepartmentEmployeesPattern(departmentID)
	keys, err := i.store.Scan(ctx, pattern)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	if err := i.store.Delete(ctx, keys...); err != nil {
		return err
	}
	i.logger.Debug("department employee caches invalidated",
		zap.String("department_id", departmentID),
		zap.Int("keys", len(keys)),
	)
	return nil
}

func (i *Invalidator) InvalidateKeys(ctx context.Context, keys ...string) error {
	return i.store.Delete(ctx, keys...)
}
