package app

import (
	"go-workforce/internal/cache"
	"go-workforce/internal/config"
	"go-workforce/internal/department"
	"go-workforce/internal/employee"
	"go-workforce/internal/idempotency"
	"go-workforce/internal/leave"
	"go-workforce/internal/messaging/kafka"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type services struct {
	department department.Service
	employee   employee.Service
	leave      leave.Service
}

func buildServices(cfg *config.Config, infra *infrastructure, logger *zap.Logger) services {
	// --- Cache / idempotency ---
	store := cache.NewRedisStore(infra.rdb)
	reads := cache.NewReadThrough(store, cfg.Cache.TTL, logger)
	invalidator := cache.NewInvalidator(store, logger)
	guard := idempotency.NewGuard(store, cfg.Idempotency.TTL, logger)

	// --- Messaging ---
	publisher := kafka.NewOutboxFallbackPublisher(infra.channel, infra.outbox, logger)

	// --- Repositories ---
	departmentRepo := department.NewRepository(infra.gormDB)
	employeeRepo := employee.NewRepository(infra.gormDB)
	leaveRepo := leave.NewRepository(infra.gormDB)

	// --- Services ---
	return services{
		department: department.NewService(infra.sqlDB, departmentRepo, guard, reads, invalidator, logger),
		employee:   employee.NewService(infra.sqlDB, employeeRepo, guard, reads, invalidator, logger),
		leave:      leave.NewService(infra.sqlDB, leaveRepo, guard, invalidator, publisher, cfg.Queue.Name, logger),
	}
}

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	infra *infrastructure,
	logger *zap.Logger,
) {
	svc := buildServices(cfg, infra, logger)

	// --- Handlers ---
	departmentHandler := department.NewHandler(svc.department, logger)
	employeeHandler := employee.NewHandler(svc.employee, logger)
	leaveHandler := leave.NewHandler(svc.leave, logger)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		department.RegisterRoutes(api, departmentHandler)
		employee.RegisterRoutes(api, employeeHandler)
		leave.RegisterRoutes(api, leaveHandler)
	}
}
