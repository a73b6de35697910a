package app

import (
	"context"
	"database/sql"
	"errors"

	"go-workforce/internal/config"
	"go-workforce/internal/messaging/kafka"
	"go-workforce/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// infrastructure holds the process-wide handles. Everything in it is owned
// by the process and released by Close.
type infrastructure struct {
	gormDB  *gorm.DB
	sqlDB   *sql.DB
	rdb     *redis.Client
	channel *kafka.Channel
	outbox  kafka.OutboxRepository
}

func connectInfrastructure(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*infrastructure, error) {
	gormDB, err := connection.ConnectGORMWithRetry(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	rdb, err := connection.ConnectRedisWithRetry(ctx, cfg.Redis, cfg.Database.MaxRetries, logger)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &infrastructure{
		gormDB:  gormDB,
		sqlDB:   sqlDB,
		rdb:     rdb,
		channel: kafka.NewChannel(cfg.Kafka.Brokers, logger),
		outbox:  kafka.NewOutboxRepository(sqlDB),
	}, nil
}

func (i *infrastructure) Close() error {
	return errors.Join(
		i.channel.Close(),
		i.rdb.Close(),
		i.sqlDB.Close(),
	)
}

// BuildApp connects the backing services and registers every module on
// router. The returned func releases the connections.
func BuildApp(ctx context.Context, cfg *config.Config, router *gin.Engine, logger *zap.Logger) (func(), error) {
	infra, err := connectInfrastructure(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// The API does not wait for Kafka: publishes fall back to the outbox.
	if err := connection.ConnectKafkaWithRetry(ctx, cfg.Kafka, 1, logger); err != nil {
		logger.Warn("kafka unreachable at startup, publishes will be deferred to the outbox", zap.Error(err))
	}

	registerModules(router, cfg, infra, logger)

	cleanup := func() {
		if err := infra.Close(); err != nil {
			logger.Warn("close infrastructure failed", zap.Error(err))
		}
	}
	return cleanup, nil
}
