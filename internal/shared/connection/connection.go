package connection

import (
	"context"
	"fmt"
	"time"

	"go-workforce/internal/config"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const retryDelay = 5 * time.Second

func ConnectGORMWithRetry(
	ctx context.Context,
	cfg config.DatabaseConfig,
	logger *zap.Logger,
) (*gorm.DB, error) {
	log := logger.Named("connection.postgres")
	maxRetries := max(cfg.MaxRetries, 1)

	var lastErr error

	for i := 1; i <= maxRetries; i++ {

		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
			SkipDefaultTransaction: true,
		})
		if err != nil {
			lastErr = err
			log.Warn("gorm open failed", zap.Int("attempt", i), zap.Int("max_retries", maxRetries), zap.Error(err))
			if err := wait(ctx); err != nil {
				return nil, err
			}
			continue
		}

		sqlDB, err := db.DB()
		if err != nil {
			lastErr = err
			log.Warn("get sql.DB failed", zap.Int("attempt", i), zap.Int("max_retries", maxRetries), zap.Error(err))
			if err := wait(ctx); err != nil {
				return nil, err
			}
			continue
		}

		if err := sqlDB.PingContext(ctx); err != nil {
			lastErr = err
			log.Warn("db ping failed", zap.Int("attempt", i), zap.Int("max_retries", maxRetries), zap.Error(err))
			if err := wait(ctx); err != nil {
				return nil, err
			}
			continue
		}

		// Pool config
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)

		log.Info("gorm connected to database", zap.String("host", cfg.Host), zap.String("db", cfg.Name))
		return db, nil
	}

	return nil, fmt.Errorf("database connection failed after %d retries: %w", maxRetries, lastErr)
}

func ConnectRedisWithRetry(
	ctx context.Context,
	cfg config.RedisConfig,
	maxRetries int,
	logger *zap.Logger,
) (*redis.Client, error) {
	log := logger.Named("connection.redis")
	maxRetries = max(maxRetries, 1)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for i := 1; i <= maxRetries; i++ {
		if lastErr = rdb.Ping(ctx).Err(); lastErr == nil {
			log.Info("connected to redis", zap.String("addr", cfg.Addr))
			return rdb, nil
		}

		log.Warn("redis ping failed", zap.Int("attempt", i), zap.Int("max_retries", maxRetries), zap.Error(lastErr))
		if err := wait(ctx); err != nil {
			rdb.Close()
			return nil, err
		}
	}

	rdb.Close()
	return nil, fmt.Errorf("redis connection failed after %d retries: %w", maxRetries, lastErr)
}

// ConnectKafkaWithRetry waits until one of the brokers accepts a
// connection. Writers and readers are created later by the channel.
func ConnectKafkaWithRetry(
	ctx context.Context,
	cfg config.KafkaConfig,
	maxRetries int,
	logger *zap.Logger,
) error {
	log := logger.Named("connection.kafka")
	maxRetries = max(maxRetries, 1)

	var lastErr error
	for i := 1; i <= maxRetries; i++ {
		for _, broker := range cfg.Brokers {
			conn, err := kafkago.DialContext(ctx, "tcp", broker)
			if err != nil {
				lastErr = err
				continue
			}
			conn.Close()
			log.Info("connected to kafka", zap.String("broker", broker))
			return nil
		}

		log.Warn("kafka dial failed", zap.Int("attempt", i), zap.Int("max_retries", maxRetries), zap.Error(lastErr))
		if err := wait(ctx); err != nil {
			return err
		}
	}

	return fmt.Errorf("kafka connection failed after %d retries: %w", maxRetries, lastErr)
}

func wait(ctx context.Context) error {
	t := time.NewTimer(retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
