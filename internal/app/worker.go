package app

import (
	"context"

	"go-workforce/internal/config"
	"go-workforce/internal/messaging/kafka"
	"go-workforce/internal/messaging/kafka/consumer"
	"go-workforce/internal/messaging/kafka/producer"
	"go-workforce/internal/shared/connection"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunWorker runs the leave adjudication consumer and the outbox relay until
// ctx is cancelled or one of them fails.
func RunWorker(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.worker")

	infra, err := connectInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := infra.Close(); err != nil {
			log.Warn("close infrastructure failed", zap.Error(err))
		}
	}()

	if err := connection.ConnectKafkaWithRetry(ctx, cfg.Kafka, cfg.Database.MaxRetries, logger); err != nil {
		return err
	}

	svc := buildServices(cfg, infra, logger)

	sub, err := infra.channel.Subscribe(cfg.Queue.Name, cfg.Kafka.GroupID)
	if err != nil {
		return err
	}

	adjudicator := consumer.NewLeaveAdjudicationConsumer(
		sub,
		infra.channel,
		kafka.NewRetryScheduler(infra.outbox),
		svc.leave,
		consumer.RetryPolicy{
			Queue:                       cfg.Queue.Name,
			DeadLetterQueue:             cfg.Queue.DLQName,
			MaxRetries:                  cfg.Worker.MaxRetries,
			BackoffBase:                 cfg.Worker.BackoffBase,
			BackoffMax:                  cfg.Worker.BackoffMax,
			DeadLetterPermanentFailures: cfg.Worker.DeadLetterPermanentFailures,
		},
		logger,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return adjudicator.Run(gctx)
	})
	g.Go(func() error {
		producer.ProcessOutboxEvents(gctx, infra.outbox, infra.channel, logger, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize)
		return nil
	})

	log.Info("worker started",
		zap.String("queue", cfg.Queue.Name),
		zap.String("dlq", cfg.Queue.DLQName),
		zap.String("group_id", cfg.Kafka.GroupID),
	)

	err = g.Wait()
	log.Info("worker stopped")
	return err
}
