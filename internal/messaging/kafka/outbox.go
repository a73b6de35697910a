package kafka

import (
	"context"
	"fmt"
	"time"

	"go-workforce/internal/messaging"
	"go-workforce/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	AggregateTypeMessage = "message"

	EventTypeDelayedRedelivery = "delayed_redelivery"
	EventTypeDeferredPublish   = "deferred_publish"
)

func newOutboxEvent(ctx context.Context, eventType, queue string, msg messaging.Message, readyAt time.Time) OutboxEvent {
	return OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: AggregateTypeMessage,
		AggregateID:   msg.Key,
		EventType:     eventType,
		Topic:         queue,
		Payload:       msg.Body,
		Headers:       messaging.CloneHeaders(msg.Headers),
		Status:        OutboxStatusPending,
		NextRetryAt:   readyAt,
	}
}

// RetryScheduler parks a message in the outbox until readyAt. The outbox
// relay publishes it once it is due.
type RetryScheduler struct {
	repo OutboxRepository
}

func NewRetryScheduler(repo OutboxRepository) *RetryScheduler {
	return &RetryScheduler{repo: repo}
}

func (s *RetryScheduler) Schedule(ctx context.Context, queue string, msg messaging.Message, readyAt time.Time) error {
	if err := s.repo.Create(ctx, newOutboxEvent(ctx, EventTypeDelayedRedelivery, queue, msg, readyAt)); err != nil {
		return fmt.Errorf("schedule redelivery to %s: %w", queue, err)
	}
	return nil
}

// OutboxFallbackPublisher publishes directly and, when that fails, stores the
// message in the outbox so the relay delivers it later.
type OutboxFallbackPublisher struct {
	primary messaging.Publisher
	repo    OutboxRepository
	logger  *zap.Logger
}

var _ messaging.Publisher = (*OutboxFallbackPublisher)(nil)

func NewOutboxFallbackPublisher(primary messaging.Publisher, repo OutboxRepository, logger ...*zap.Logger) *OutboxFallbackPublisher {
	l := zap.L().Named("kafka.fallback_publisher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("kafka.fallback_publisher")
	}
	return &OutboxFallbackPublisher{primary: primary, repo: repo, logger: l}
}

func (p *OutboxFallbackPublisher) Publish(ctx context.Context, queue string, msg messaging.Message) error {
	pubErr := p.primary.Publish(ctx, queue, msg)
	if pubErr == nil {
		return nil
	}

	p.logger.Warn("direct publish failed, deferring to outbox",
		zap.String("queue", queue),
		zap.String("key", msg.Key),
		zap.Error(pubErr),
	)

	if err := p.repo.Create(ctx, newOutboxEvent(ctx, EventTypeDeferredPublish, queue, msg, time.Time{})); err != nil {
		return fmt.Errorf("publish to %s: %v; outbox fallback: %w", queue, pubErr, err)
	}
	return nil
}
