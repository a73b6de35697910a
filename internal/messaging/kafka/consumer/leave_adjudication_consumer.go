package consumer

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go-workforce/internal/events"
	"go-workforce/internal/leave"
	"go-workforce/internal/messaging"
	"go-workforce/internal/shared/apperror"
	"go-workforce/internal/shared/contextutil"

	"go.uber.org/zap"
)

const (
	DefaultMaxRetries  = 5
	DefaultBackoffBase = time.Second
	DefaultBackoffMax  = time.Minute
)

// StatusUpdater is the part of the leave service the worker drives.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id, status, idempotencyKey string) (*leave.LeaveResponse, error)
}

// RetryScheduler republishes msg to queue no earlier than readyAt.
type RetryScheduler interface {
	Schedule(ctx context.Context, queue string, msg messaging.Message, readyAt time.Time) error
}

type RetryPolicy struct {
	Queue           string
	DeadLetterQueue string
	MaxRetries      int
	BackoffBase     time.Duration
	BackoffMax      time.Duration
	// DeadLetterPermanentFailures skips the retry budget for failures that
	// cannot succeed on a later attempt.
	DeadLetterPermanentFailures bool
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = DefaultBackoffBase
	}
	if p.BackoffMax < p.BackoffBase {
		p.BackoffMax = DefaultBackoffMax
	}
	return p
}

// Backoff returns base * 2^(attempt-1), capped at limit.
func Backoff(attempt int, base, limit time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		if d >= limit/2 {
			return limit
		}
		d *= 2
	}
	if d > limit {
		return limit
	}
	return d
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRetry
	outcomeDeadLetter
)

func (o outcome) String() string {
	switch o {
	case outcomeAck:
		return "ack"
	case outcomeRetry:
		return "retry"
	default:
		return "dead_letter"
	}
}

// decision is fixed once per delivery; settling it may take several tries.
type decision struct {
	outcome outcome
	retry   int
	readyAt time.Time
	cause   error
}

type LeaveAdjudicationConsumer struct {
	sub       messaging.Subscription
	dlq       messaging.Publisher
	scheduler RetryScheduler
	updater   StatusUpdater
	policy    RetryPolicy
	logger    *zap.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewLeaveAdjudicationConsumer(
	sub messaging.Subscription,
	dlq messaging.Publisher,
	scheduler RetryScheduler,
	updater StatusUpdater,
	policy RetryPolicy,
	logger ...*zap.Logger,
) *LeaveAdjudicationConsumer {
	l := zap.L().Named("kafka.consumer.leave_adjudication")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("kafka.consumer.leave_adjudication")
	}
	return &LeaveAdjudicationConsumer{
		sub:       sub,
		dlq:       dlq,
		scheduler: scheduler,
		updater:   updater,
		policy:    policy.withDefaults(),
		logger:    l,
		now:       func() time.Time { return time.Now().UTC() },
		sleep:     sleepContext,
	}
}

// Run consumes until ctx is cancelled or the subscription is closed.
func (c *LeaveAdjudicationConsumer) Run(ctx context.Context) error {
	c.logger.Info("leave adjudication consumer started",
		zap.String("queue", c.policy.Queue),
		zap.String("dlq", c.policy.DeadLetterQueue),
		zap.Int("max_retries", c.policy.MaxRetries),
		zap.Bool("dead_letter_permanent_failures", c.policy.DeadLetterPermanentFailures),
	)

	fetchFailures := 0
	for {
		d, err := c.sub.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("leave adjudication consumer stopped")
				return nil
			}
			if errors.Is(err, messaging.ErrChannelClosed) {
				return err
			}
			fetchFailures++
			c.logger.Error("fetch leave adjudication message failed", zap.Int("failures", fetchFailures), zap.Error(err))
			if err := c.sleep(ctx, Backoff(fetchFailures, c.policy.BackoffBase, c.policy.BackoffMax)); err != nil {
				c.logger.Info("leave adjudication consumer stopped")
				return nil
			}
			continue
		}
		fetchFailures = 0

		if err := c.handle(ctx, d); err != nil {
			c.logger.Info("leave adjudication consumer stopped with unsettled message",
				zap.Int("partition", d.Partition),
				zap.Int64("offset", d.Offset),
			)
			return nil
		}
	}
}

func (c *LeaveAdjudicationConsumer) handle(ctx context.Context, d messaging.Delivery) error {
	log := c.logger.With(
		zap.String("key", d.Key),
		zap.Int("partition", d.Partition),
		zap.Int64("offset", d.Offset),
	)
	ctx = contextutil.WithLogger(ctx, log)

	dec := c.decide(ctx, d)
	switch dec.outcome {
	case outcomeAck:
		log.Info("leave adjudicated")
	case outcomeRetry:
		log.Warn("leave adjudication failed, scheduling retry",
			zap.Int("retry", dec.retry),
			zap.Time("ready_at", dec.readyAt),
			zap.Error(dec.cause),
		)
	case outcomeDeadLetter:
		log.Error("leave adjudication failed, dead-lettering",
			zap.Int("retry", dec.retry),
			zap.Error(dec.cause),
		)
	}

	return c.settle(ctx, d, dec)
}

func (c *LeaveAdjudicationConsumer) decide(ctx context.Context, d messaging.Delivery) decision {
	err := c.adjudicate(ctx, d.Body)
	if err == nil {
		return decision{outcome: outcomeAck}
	}

	retry := d.RetryCount() + 1
	if retry > c.policy.MaxRetries || (c.policy.DeadLetterPermanentFailures && isPermanent(err)) {
		return decision{outcome: outcomeDeadLetter, retry: retry, cause: err}
	}
	return decision{
		outcome: outcomeRetry,
		retry:   retry,
		readyAt: c.now().Add(Backoff(retry, c.policy.BackoffBase, c.policy.BackoffMax)),
		cause:   err,
	}
}

func (c *LeaveAdjudicationConsumer) adjudicate(ctx context.Context, body []byte) error {
	m, err := events.DecodeLeaveRequestAdjudication(body)
	if err != nil {
		return err
	}
	// A nil response means the request already left PENDING; nothing to retry.
	_, err = c.updater.UpdateStatus(ctx, m.LeaveID, leave.StatusApproved, m.IdempotencyKey)
	return err
}

// settle performs the decided handoff, then acks. Neither step is repeated
// once it succeeded, and the ack never precedes a successful handoff.
func (c *LeaveAdjudicationConsumer) settle(ctx context.Context, d messaging.Delivery, dec decision) error {
	log := contextutil.GetLogger(ctx, c.logger)
	handedOff := dec.outcome == outcomeAck

	for attempt := 1; ; attempt++ {
		var err error
		if !handedOff {
			if err = c.handoff(ctx, d, dec); err == nil {
				handedOff = true
			}
		}
		if handedOff {
			if err = c.sub.Ack(ctx, d); err == nil {
				return nil
			}
		}

		log.Warn("settle leave adjudication message failed",
			zap.String("outcome", dec.outcome.String()),
			zap.Bool("handed_off", handedOff),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if err := c.sleep(ctx, Backoff(attempt, c.policy.BackoffBase, c.policy.BackoffMax)); err != nil {
			return err
		}
	}
}

func (c *LeaveAdjudicationConsumer) handoff(ctx context.Context, d messaging.Delivery, dec decision) error {
	headers := messaging.CloneHeaders(d.Headers)
	headers[messaging.HeaderRetryCount] = strconv.Itoa(dec.retry)

	switch dec.outcome {
	case outcomeRetry:
		return c.scheduler.Schedule(ctx, c.policy.Queue, messaging.Message{
			Key:     d.Key,
			Body:    d.Body,
			Headers: headers,
		}, dec.readyAt)
	case outcomeDeadLetter:
		headers[messaging.HeaderOriginalQueue] = c.policy.Queue
		headers[messaging.HeaderPersistent] = "true"
		if dec.cause != nil {
			headers[messaging.HeaderLastError] = dec.cause.Error()
		}
		return c.dlq.Publish(ctx, c.policy.DeadLetterQueue, messaging.Message{
			Key:     d.Key,
			Body:    d.Body,
			Headers: headers,
		})
	}
	return nil
}

func isPermanent(err error) bool {
	return apperror.IsPermanent(err) || errors.Is(err, events.ErrMalformedMessage)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
