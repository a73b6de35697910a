package producer

import (
	"context"

	"go-workforce/internal/messaging"
	"go-workforce/internal/messaging/kafka"
)

func publishEvent(ctx context.Context, pub messaging.Publisher, event kafka.OutboxEvent) error {
	msg := messaging.Message{
		Key:     event.AggregateID,
		Body:    event.Payload,
		Headers: messaging.CloneHeaders(event.Headers),
	}

	return pub.Publish(ctx, event.Topic, msg)
}
