package kafka

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"go-workforce/internal/messaging"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Channel is a messaging.Channel backed by Kafka topics. It owns one writer
// shared by all publishers and one consumer-group reader per subscription.
// The writer is created on first publish and replaced after a failed write.
type Channel struct {
	brokers []string
	logger  *zap.Logger

	newWriter func() messageWriter
	newReader func(topic, group string) messageReader

	mu     sync.Mutex
	writer messageWriter
	subs   []*subscription
	closed bool
}

var _ messaging.Channel = (*Channel)(nil)

func NewChannel(brokers []string, logger ...*zap.Logger) *Channel {
	l := zap.L().Named("kafka.channel")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("kafka.channel")
	}

	c := &Channel{brokers: brokers, logger: l}
	c.newWriter = func() messageWriter {
		return &kafkago.Writer{
			Addr:                   kafkago.TCP(c.brokers...),
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireAll,
			AllowAutoTopicCreation: true,
		}
	}
	c.newReader = func(topic, group string) messageReader {
		return kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:        c.brokers,
			Topic:          topic,
			GroupID:        group,
			CommitInterval: 0,
			StartOffset:    kafkago.FirstOffset,
		})
	}
	return c
}

func (c *Channel) Publish(ctx context.Context, queue string, msg messaging.Message) error {
	w, err := c.acquireWriter()
	if err != nil {
		return err
	}

	if err := w.WriteMessages(ctx, toKafkaMessage(queue, msg)); err != nil {
		c.dropWriter(w)
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

func (c *Channel) acquireWriter() (messageWriter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, messaging.ErrChannelClosed
	}
	if c.writer == nil {
		c.writer = c.newWriter()
		c.logger.Debug("kafka writer created", zap.Strings("brokers", c.brokers))
	}
	return c.writer, nil
}

// dropWriter discards w so the next publish dials fresh connections. A writer
// already replaced by another goroutine is left alone.
func (c *Channel) dropWriter(w messageWriter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writer != w {
		return
	}
	c.writer = nil
	if err := w.Close(); err != nil {
		c.logger.Warn("close failed kafka writer", zap.Error(err))
	}
	c.logger.Warn("kafka writer reset after publish failure")
}

func (c *Channel) Subscribe(queue, group string) (messaging.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, messaging.ErrChannelClosed
	}
	sub := &subscription{queue: queue, group: group, channel: c}
	c.subs = append(c.subs, sub)
	return sub, nil
}

func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	w := c.writer
	c.writer = nil
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	var firstErr error
	for _, s := range subs {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if w != nil {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type subscription struct {
	queue   string
	group   string
	channel *Channel

	mu     sync.Mutex
	reader messageReader
	closed bool
}

func (s *subscription) acquireReader() (messageReader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, messaging.ErrChannelClosed
	}
	if s.reader == nil {
		s.reader = s.channel.newReader(s.queue, s.group)
	}
	return s.reader, nil
}

func (s *subscription) Fetch(ctx context.Context) (messaging.Delivery, error) {
	r, err := s.acquireReader()
	if err != nil {
		return messaging.Delivery{}, err
	}

	m, err := r.FetchMessage(ctx)
	if err != nil {
		return messaging.Delivery{}, err
	}
	return toDelivery(m), nil
}

// Ack commits the delivery's offset for the consumer group.
func (s *subscription) Ack(ctx context.Context, d messaging.Delivery) error {
	r, err := s.acquireReader()
	if err != nil {
		return err
	}
	return r.CommitMessages(ctx, kafkago.Message{
		Topic:     d.Queue,
		Partition: d.Partition,
		Offset:    d.Offset,
	})
}

func (s *subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.reader == nil {
		return nil
	}
	return s.reader.Close()
}

func toKafkaMessage(topic string, msg messaging.Message) kafkago.Message {
	km := kafkago.Message{
		Topic: topic,
		Value: msg.Body,
	}
	if msg.Key != "" {
		km.Key = []byte(msg.Key)
	}
	for _, k := range slices.Sorted(maps.Keys(msg.Headers)) {
		km.Headers = append(km.Headers, kafkago.Header{Key: k, Value: []byte(msg.Headers[k])})
	}
	return km
}

func toDelivery(m kafkago.Message) messaging.Delivery {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return messaging.Delivery{
		Message: messaging.Message{
			Key:     string(m.Key),
			Body:    m.Value,
			Headers: headers,
		},
		Queue:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
	}
}
