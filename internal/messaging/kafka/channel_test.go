package kafka

import (
	"context"
	"errors"
	"testing"

	"go-workforce/internal/messaging"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

type fakeWriter struct {
	writeErr error
	written  []kafkago.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeReader struct {
	messages  []kafkago.Message
	committed []kafkago.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.messages) == 0 {
		<-ctx.Done()
		return kafkago.Message{}, ctx.Err()
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func newTestChannel(writers ...*fakeWriter) (*Channel, *int) {
	c := NewChannel([]string{"localhost:9092"})
	created := 0
	c.newWriter = func() messageWriter {
		w := writers[created]
		created++
		return w
	}
	return c, &created
}

func TestChannel_PublishCreatesWriterLazily(t *testing.T) {
	w := &fakeWriter{}
	c, created := newTestChannel(w)

	assert.Equal(t, 0, *created)

	err := c.Publish(context.Background(), "leave_requests", messaging.Message{
		Key:  "leave-1",
		Body: []byte(`{"idempotencyKey":"k","leaveId":"leave-1"}`),
		Headers: map[string]string{
			messaging.HeaderRetryCount: "2",
			messaging.HeaderPersistent: "true",
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, *created)
	assert.Len(t, w.written, 1)
	assert.Equal(t, "leave_requests", w.written[0].Topic)
	assert.Equal(t, []byte("leave-1"), w.written[0].Key)
	assert.Equal(t, []kafkago.Header{
		{Key: messaging.HeaderPersistent, Value: []byte("true")},
		{Key: messaging.HeaderRetryCount, Value: []byte("2")},
	}, w.written[0].Headers)
}

func TestChannel_PublishFailureReplacesWriter(t *testing.T) {
	broken := &fakeWriter{writeErr: errors.New("broken pipe")}
	healthy := &fakeWriter{}
	c, created := newTestChannel(broken, healthy)
	ctx := context.Background()

	err := c.Publish(ctx, "leave_requests", messaging.Message{Body: []byte("a")})
	assert.Error(t, err)
	assert.True(t, broken.closed)

	err = c.Publish(ctx, "leave_requests", messaging.Message{Body: []byte("b")})
	assert.NoError(t, err)
	assert.Equal(t, 2, *created)
	assert.Len(t, healthy.written, 1)
}

func TestChannel_SubscribeFetchAck(t *testing.T) {
	r := &fakeReader{messages: []kafkago.Message{{
		Topic:     "leave_requests",
		Partition: 1,
		Offset:    7,
		Value:     []byte(`{}`),
		Headers:   []kafkago.Header{{Key: messaging.HeaderRetryCount, Value: []byte("4")}},
	}}}
	c := NewChannel([]string{"localhost:9092"})
	var gotTopic, gotGroup string
	c.newReader = func(topic, group string) messageReader {
		gotTopic, gotGroup = topic, group
		return r
	}

	sub, err := c.Subscribe("leave_requests", "workers")
	assert.NoError(t, err)
	assert.Empty(t, gotTopic)

	d, err := sub.Fetch(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "leave_requests", gotTopic)
	assert.Equal(t, "workers", gotGroup)
	assert.Equal(t, 4, d.RetryCount())
	assert.Equal(t, int64(7), d.Offset)

	assert.NoError(t, sub.Ack(context.Background(), d))
	assert.Equal(t, []kafkago.Message{{Topic: "leave_requests", Partition: 1, Offset: 7}}, r.committed)

	assert.NoError(t, c.Close())
	assert.True(t, r.closed)

	_, err = sub.Fetch(context.Background())
	assert.ErrorIs(t, err, messaging.ErrChannelClosed)
	assert.ErrorIs(t, c.Publish(context.Background(), "q", messaging.Message{}), messaging.ErrChannelClosed)
}
