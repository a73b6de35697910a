// Package messaging defines the durable queue the leave adjudication
// pipeline runs on. Implementations live in sub-packages.
package messaging

import (
	"context"
	"errors"
	"strconv"
)

const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalQueue = "x-original-queue"
	HeaderPersistent    = "persistent"
	HeaderLastError     = "x-last-error"
)

var ErrChannelClosed = errors.New("messaging: channel closed")

type Message struct {
	Key     string
	Body    []byte
	Headers map[string]string
}

// Header returns the value of name, or "" when absent.
func (m Message) Header(name string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[name]
}

// RetryCount reads x-retry-count. Absent or unparsable values count as 0.
func (m Message) RetryCount() int {
	n, err := strconv.Atoi(m.Header(HeaderRetryCount))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Delivery is a fetched message plus the position needed to acknowledge it.
type Delivery struct {
	Message
	Queue     string
	Partition int
	Offset    int64
}

//go:generate mockgen -source=channel.go -destination=mock/channel_mock.go -package=mock
type Publisher interface {
	Publish(ctx context.Context, queue string, msg Message) error
}

// Subscription hands out deliveries one at a time. A delivery that is never
// acknowledged is redelivered after the consumer restarts.
type Subscription interface {
	Fetch(ctx context.Context) (Delivery, error)
	Ack(ctx context.Context, d Delivery) error
	Close() error
}

type Channel interface {
	Publisher
	Subscribe(queue, group string) (Subscription, error)
	Close() error
}

// CloneHeaders copies h so callers can modify the result freely.
func CloneHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h)+2)
	for k, v := range h {
		out[k] = v
	}
	return out
}
