package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go-workforce/internal/messaging"
	"go-workforce/internal/messaging/kafka"

	"github.com/spf13/cobra"
)

type DLQOptions struct {
	*RootOptions
	Limit int
	Wait  time.Duration
}

// dlqEntry is the printed form of a dead-lettered message.
type dlqEntry struct {
	Partition int               `json:"partition"`
	Offset    int64             `json:"offset"`
	Key       string            `json:"key"`
	Body      string            `json:"body"`
	Headers   map[string]string `json:"headers,omitempty"`
}

func NewDLQCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DLQOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Inspect and replay dead-lettered leave adjudication messages",
	}
	cmd.PersistentFlags().IntVar(&opts.Limit, "limit", 10, "maximum number of messages to handle")
	cmd.PersistentFlags().DurationVar(&opts.Wait, "wait", 5*time.Second, "stop after the queue stays empty this long")

	peek := &cobra.Command{
		Use:   "peek",
		Short: "Print dead-lettered messages without removing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDLQSubscription(opts, func(ch *kafka.Channel, sub messaging.Subscription) error {
				n, err := peekDLQ(cmd.Context(), sub, opts.Limit, opts.Wait, cmd.OutOrStdout(), opts.Format)
				if err == nil && opts.Format == "text" {
					fmt.Fprintf(cmd.OutOrStdout(), "%d message(s)\n", n)
				}
				return err
			})
		},
	}

	replay := &cobra.Command{
		Use:   "replay",
		Short: "Move dead-lettered messages back to their original queue",
		Long: `Move dead-lettered messages back to their original queue.

Each message is republished to its x-original-queue (or the configured main
queue) with a fresh retry budget, then removed from the DLQ.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDLQSubscription(opts, func(ch *kafka.Channel, sub messaging.Subscription) error {
				n, err := replayDLQ(cmd.Context(), sub, ch, opts.cfg.Queue.Name, opts.Limit, opts.Wait)
				fmt.Fprintf(cmd.OutOrStdout(), "%d message(s) replayed\n", n)
				return err
			})
		},
	}

	cmd.AddCommand(peek, replay)
	return cmd
}

func dlqGroup(mainGroup string) string {
	return mainGroup + "-dlq"
}

func withDLQSubscription(opts *DLQOptions, fn func(ch *kafka.Channel, sub messaging.Subscription) error) error {
	ch := kafka.NewChannel(opts.cfg.Kafka.Brokers, opts.logger)
	defer ch.Close()

	sub, err := ch.Subscribe(opts.cfg.Queue.DLQName, dlqGroup(opts.cfg.Kafka.GroupID))
	if err != nil {
		return err
	}
	defer sub.Close()

	return fn(ch, sub)
}

// fetchNext returns false once no message arrives within wait.
func fetchNext(ctx context.Context, sub messaging.Subscription, wait time.Duration) (messaging.Delivery, bool, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	d, err := sub.Fetch(fetchCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return messaging.Delivery{}, false, nil
		}
		return messaging.Delivery{}, false, err
	}
	return d, true, nil
}

// peekDLQ prints up to limit messages. Nothing is acknowledged, so the
// messages are delivered again to the next peek or replay.
func peekDLQ(ctx context.Context, sub messaging.Subscription, limit int, wait time.Duration, out io.Writer, format string) (int, error) {
	enc := json.NewEncoder(out)
	n := 0
	for n < limit {
		d, ok, err := fetchNext(ctx, sub, wait)
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		n++

		entry := dlqEntry{
			Partition: d.Partition,
			Offset:    d.Offset,
			Key:       d.Key,
			Body:      string(d.Body),
			Headers:   d.Headers,
		}
		if format == "json" {
			if err := enc.Encode(entry); err != nil {
				return n, err
			}
			continue
		}
		fmt.Fprintf(out, "[%d/%d] key=%s original_queue=%s retries=%s\n  body: %s\n",
			entry.Partition, entry.Offset, entry.Key,
			d.Header(messaging.HeaderOriginalQueue),
			d.Header(messaging.HeaderRetryCount),
			entry.Body,
		)
		if lastErr := d.Header(messaging.HeaderLastError); lastErr != "" {
			fmt.Fprintf(out, "  last error: %s\n", lastErr)
		}
	}
	return n, nil
}

// replayDLQ republishes up to limit messages and acks each one only after
// its republish succeeded.
func replayDLQ(ctx context.Context, sub messaging.Subscription, pub messaging.Publisher, fallbackQueue string, limit int, wait time.Duration) (int, error) {
	n := 0
	for n < limit {
		d, ok, err := fetchNext(ctx, sub, wait)
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}

		queue := d.Header(messaging.HeaderOriginalQueue)
		if queue == "" {
			queue = fallbackQueue
		}

		headers := messaging.CloneHeaders(d.Headers)
		delete(headers, messaging.HeaderRetryCount)
		delete(headers, messaging.HeaderOriginalQueue)
		delete(headers, messaging.HeaderPersistent)
		delete(headers, messaging.HeaderLastError)

		if err := pub.Publish(ctx, queue, messaging.Message{Key: d.Key, Body: d.Body, Headers: headers}); err != nil {
			return n, fmt.Errorf("republish offset %d to %s: %w", d.Offset, queue, err)
		}
		if err := sub.Ack(ctx, d); err != nil {
			return n, fmt.Errorf("ack dlq offset %d: %w", d.Offset, err)
		}
		n++
	}
	return n, nil
}
