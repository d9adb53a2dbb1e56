package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"feedrelay/internal/delivery"
	"feedrelay/internal/domain"
)

// EventHandler processes one inbound feed event.
type EventHandler interface {
	ProcessEvent(ctx context.Context, event domain.FeedEvent) (*domain.EventStats, error)
}

// ResultApplier applies one transport delivery result.
type ResultApplier interface {
	Apply(ctx context.Context, result delivery.Result) error
}

// FeedDeletedMessage announces that a feed was removed upstream and
// its stored state should be purged.
type FeedDeletedMessage struct {
	FeedID string `json:"feedId"`
}

// ConsumeEvents pulls feed events and fans them out over a bounded
// worker pool. Feeds are independent, so events for different feeds
// run concurrently; the upstream scheduler guarantees it never has
// two events for the same feed in flight at once. Blocks until ctx is
// cancelled or the delivery channel closes.
func (r *RabbitMQ) ConsumeEvents(ctx context.Context, handler EventHandler, workers int) error {
	if workers < 1 {
		workers = 1
	}

	ch, deliveries, err := r.consume(r.cfg.EventsQueue, workers)
	if err != nil {
		return err
	}
	defer ch.Close()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range deliveries {
				r.handleEvent(ctx, handler, msg)
			}
		}()
	}

	<-ctx.Done()
	ch.Close()
	wg.Wait()
	return ctx.Err()
}

func (r *RabbitMQ) handleEvent(ctx context.Context, handler EventHandler, msg amqp.Delivery) {
	var event domain.FeedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		r.logger.Error("discarding malformed feed event", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	if _, err := handler.ProcessEvent(ctx, event); err != nil {
		r.logger.Error("feed event processing failed",
			"feed_id", event.Feed.ID,
			"error", err,
		)
		// Requeueing would violate the one-in-flight-per-feed
		// precondition on the next poll; the next cycle re-evaluates
		// the same articles anyway.
		_ = msg.Nack(false, false)
		return
	}

	_ = msg.Ack(false)
}

// ConsumeResults applies transport acknowledgements to delivery
// records. Results are at-least-once and possibly out of order; the
// applier is idempotent, so redelivery is harmless.
func (r *RabbitMQ) ConsumeResults(ctx context.Context, applier ResultApplier) error {
	ch, deliveries, err := r.consume(r.cfg.ResultsQueue, 1)
	if err != nil {
		return err
	}
	defer ch.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return nil
			}
			var result delivery.Result
			if err := json.Unmarshal(msg.Body, &result); err != nil {
				r.logger.Error("discarding malformed delivery result", "error", err)
				_ = msg.Nack(false, false)
				continue
			}
			if err := applier.Apply(ctx, result); err != nil {
				r.logger.Error("failed to apply delivery result",
					"delivery_id", result.DeliveryID,
					"error", err,
				)
				_ = msg.Nack(false, true)
				continue
			}
			_ = msg.Ack(false)
		}
	}
}

// ConsumeFeedDeleted purges stored feed state when a feed is removed.
func (r *RabbitMQ) ConsumeFeedDeleted(ctx context.Context, purge func(ctx context.Context, feedID string) error) error {
	ch, deliveries, err := r.consume(r.cfg.FeedDeletedQueue, 1)
	if err != nil {
		return err
	}
	defer ch.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return nil
			}
			var deleted FeedDeletedMessage
			if err := json.Unmarshal(msg.Body, &deleted); err != nil {
				r.logger.Error("discarding malformed feed deleted message", "error", err)
				_ = msg.Nack(false, false)
				continue
			}
			if err := purge(ctx, deleted.FeedID); err != nil {
				r.logger.Error("failed to purge deleted feed", "feed_id", deleted.FeedID, "error", err)
				_ = msg.Nack(false, true)
				continue
			}
			r.logger.Info("purged deleted feed", "feed_id", deleted.FeedID)
			_ = msg.Ack(false)
		}
	}
}

func (r *RabbitMQ) consume(queue string, prefetch int) (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open consumer channel: %w", err)
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("consume %s: %w", queue, err)
	}

	return ch, deliveries, nil
}
