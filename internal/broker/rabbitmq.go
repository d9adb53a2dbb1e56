// Package broker connects the pipeline to RabbitMQ: feed events and
// delivery results in, rendered message parts out.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"feedrelay/internal/delivery"
)

type Config struct {
	URL      string
	Exchange string

	EventsQueue      string
	DeliveryQueue    string
	ResultsQueue     string
	FeedDeletedQueue string
}

// RabbitMQ owns the connection and the publishing channel. Consumers
// open their own channels off the shared connection.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     Config
	logger  *slog.Logger
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{cfg.EventsQueue, cfg.DeliveryQueue, cfg.ResultsQueue, cfg.FeedDeletedQueue} {
		q, err := ch.QueueDeclare(
			queue,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// Routing key equals queue name on the direct exchange.
		if err := ch.QueueBind(q.Name, q.Name, cfg.Exchange, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"events_queue", cfg.EventsQueue,
		"delivery_queue", cfg.DeliveryQueue,
		"results_queue", cfg.ResultsQueue,
	)

	return &RabbitMQ{
		conn:    conn,
		channel: ch,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// PartMessage is the wire form of one enqueued message part.
type PartMessage struct {
	Part      delivery.Part     `json:"part"`
	Meta      delivery.Metadata `json:"meta"`
	Timestamp time.Time         `json:"timestamp"`
}

// Enqueue publishes one rendered part for the downstream transport
// client. Fire-and-forget: the matching result arrives later on the
// results queue keyed by the delivery id.
func (r *RabbitMQ) Enqueue(ctx context.Context, part delivery.Part, meta delivery.Metadata) error {
	msg := PartMessage{
		Part:      part,
		Meta:      meta,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal part message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.cfg.Exchange,
		r.cfg.DeliveryQueue,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			MessageId:    meta.DeliveryID,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish part message: %w", err)
	}

	r.logger.Debug("enqueued message part",
		"delivery_id", meta.DeliveryID,
		"medium_id", meta.MediumID,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
