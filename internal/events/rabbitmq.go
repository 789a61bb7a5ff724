package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/tripzi/tripzi-backend/internal/models"
)

// RabbitMQConfig contains options for NewRabbitMQ.
type RabbitMQConfig struct {
	URL   string
	Queue string
}

// RabbitMQ publishes and consumes onboarding events on one durable queue.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *zap.Logger
	mu      sync.Mutex // guards channel.Publish
}

// NewRabbitMQ dials the broker, opens a channel and declares the queue.
func NewRabbitMQ(cfg RabbitMQConfig, logger *zap.Logger) (*RabbitMQ, error) {
	if cfg.Queue == "" {
		return nil, errors.New("events queue name cannot be empty")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	logger.Info("Connected to RabbitMQ", zap.String("queue", cfg.Queue))
	return &RabbitMQ{conn: conn, channel: ch, queue: cfg.Queue, logger: logger}, nil
}

// Publish sends event as a persistent JSON message.
func (r *RabbitMQ) Publish(ctx context.Context, event models.OnboardingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	err = r.channel.Publish(
		"",      // exchange
		r.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			MessageId:    event.RequestID,
			Timestamp:    event.OccurredAt,
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Consume delivers messages to handler until ctx is done or the broker
// closes the channel. Messages are acked after handler succeeds and
// rejected without requeue otherwise.
func (r *RabbitMQ) Consume(ctx context.Context, handler Handler) error {
	msgs, err := r.channel.Consume(
		r.queue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer for queue %s: %w", r.queue, err)
	}

	r.logger.Info("Waiting for events", zap.String("queue", r.queue))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("events channel closed by broker")
			}
			r.dispatch(ctx, d, handler)
		}
	}
}

func (r *RabbitMQ) dispatch(ctx context.Context, d amqp.Delivery, handler Handler) {
	var event models.OnboardingEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		r.logger.Error("Dropping undecodable event", zap.Error(err))
		d.Reject(false)
		return
	}
	if err := handler(ctx, event); err != nil {
		r.logger.Error("Event handler failed",
			zap.String("type", event.Type), zap.String("userId", event.UserID), zap.Error(err))
		d.Reject(false)
		return
	}
	d.Ack(false)
}

// Close closes the channel and the connection.
func (r *RabbitMQ) Close() error {
	var errs []error
	if r.channel != nil {
		errs = append(errs, r.channel.Close())
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}
	return errors.Join(errs...)
}
