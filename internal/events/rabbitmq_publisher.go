package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQPublisher pushes order events onto the notification queue.
// Stock events are ignored.
type RabbitMQPublisher struct {
	pool      ChannelProvider
	queueName string
	timeout   time.Duration
	logger    *zap.Logger
}

func NewRabbitMQPublisher(pool ChannelProvider, queueName string, logger *zap.Logger) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		pool:      pool,
		queueName: queueName,
		timeout:   5 * time.Second,
		logger:    logger,
	}
}

// Publish publishes an order event to the queue
func (p *RabbitMQPublisher) Publish(ctx context.Context, event interface{}) error {
	if !IsOrderEvent(event) {
		return nil
	}

	ch, err := p.pool.GetChannel()
	if err != nil {
		return fmt.Errorf("failed to get channel from pool: %w", err)
	}
	defer p.pool.ReturnChannel(ch)

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	eventType := EventType(event)
	err = ch.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key (queue name)
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         eventType,
			MessageId:    uuid.New().String(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}

	p.logger.Info("Event published to RabbitMQ",
		zap.String("queue", p.queueName),
		zap.String("event-type", eventType),
		zap.String("order_id", PartitionKey(event)),
	)
	return nil
}
