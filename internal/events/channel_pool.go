package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var ErrNoChannelAvailable = errors.New("no channels available in pool")

// Channel is the subset of an AMQP channel the publisher needs
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// ChannelProvider hands out channels for publishing
type ChannelProvider interface {
	GetChannel() (Channel, error)
	ReturnChannel(ch Channel)
}

// ChannelPool keeps a fixed set of channels on one RabbitMQ connection
type ChannelPool struct {
	conn      *amqp.Connection
	channels  chan *amqp.Channel
	mu        sync.Mutex
	closed    bool
	size      int
	queueName string
	logger    *zap.Logger
}

// NewChannelPool creates a new channel pool
func NewChannelPool(rabbitmqURL, queueName string, size int, logger *zap.Logger) (*ChannelPool, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	pool := &ChannelPool{
		conn:      conn,
		channels:  make(chan *amqp.Channel, size),
		size:      size,
		queueName: queueName,
		logger:    logger,
	}

	// Pre-create channels
	for i := 0; i < size; i++ {
		ch, err := pool.createChannel()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create channel %d: %w", i, err)
		}
		pool.channels <- ch
	}

	logger.Info("Created RabbitMQ channel pool", zap.Int("size", size), zap.String("queue", queueName))
	return pool, nil
}

// createChannel opens a channel and declares the durable queue
func (p *ChannelPool) createChannel() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		p.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return ch, nil
}

// GetChannel retrieves a channel from the pool, reopening it if the broker closed it
func (p *ChannelPool) GetChannel() (Channel, error) {
	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, ErrNoChannelAvailable
		}
		if ch.IsClosed() {
			newCh, err := p.createChannel()
			if err != nil {
				return nil, err
			}
			return newCh, nil
		}
		return ch, nil
	default:
		return nil, ErrNoChannelAvailable
	}
}

// ReturnChannel returns a channel to the pool
func (p *ChannelPool) ReturnChannel(c Channel) {
	ch, ok := c.(*amqp.Channel)
	if !ok || ch == nil || ch.IsClosed() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		ch.Close()
		return
	}
	select {
	case p.channels <- ch:
	default:
		// Pool is full
		ch.Close()
	}
}

// Close closes all channels and the connection
func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	close(p.channels)
	for ch := range p.channels {
		ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.logger.Info("Closed RabbitMQ channel pool")
}
