package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"stockroom/internal/models"
	"stockroom/pkg/logging"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// DefaultQueue receives stock events when Config.Queue is empty.
const DefaultQueue = "stock_events"

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     *zap.Logger
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// NewClient connects to RabbitMQ, opens a channel and declares the queue.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declare(ch, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", queue, err)
	}

	log := logging.OrNop(logger)
	log.Info("rabbitmq_connected", zap.String("queue", queue))

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   queue,
		log:     log,
	}, nil
}

func declare(ch *amqp.Channel, queue string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishStockEvent publishes a stock event as persistent JSON.
func (c *Client) PublishStockEvent(event models.StockEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal stock event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// ConsumeStockEvents delivers queued stock events to handler in a goroutine.
// Messages are acked on success, requeued when handler fails and dropped when
// they cannot be decoded.
func (c *Client) ConsumeStockEvents(handler func(models.StockEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := declare(c.channel, c.queue)
	if err != nil {
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}

	msgs, err := c.channel.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			c.handle(msg, handler)
		}
	}()
	return nil
}

func (c *Client) handle(msg amqp.Delivery, handler func(models.StockEvent) error) {
	event, err := DecodeStockEvent(msg.Body)
	if err != nil {
		c.log.Warn("stock_event_decode_failed", zap.Uint64("tag", msg.DeliveryTag), zap.Error(err))
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.log.Error("stock_event_nack_failed", zap.Uint64("tag", msg.DeliveryTag), zap.Error(nackErr))
		}
		return
	}

	if err := handler(event); err != nil {
		c.log.Warn("stock_event_handler_failed", zap.Uint64("tag", msg.DeliveryTag), zap.Error(err))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.log.Error("stock_event_nack_failed", zap.Uint64("tag", msg.DeliveryTag), zap.Error(nackErr))
		}
		return
	}

	if ackErr := msg.Ack(false); ackErr != nil {
		c.log.Error("stock_event_ack_failed", zap.Uint64("tag", msg.DeliveryTag), zap.Error(ackErr))
	}
}

// DecodeStockEvent parses a published stock event body.
func DecodeStockEvent(body []byte) (models.StockEvent, error) {
	var event models.StockEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return models.StockEvent{}, fmt.Errorf("invalid stock event: %w", err)
	}
	if event.Type == "" || event.Code == "" {
		return models.StockEvent{}, fmt.Errorf("invalid stock event: missing type or code")
	}
	return event, nil
}
