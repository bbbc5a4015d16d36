package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/inventory-sync/internal/config"
	"github.com/OFFIS-RIT/inventory-sync/internal/util"
	"github.com/OFFIS-RIT/inventory-sync/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// Declarer declares queues on a channel.
type Declarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
}

// Publisher publishes to a channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Dial connects to the broker, retrying while it is not reachable yet.
func Dial(ctx context.Context, cfg config.RabbitMQ) (*amqp091.Connection, error) {
	attempt := 0
	conn, err := util.RetryWithContext(ctx, cfg.DialAttempts, cfg.DialDelay, func(ctx context.Context) (*amqp091.Connection, error) {
		attempt++
		conn, err := amqp091.Dial(cfg.URL())
		if err != nil {
			logger.Warn("[Queue] Failed to connect to RabbitMQ", "host", cfg.Host, "attempt", attempt, "err", err)
		}
		return conn, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// SetupQueues declares each queue with its dead-letter queue (<name>_dlq) and
// its retry queue (<name>_retry). Messages in the retry queue expire after
// retryDelay and are dead-lettered back to the main queue.
func SetupQueues(ch Declarer, queueNames []string, retryDelay time.Duration) error {
	for _, name := range queueNames {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", dlqName, err)
		}

		retryName := name + "_retry"
		_, err := ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(retryDelay.Milliseconds()),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", retryName, err)
		}
	}

	return nil
}

// PublishFIFO publishes a persistent JSON message to the default exchange.
func PublishFIFO(ctx context.Context, ch Publisher, queueName string, data []byte, headers amqp091.Table) error {
	return ch.PublishWithContext(
		ctx,
		"",
		queueName,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         data,
			Headers:      headers,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
}
