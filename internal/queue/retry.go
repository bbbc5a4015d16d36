package queue

import (
	"context"

	"github.com/OFFIS-RIT/inventory-sync/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const retriesHeader = "x-retries"

func retriesOf(msg amqp091.Delivery) int {
	switch v := msg.Headers[retriesHeader].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

// HandleProcessingError moves a failed message to <queue>_retry, or to
// <queue>_dlq once it has been retried maxRetries times. The original is
// acked after the copy was published and requeued when publishing failed.
func HandleProcessingError(ctx context.Context, ch Publisher, msg amqp091.Delivery, queueName string, maxRetries int) {
	retries := retriesOf(msg)

	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}

	target := queueName + "_retry"
	if retries >= maxRetries {
		target = queueName + "_dlq"
		logger.Info("[Queue] Sending message to DLQ", "dlq", target, "retries", retries)
	} else {
		headers[retriesHeader] = int32(retries + 1)
	}

	if err := PublishFIFO(ctx, ch, target, msg.Body, headers); err != nil {
		logger.Error("[Queue] Failed to publish failed message", "target", target, "err", err)
		if err := msg.Nack(false, true); err != nil {
			logger.Error("[Queue] Failed to nack message", "err", err)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
}
