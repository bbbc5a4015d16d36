package queue

import (
	"context"
	"time"

	"github.com/OFFIS-RIT/inventory-sync/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// Worker processes sync jobs from one queue, one message at a time.
type Worker struct {
	Publisher  Publisher
	Syncer     RelatedSyncer
	Reports    ReportStore
	Queue      string
	MaxRetries int
}

// Run handles deliveries until ctx is done or the delivery channel closes.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp091.Delivery) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping consumer", "queue", w.Queue)
			return
		case msg, ok := <-deliveries:
			if !ok {
				logger.Info("[Queue] Message channel closed", "queue", w.Queue)
				return
			}
			w.Handle(ctx, msg)
		}
	}
}

// Handle processes one delivery and acks it, or hands it to the retry path.
func (w *Worker) Handle(ctx context.Context, msg amqp091.Delivery) {
	start := time.Now()
	logger.Info("[Queue] Received message", "queue", w.Queue, "retries", retriesOf(msg))

	if err := ProcessSyncMessage(ctx, w.Syncer, w.Reports, msg.Body); err != nil {
		logger.Error("[Queue] Error processing message", "queue", w.Queue, "err", err)
		HandleProcessingError(ctx, w.Publisher, msg, w.Queue, w.MaxRetries)
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
	logger.Info("[Queue] Message processed successfully", "queue", w.Queue, "duration", time.Since(start))
}
