package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/inventory-sync/pkg/collection"
	"github.com/OFFIS-RIT/inventory-sync/pkg/inventory"
)

// SyncMessage asks the worker to synchronise the related records of an instance.
type SyncMessage struct {
	CorrelationID string             `json:"correlationId"`
	Okapi         collection.Context `json:"okapi"`
	Instance      inventory.Instance `json:"instance"`
}

// Enqueue publishes a sync job. The caller assigns the correlation id.
func Enqueue(ctx context.Context, ch Publisher, queueName string, msg SyncMessage) error {
	if msg.CorrelationID == "" {
		return errors.New("correlation id is required")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode sync message: %w", err)
	}
	return PublishFIFO(ctx, ch, queueName, data, nil)
}

func decodeSyncMessage(body []byte) (SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("failed to decode sync message: %w", err)
	}
	if msg.Instance.ID == "" {
		return msg, errors.New("sync message has no instance id")
	}
	return msg, nil
}
