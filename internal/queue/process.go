package queue

import (
	"context"

	"github.com/OFFIS-RIT/inventory-sync/internal/related"
	"github.com/OFFIS-RIT/inventory-sync/pkg/collection"
	"github.com/OFFIS-RIT/inventory-sync/pkg/inventory"
	"github.com/OFFIS-RIT/inventory-sync/pkg/logger"
)

// RelatedSyncer synchronises the related records of one instance.
type RelatedSyncer interface {
	SyncRelatedRecords(ctx context.Context, okapi collection.Context, inst inventory.Instance) (*related.Result, error)
}

// ReportStore archives sync reports.
type ReportStore interface {
	Put(ctx context.Context, tenant, correlationID string, report related.Report) (string, error)
}

// ProcessSyncMessage runs one queued sync job. The report is archived when
// reports is non-nil, whether or not the sync succeeded. An archive failure
// is logged and does not fail the job.
func ProcessSyncMessage(ctx context.Context, syncer RelatedSyncer, reports ReportStore, body []byte) error {
	msg, err := decodeSyncMessage(body)
	if err != nil {
		return err
	}

	logger.Info("[Queue] Synchronising related records", "instance_id", msg.Instance.ID, "tenant", msg.Okapi.Tenant, "correlation_id", msg.CorrelationID)
	result, syncErr := syncer.SyncRelatedRecords(ctx, msg.Okapi, msg.Instance)

	if reports != nil && result != nil {
		key, err := reports.Put(ctx, msg.Okapi.Tenant, msg.CorrelationID, result.Report())
		if err != nil {
			logger.Warn("[Queue] Failed to archive sync report", "instance_id", msg.Instance.ID, "correlation_id", msg.CorrelationID, "err", err)
		} else {
			logger.Debug("[Queue] Archived sync report", "key", key)
		}
	}

	return syncErr
}
