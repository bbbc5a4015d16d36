package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/inventory-sync/internal/queue"
	"github.com/OFFIS-RIT/inventory-sync/internal/server/middleware"
	"github.com/OFFIS-RIT/inventory-sync/internal/util"
	"github.com/OFFIS-RIT/inventory-sync/pkg/inventory"
	"github.com/OFFIS-RIT/inventory-sync/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PostRelatedSyncHandler queues a related-record sync for the instance's
// declared relationship lists.
func PostRelatedSyncHandler(c echo.Context) error {
	type relatedSyncData struct {
		ID               string                      `param:"id" json:"-" validate:"required"`
		ParentInstances  []inventory.ParentInstance  `json:"parentInstances" validate:"dive"`
		ChildInstances   []inventory.ChildInstance   `json:"childInstances" validate:"dive"`
		PrecedingTitles  []inventory.PrecedingTitle  `json:"precedingTitles" validate:"dive"`
		SucceedingTitles []inventory.SucceedingTitle `json:"succeedingTitles" validate:"dive"`
	}

	type relatedSyncResponse struct {
		Message       string `json:"message"`
		CorrelationID string `json:"correlationId,omitempty"`
	}

	cc := c.(*middleware.AppContext)
	if cc.App.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, relatedSyncResponse{
			Message: "Asynchronous sync is not configured",
		})
	}

	data := new(relatedSyncData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, relatedSyncResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, relatedSyncResponse{
			Message: "Invalid request params",
		})
	}

	msg := queue.SyncMessage{
		CorrelationID: util.NewCorrelationID(),
		Okapi:         cc.Okapi,
		Instance: inventory.Instance{
			ID:               data.ID,
			ParentInstances:  data.ParentInstances,
			ChildInstances:   data.ChildInstances,
			PrecedingTitles:  data.PrecedingTitles,
			SucceedingTitles: data.SucceedingTitles,
		},
	}
	if err := queue.Enqueue(c.Request().Context(), cc.App.Queue, cc.App.QueueName, msg); err != nil {
		logger.Error("[Server] Failed to enqueue sync", "instance_id", data.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, relatedSyncResponse{
			Message: "Failed to queue sync",
		})
	}

	return c.JSON(http.StatusAccepted, relatedSyncResponse{
		Message:       "Sync queued",
		CorrelationID: msg.CorrelationID,
	})
}
