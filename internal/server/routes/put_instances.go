package routes

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/OFFIS-RIT/inventory-sync/internal/server/middleware"
	"github.com/OFFIS-RIT/inventory-sync/pkg/inventory"
	"github.com/OFFIS-RIT/inventory-sync/pkg/logger"

	"github.com/labstack/echo/v4"
)

const instanceStoragePath = "/instance-storage/instances"

// PutInstanceHandler replaces an instance in instance storage and then
// synchronises its related records.
func PutInstanceHandler(c echo.Context) error {
	cc := c.(*middleware.AppContext)
	id := c.Param("id")

	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read request body"})
	}

	inst := new(inventory.Instance)
	if err := json.Unmarshal(raw, inst); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
	}
	if err := c.Validate(inst); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}
	if inst.ID != id {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Instance id does not match the path"})
	}

	body, err := inventory.StorageRepresentation(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	ctx := c.Request().Context()
	client, err := cc.App.Factory.Collection(cc.Okapi, instanceStoragePath)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	resp, err := client.Put(ctx, id, json.RawMessage(body))
	if err != nil {
		logger.Error("[Server] Failed to update instance", "instance_id", id, "err", err)
		return c.String(http.StatusInternalServerError, err.Error())
	}
	if !resp.IsSuccess() {
		contentType := resp.ContentType
		if contentType == "" {
			contentType = echo.MIMETextPlainCharsetUTF8
		}
		return c.Blob(resp.StatusCode, contentType, resp.Body)
	}

	if _, err := cc.App.Syncer.SyncRelatedRecords(ctx, cc.Okapi, *inst); err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
