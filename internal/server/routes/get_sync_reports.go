package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/inventory-sync/internal/server/middleware"
	"github.com/OFFIS-RIT/inventory-sync/internal/storage"

	"github.com/labstack/echo/v4"
)

// GetSyncReportHandler returns the archived report of a queued sync.
func GetSyncReportHandler(c echo.Context) error {
	cc := c.(*middleware.AppContext)
	if cc.App.Reports == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Report archive is not configured"})
	}

	report, err := cc.App.Reports.Get(c.Request().Context(), cc.Okapi.Tenant, c.Param("id"), c.Param("correlation_id"))
	if errors.Is(err, storage.ErrReportNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Report not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSONBlob(http.StatusOK, report)
}
