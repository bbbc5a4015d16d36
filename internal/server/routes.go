package server

import (
	"net/http"

	"github.com/OFFIS-RIT/inventory-sync/internal/server/middleware"
	"github.com/OFFIS-RIT/inventory-sync/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/admin/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	inventoryRoutes := e.Group("/inventory", middleware.OkapiMiddleware)

	// Instance routes
	inventoryRoutes.PUT("/instances/:id", routes.PutInstanceHandler)

	// Related record routes
	inventoryRoutes.POST("/instances/:id/related-records/sync", routes.PostRelatedSyncHandler)
	inventoryRoutes.GET("/instances/:id/related-records/sync/:correlation_id", routes.GetSyncReportHandler)
}
