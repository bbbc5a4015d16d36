package middleware

import (
	"context"

	"github.com/OFFIS-RIT/inventory-sync/internal/queue"
	"github.com/OFFIS-RIT/inventory-sync/pkg/collection"

	"github.com/labstack/echo/v4"
)

// ReportReader reads archived sync reports.
type ReportReader interface {
	Get(ctx context.Context, tenant, instanceID, correlationID string) ([]byte, error)
}

type App struct {
	Factory *collection.Factory
	Syncer  queue.RelatedSyncer
	// Queue is nil when no broker is configured.
	Queue     queue.Publisher
	QueueName string
	// Reports is nil when no archive is configured.
	Reports ReportReader
	// DefaultOkapiURL is used for requests without an X-Okapi-Url header.
	DefaultOkapiURL string
}

type AppContext struct {
	echo.Context
	App   *App
	Okapi collection.Context
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{Context: c, App: app}
			return next(cc)
		}
	}
}
