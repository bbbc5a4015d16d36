package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/inventory-sync/internal/config"
	"github.com/OFFIS-RIT/inventory-sync/internal/queue"
	"github.com/OFFIS-RIT/inventory-sync/internal/related"
	mid "github.com/OFFIS-RIT/inventory-sync/internal/server/middleware"
	"github.com/OFFIS-RIT/inventory-sync/internal/storage"
	"github.com/OFFIS-RIT/inventory-sync/internal/util"
	"github.com/OFFIS-RIT/inventory-sync/pkg/collection"
	"github.com/OFFIS-RIT/inventory-sync/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// newValidator returns the request validator. The recordid tag accepts
// UUIDs, the only ids storage modules take.
func newValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("recordid", func(fl validator.FieldLevel) bool {
		return util.IsRecordID(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

// New creates the echo instance with middleware and routes for app.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = newValidator()

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("10M"))

	RegisterRoutes(e)
	return e
}

func Init(cfg config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := collection.NewFactory(cfg.CollectionOptions())
	app := &mid.App{
		Factory:         factory,
		Syncer:          related.NewSyncer(factory, related.WithPageLimit(cfg.PageLimit)),
		QueueName:       cfg.RabbitMQ.Queue,
		DefaultOkapiURL: cfg.OkapiURL,
	}

	if cfg.RabbitMQ.Enabled() {
		conn, err := queue.Dial(ctx, cfg.RabbitMQ)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", "err", err)
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()

		if err := queue.SetupQueues(ch, []string{cfg.RabbitMQ.Queue}, cfg.RabbitMQ.RetryDelay); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		app.Queue = ch
	} else {
		logger.Warn("RABBITMQ_HOST not set, asynchronous sync disabled")
	}

	if cfg.S3.Enabled() {
		s3, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			logger.Fatal("Failed to create S3 client", "err", err)
		}
		app.Reports = storage.NewReportArchive(s3, cfg.S3.Bucket)
	}

	e := New(app)

	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
