package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/inventory-sync/internal/config"
	"github.com/OFFIS-RIT/inventory-sync/internal/queue"
	"github.com/OFFIS-RIT/inventory-sync/internal/related"
	"github.com/OFFIS-RIT/inventory-sync/internal/storage"
	"github.com/OFFIS-RIT/inventory-sync/internal/util"
	"github.com/OFFIS-RIT/inventory-sync/pkg/collection"
	"github.com/OFFIS-RIT/inventory-sync/pkg/logger"
	"github.com/OFFIS-RIT/inventory-sync/pkg/logger/console"
)

func main() {
	util.LoadEnv()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		Format: cfg.LogFormat,
		Prefix: "worker",
	})
	logger.Init(consoleLogger)

	if !cfg.RabbitMQ.Enabled() {
		logger.Fatal("RABBITMQ_HOST is required for the worker")
	}

	factory := collection.NewFactory(cfg.CollectionOptions())
	syncer := related.NewSyncer(factory, related.WithPageLimit(cfg.PageLimit))

	w := &queue.Worker{
		Syncer:     syncer,
		Queue:      cfg.RabbitMQ.Queue,
		MaxRetries: cfg.RabbitMQ.MaxRetries,
	}

	// Init s3 report archive
	if cfg.S3.Enabled() {
		client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			logger.Fatal("Failed to create S3 client", "err", err)
		}
		w.Reports = storage.NewReportArchive(client, cfg.S3.Bucket)
	}

	// Init rabbitmq
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
	w.Publisher = ch

	// One message at a time
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := ch.Consume(
		cfg.RabbitMQ.Queue,
		fmt.Sprintf("%s_consumer", cfg.RabbitMQ.Queue),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", cfg.RabbitMQ.Queue, "err", err)
	}

	logger.Info("Listening for messages", "queue", cfg.RabbitMQ.Queue)
	w.Run(ctx, msgs)
	logger.Info("Shutdown signal received, exiting...")
}
