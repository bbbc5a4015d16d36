// Package config reads the process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/OFFIS-RIT/inventory-sync/internal/related"
	"github.com/OFFIS-RIT/inventory-sync/internal/util"
	"github.com/OFFIS-RIT/inventory-sync/pkg/collection"
)

// SyncQueue is the queue asynchronous related-record syncs are published to.
const SyncQueue = "related_sync_queue"

type Config struct {
	Debug     bool
	LogFormat string
	Port      string

	// OkapiURL is used when a request carries no X-Okapi-Url header.
	OkapiURL  string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
	PageLimit int
	Breaker   *collection.BreakerConfig

	RabbitMQ RabbitMQ
	S3       S3
}

type RabbitMQ struct {
	User     string
	Password string
	Host     string
	Port     string
	Queue    string
	// DialAttempts bounds the connection attempts on startup.
	DialAttempts int
	DialDelay    time.Duration
	// RetryDelay is how long a failed message waits in the retry queue.
	RetryDelay time.Duration
	MaxRetries int
}

// Enabled reports whether a broker is configured.
func (r RabbitMQ) Enabled() bool {
	return r.Host != ""
}

// URL returns the AMQP connection string.
func (r RabbitMQ) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Password, r.Host, r.Port)
}

type S3 struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Enabled reports whether the report archive is configured.
func (s S3) Enabled() bool {
	return s.Bucket != ""
}

func Load() Config {
	cfg := Config{
		Debug:     util.GetEnvBool("DEBUG", false),
		LogFormat: util.GetEnvString("LOG_FORMAT", "text"),
		Port:      util.GetEnvString("PORT", "8080"),

		OkapiURL:  util.GetEnv("OKAPI_URL"),
		Timeout:   util.GetEnvDuration("COLLECTION_TIMEOUT", 30*time.Second),
		RateLimit: util.GetEnvNumeric("COLLECTION_RATE_LIMIT", 0),
		Burst:     int(util.GetEnvNumeric("COLLECTION_BURST", 10)),
		PageLimit: int(util.GetEnvNumeric("COLLECTION_PAGE_LIMIT", related.DefaultPageLimit)),

		RabbitMQ: RabbitMQ{
			User:         util.GetEnvString("RABBITMQ_USER", "guest"),
			Password:     util.GetEnvString("RABBITMQ_PASSWORD", "guest"),
			Host:         util.GetEnv("RABBITMQ_HOST"),
			Port:         util.GetEnvString("RABBITMQ_PORT", "5672"),
			Queue:        util.GetEnvString("SYNC_QUEUE", SyncQueue),
			DialAttempts: int(util.GetEnvNumeric("RABBITMQ_DIAL_ATTEMPTS", 5)),
			DialDelay:    util.GetEnvDuration("RABBITMQ_DIAL_DELAY", 2*time.Second),
			RetryDelay:   util.GetEnvDuration("SYNC_RETRY_DELAY", 10*time.Second),
			MaxRetries:   int(util.GetEnvNumeric("SYNC_MAX_RETRIES", 10)),
		},

		S3: S3{
			Region:    util.GetEnvString("AWS_REGION", "us-east-1"),
			Endpoint:  util.GetEnv("AWS_ENDPOINT"),
			AccessKey: util.GetEnv("AWS_ACCESS_KEY"),
			SecretKey: util.GetEnv("AWS_SECRET_KEY"),
			Bucket:    util.GetEnv("AWS_BUCKET"),
		},
	}

	if util.GetEnvBool("COLLECTION_BREAKER", true) {
		b := collection.DefaultBreakerConfig()
		b.MaxFailures = uint32(util.GetEnvNumeric("COLLECTION_BREAKER_FAILURES", int(b.MaxFailures)))
		b.Timeout = util.GetEnvDuration("COLLECTION_BREAKER_TIMEOUT", b.Timeout)
		cfg.Breaker = &b
	}

	return cfg
}

// CollectionOptions returns the client tuning for collection.NewFactory.
func (c Config) CollectionOptions() collection.Options {
	return collection.Options{
		Timeout:   c.Timeout,
		RateLimit: c.RateLimit,
		Burst:     c.Burst,
		Breaker:   c.Breaker,
	}
}
