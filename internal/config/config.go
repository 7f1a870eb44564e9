package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port          int    `envconfig:"PORT" default:"8080"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"UltimateAdmin123"`

	// Storage
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file"`
	DataDir        string `envconfig:"DATA_DIR" default:"./data"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`

	// Remote query collector
	RemoteQueriesEndpoint string `envconfig:"REMOTE_QUERIES_ENDPOINT"`
	RemoteQueriesEnabled  bool   `envconfig:"REMOTE_QUERIES_ENABLED" default:"false"`

	// Kafka
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"freightdesk.queries"`

	// Lead notification mail queue
	RabbitMQURL string `envconfig:"RABBITMQ_URL"`
	MailQueue   string `envconfig:"MAIL_QUEUE" default:"lead-emails"`
	MailTo      string `envconfig:"MAIL_TO" default:"info@ultimatefreightcargo.com"`

	SinkTimeout time.Duration `envconfig:"SINK_TIMEOUT" default:"5s"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"freightdesk"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("storage.backend", c.StorageBackend),
		attribute.Bool("collector.enabled", c.CollectorEnabled()),
		attribute.Bool("kafka.enabled", len(c.KafkaBrokers) > 0),
		attribute.Bool("mailqueue.enabled", c.RabbitMQURL != ""),
	}
}

// CollectorEnabled reports whether records are mirrored to the remote collector.
func (c *Config) CollectorEnabled() bool {
	return c.RemoteQueriesEnabled && c.RemoteQueriesEndpoint != ""
}
