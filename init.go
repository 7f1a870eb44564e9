package main

import (
	"context"
	"io"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/ultimatefreight/freightdesk/internal/config"
	"github.com/ultimatefreight/freightdesk/internal/service"
	"github.com/ultimatefreight/freightdesk/internal/store"
	"github.com/ultimatefreight/freightdesk/internal/telemetry"
	"github.com/ultimatefreight/freightdesk/pkg/sink"
	"github.com/ultimatefreight/freightdesk/pkg/sink/collector"
	"github.com/ultimatefreight/freightdesk/pkg/sink/kafka"
	"github.com/ultimatefreight/freightdesk/pkg/sink/mailqueue"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Attributes()...)
	return shutdown, err
}

func openStore(ctx context.Context, cfg *config.Config) (store.KV, error) {
	return store.Open(ctx, store.Options{
		Backend:     cfg.StorageBackend,
		DataDir:     cfg.DataDir,
		DatabaseURL: cfg.DatabaseURL,
	})
}

// outbound holds the configured sinks and the resources to release on exit.
type outbound struct {
	registry *sink.Registry
	notifier sink.Sink
	remote   service.RemoteSource
	closers  []io.Closer
}

func (o *outbound) Close(logger *otelzap.Logger) {
	for _, c := range o.closers {
		if err := c.Close(); err != nil {
			logger.Warn("Closing sink failed", zap.Error(err))
		}
	}
}

func initSinks(cfg *config.Config, logger *otelzap.Logger) *outbound {
	out := &outbound{registry: sink.NewRegistry()}

	if cfg.CollectorEnabled() {
		c := collector.New(collector.Config{
			Endpoint: cfg.RemoteQueriesEndpoint,
			Timeout:  cfg.SinkTimeout,
		})
		out.registry.Register(c)
		out.remote = c
	}

	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		out.registry.Register(p)
		out.closers = append(out.closers, p)
	}

	if cfg.RabbitMQURL != "" {
		pub, err := mailqueue.Dial(cfg.RabbitMQURL, cfg.MailQueue, cfg.MailTo)
		if err != nil {
			logger.Warn("Mail queue unavailable, leads will not be emailed", zap.Error(err))
		} else {
			out.notifier = pub
			out.closers = append(out.closers, pub)
		}
	}

	logger.Info("Sinks configured",
		zap.Strings("sinks", out.registry.Names()),
		zap.Bool("notifier", out.notifier != nil),
	)
	return out
}

func newService(cfg *config.Config, kv store.KV, out *outbound, logger *otelzap.Logger) *service.Service {
	return service.New(service.Config{SinkTimeout: cfg.SinkTimeout}, service.Deps{
		Configs:  store.NewConfigStore(kv, logger),
		Queries:  store.NewQueryLog(kv, logger),
		Sinks:    out.registry,
		Notifier: out.notifier,
		Remote:   out.remote,
		Metrics:  telemetry.NewMetrics(),
		Logger:   logger,
		Tracer:   telemetry.Tracer(cfg.ServiceName),
	})
}
