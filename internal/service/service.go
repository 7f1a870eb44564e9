// Package service ties pricing, persistence and outbound delivery together
// behind the operations exposed by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/ultimatefreight/freightdesk/internal/store"
	"github.com/ultimatefreight/freightdesk/internal/telemetry"
	"github.com/ultimatefreight/freightdesk/pkg/pricing"
	"github.com/ultimatefreight/freightdesk/pkg/sink"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	quoteSubmitted   = "Quote request submitted successfully"
	contactSubmitted = "Message sent successfully"
	notNotified      = " (received but not emailed)"
)

// ErrRemoteDisabled is returned by RemoteQueries when no collector is configured.
var ErrRemoteDisabled = errors.New("remote query storage is not enabled")

// ErrRemoteUnavailable wraps collector failures returned by RemoteQueries.
var ErrRemoteUnavailable = errors.New("remote query storage is unavailable")

// RemoteSource reads query records back from a remote collector.
type RemoteSource interface {
	Fetch(ctx context.Context) ([]sink.Event, error)
}

// Deps are the collaborators of a Service. Sinks, Notifier and Remote are optional.
type Deps struct {
	Configs  *store.ConfigStore
	Queries  *store.QueryLog
	Sinks    *sink.Registry
	Notifier sink.Sink
	Remote   RemoteSource
	Metrics  *telemetry.Metrics
	Logger   *otelzap.Logger
	Tracer   trace.Tracer
}

// Config tunes a Service.
type Config struct {
	SinkTimeout time.Duration
}

// SubmissionResult is returned for accepted quote and contact submissions.
type SubmissionResult struct {
	Message  string            `json:"message"`
	Data     store.QueryRecord `json:"data"`
	Notified bool              `json:"notified"`
}

// Service implements the business operations.
type Service struct {
	cfg      Config
	configs  *store.ConfigStore
	queries  *store.QueryLog
	sinks    *sink.Registry
	notifier sink.Sink
	remote   RemoteSource
	metrics  *telemetry.Metrics
	logger   *otelzap.Logger
	tracer   trace.Tracer
	now      func() time.Time

	inflight sync.WaitGroup
}

// New creates a Service.
func New(cfg Config, deps Deps) *Service {
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = 5 * time.Second
	}
	if deps.Sinks == nil {
		deps.Sinks = sink.NewRegistry()
	}
	if deps.Tracer == nil {
		deps.Tracer = telemetry.Tracer("freightdesk/service")
	}
	return &Service{
		cfg:      cfg,
		configs:  deps.Configs,
		queries:  deps.Queries,
		sinks:    deps.Sinks,
		notifier: deps.Notifier,
		remote:   deps.Remote,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		tracer:   deps.Tracer,
		now:      time.Now,
	}
}

// WithClock overrides the time source used for delivery dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// priceCalculation is the logged payload: the request with its result.
type priceCalculation struct {
	pricing.ShipmentRequest
	Result pricing.PriceResult `json:"result"`
}

// CalculatePrice validates req, prices it with the stored configuration and
// records the calculation. Invalid requests return validation.Errors.
func (s *Service) CalculatePrice(ctx context.Context, req pricing.ShipmentRequest) (pricing.PriceResult, error) {
	req.Normalize()
	ctx, span := s.tracer.Start(ctx, "CalculatePrice", trace.WithAttributes(
		attribute.String("shipment.type", string(req.ShipmentType)),
		attribute.String("currency", req.Currency),
	))
	defer span.End()
	start := time.Now()

	if err := pricing.Validate(req); err != nil {
		s.recordPrice(req.ShipmentType, "invalid", start)
		span.RecordError(err)
		return pricing.PriceResult{}, err
	}

	cfg := s.configs.Get(ctx)
	result := pricing.CalculatePrice(req, cfg, s.now())

	s.logger.Ctx(ctx).Info("Price calculated",
		zap.String("shipmentType", string(req.ShipmentType)),
		zap.Float64("totalUSD", result.Total),
		zap.String("currency", result.Currency),
		zap.Int("deliveryDays", result.EstimatedDelivery.Days),
	)

	s.record(ctx, store.QueryPriceCalculation, priceCalculation{ShipmentRequest: req, Result: result})
	s.recordPrice(req.ShipmentType, "success", start)
	return result, nil
}

// SubmitQuote validates and records a quote request, then notifies staff.
func (s *Service) SubmitQuote(ctx context.Context, q QuoteRequest) (SubmissionResult, error) {
	q.Normalize()
	return s.submitLead(ctx, store.QueryQuote, q, q.Validate, quoteSubmitted)
}

// SubmitContact validates and records a contact message, then notifies staff.
func (s *Service) SubmitContact(ctx context.Context, m ContactMessage) (SubmissionResult, error) {
	m.Normalize()
	return s.submitLead(ctx, store.QueryContact, m, m.Validate, contactSubmitted)
}

func (s *Service) submitLead(ctx context.Context, typ store.QueryType, payload interface{}, validate func() error, message string) (SubmissionResult, error) {
	ctx, span := s.tracer.Start(ctx, "Submit", trace.WithAttributes(attribute.String("lead.type", string(typ))))
	defer span.End()
	start := time.Now()

	if err := validate(); err != nil {
		s.recordLead(typ, "invalid", start)
		return SubmissionResult{}, err
	}

	rec, err := s.queries.Append(ctx, typ, payload)
	if err != nil {
		s.recordLead(typ, "error", start)
		span.RecordError(err)
		return SubmissionResult{}, fmt.Errorf("recording %s: %w", typ, err)
	}
	s.dispatch(ctx, rec)

	notified := s.notify(ctx, rec)
	if !notified {
		message += notNotified
	}

	s.logger.Ctx(ctx).Info("Lead received",
		zap.String("type", string(typ)),
		zap.String("id", rec.ID),
		zap.Bool("notified", notified),
	)
	s.recordLead(typ, "success", start)
	return SubmissionResult{Message: message, Data: rec, Notified: notified}, nil
}

// record appends to the query log and fans out to sinks. Failures are logged
// and never surface to the caller.
func (s *Service) record(ctx context.Context, typ store.QueryType, payload interface{}) {
	rec, err := s.queries.Append(ctx, typ, payload)
	if err != nil {
		s.logger.Ctx(ctx).Warn("Recording query failed", zap.String("type", string(typ)), zap.Error(err))
		return
	}
	s.dispatch(ctx, rec)
}

// dispatch delivers rec to every registered sink in the background, bounded
// by the sink timeout and detached from the request's cancellation.
func (s *Service) dispatch(ctx context.Context, rec store.QueryRecord) {
	if s.sinks.Count() == 0 {
		return
	}
	ev := toEvent(rec)
	bg := trace.ContextWithSpanContext(context.Background(), trace.SpanContextFromContext(ctx))

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(bg, s.cfg.SinkTimeout)
		defer cancel()

		_, errs := s.sinks.Dispatch(ctx, ev)
		for _, err := range errs {
			name := "unknown"
			var derr *sink.DeliveryError
			if errors.As(err, &derr) {
				name = derr.Sink
			}
			s.metrics.RecordSinkError(name)
			s.logger.Ctx(ctx).Warn("Sink delivery failed",
				zap.String("id", ev.ID),
				zap.Bool("retryable", sink.IsRetryable(err)),
				zap.Error(err),
			)
		}
	}()
}

// notify sends the staff notification for a lead and reports whether it was accepted.
func (s *Service) notify(ctx context.Context, rec store.QueryRecord) bool {
	if s.notifier == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SinkTimeout)
	defer cancel()

	if err := s.notifier.Send(ctx, toEvent(rec)); err != nil {
		s.metrics.RecordSinkError(s.notifier.Name())
		s.logger.Ctx(ctx).Warn("Lead notification failed", zap.String("id", rec.ID), zap.Error(err))
		return false
	}
	return true
}

// Wait blocks until background sink deliveries have finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// PricingConfig returns the active pricing configuration.
func (s *Service) PricingConfig(ctx context.Context) pricing.Config {
	return s.configs.Get(ctx)
}

// UpdatePricingConfig validates cfg and replaces the stored configuration.
func (s *Service) UpdatePricingConfig(ctx context.Context, cfg pricing.Config) (pricing.Config, error) {
	if err := cfg.Validate(); err != nil {
		return pricing.Config{}, err
	}
	if err := s.configs.Set(ctx, cfg); err != nil {
		return pricing.Config{}, err
	}
	s.logger.Ctx(ctx).Info("Pricing config updated")
	return cfg, nil
}

// ResetPricingConfig restores the default configuration.
func (s *Service) ResetPricingConfig(ctx context.Context) (pricing.Config, error) {
	cfg, err := s.configs.Reset(ctx)
	if err != nil {
		return pricing.Config{}, err
	}
	s.logger.Ctx(ctx).Info("Pricing config reset to defaults")
	return cfg, nil
}

// Queries returns the local query log, newest first.
func (s *Service) Queries(ctx context.Context) ([]store.QueryRecord, error) {
	records, err := s.queries.List(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(records)
	return records, nil
}

// RemoteQueries returns the records held by the remote collector, newest first.
func (s *Service) RemoteQueries(ctx context.Context) ([]store.QueryRecord, error) {
	if s.remote == nil {
		return nil, ErrRemoteDisabled
	}
	events, err := s.remote.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	records := make([]store.QueryRecord, 0, len(events))
	for _, ev := range events {
		records = append(records, store.QueryRecord{
			ID:        ev.ID,
			Type:      store.QueryType(ev.Type),
			Timestamp: ev.Timestamp,
			Data:      ev.Data,
		})
	}
	sortNewestFirst(records)
	return records, nil
}

// ClearQueries removes every local query record.
func (s *Service) ClearQueries(ctx context.Context) error {
	if err := s.queries.Clear(ctx); err != nil {
		return err
	}
	s.logger.Ctx(ctx).Info("Query log cleared")
	return nil
}

func (s *Service) recordPrice(t pricing.ShipmentType, status string, start time.Time) {
	label := string(t)
	if !t.Valid() {
		label = "unknown"
	}
	s.metrics.RecordPrice(label, status, time.Since(start).Seconds())
}

func (s *Service) recordLead(t store.QueryType, status string, start time.Time) {
	s.metrics.RecordLead(string(t), status, time.Since(start).Seconds())
}

func toEvent(rec store.QueryRecord) sink.Event {
	return sink.Event{
		ID:        rec.ID,
		Type:      string(rec.Type),
		Timestamp: rec.Timestamp,
		Data:      rec.Data,
	}
}

func sortNewestFirst(records []store.QueryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}
