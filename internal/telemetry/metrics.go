package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	PriceCalculations *prometheus.CounterVec
	LeadSubmissions   *prometheus.CounterVec
	SinkErrors        *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
}

// NewMetrics creates and registers Prometheus metrics on the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the metrics on reg. Tests pass a fresh registry.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PriceCalculations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freightdesk_price_calculations_total",
				Help: "Total number of price calculations by shipment type and status",
			},
			[]string{"shipment_type", "status"},
		),
		LeadSubmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freightdesk_lead_submissions_total",
				Help: "Total number of quote and contact submissions by type and status",
			},
			[]string{"type", "status"},
		),
		SinkErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freightdesk_sink_errors_total",
				Help: "Total sink delivery errors by sink",
			},
			[]string{"sink"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "freightdesk_request_duration_seconds",
				Help:    "Request duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrice records a price calculation.
func (m *Metrics) RecordPrice(shipmentType, status string, duration float64) {
	m.PriceCalculations.WithLabelValues(shipmentType, status).Inc()
	m.RequestDuration.WithLabelValues("calculate_price").Observe(duration)
}

// RecordLead records a quote or contact submission.
func (m *Metrics) RecordLead(leadType, status string, duration float64) {
	m.LeadSubmissions.WithLabelValues(leadType, status).Inc()
	m.RequestDuration.WithLabelValues("submit_" + leadType).Observe(duration)
}

// RecordSinkError records a sink delivery error.
func (m *Metrics) RecordSinkError(sink string) {
	m.SinkErrors.WithLabelValues(sink).Inc()
}
