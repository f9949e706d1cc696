package gateway

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thesoulpath/soulpath/internal/delivery"
	"github.com/thesoulpath/soulpath/pkg/event"
)

// Metrics holds the gateway's Prometheus collectors. It implements
// dispatch.Observer so delivery outcomes land in the same registry as
// webhook traffic.
type Metrics struct {
	registry *prometheus.Registry

	inboundEvents     *prometheus.CounterVec
	webhookRejections *prometheus.CounterVec
	deliveries        *prometheus.CounterVec
	deliveryAttempts  prometheus.Histogram
}

// NewMetrics creates and registers all gateway collectors on a fresh
// registry. A dedicated registry keeps tests independent and avoids
// default-registry collisions.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		inboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soulpath",
			Name:      "inbound_events_total",
			Help:      "Canonical inbound events decoded per channel.",
		}, []string{"channel"}),
		webhookRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soulpath",
			Name:      "webhook_rejections_total",
			Help:      "Webhook requests rejected before processing.",
		}, []string{"channel", "reason"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soulpath",
			Name:      "deliveries_total",
			Help:      "Outbound delivery outcomes per channel.",
		}, []string{"channel", "status"}),
		deliveryAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "soulpath",
			Name:      "delivery_attempts",
			Help:      "Send attempts consumed per delivery.",
			Buckets:   []float64{1, 2, 3},
		}),
	}
	m.registry.MustRegister(
		m.inboundEvents,
		m.webhookRejections,
		m.deliveries,
		m.deliveryAttempts,
	)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordInbound counts one decoded inbound event.
func (m *Metrics) RecordInbound(ch event.ChannelID) {
	m.inboundEvents.WithLabelValues(string(ch)).Inc()
}

// RecordRejection counts a webhook rejected with the given reason.
func (m *Metrics) RecordRejection(channel, reason string) {
	m.webhookRejections.WithLabelValues(channel, reason).Inc()
}

// ObserveDelivery implements dispatch.Observer.
func (m *Metrics) ObserveDelivery(ch event.ChannelID, status delivery.Status, attempts int) {
	m.deliveries.WithLabelValues(string(ch), string(status)).Inc()
	if attempts > 0 {
		m.deliveryAttempts.Observe(float64(attempts))
	}
}
