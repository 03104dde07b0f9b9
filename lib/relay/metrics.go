// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Message paths for tokenrelay_messages_total.
const (
	pathPost = "post"
	pathWS   = "ws"
)

// Message outcomes for tokenrelay_messages_total.
const (
	outcomeDelivered    = "delivered"
	outcomeNoRecipient  = "no_recipient"
	outcomeForbidden    = "forbidden"
	outcomeInvalidToken = "invalid_token"
	outcomeTooLarge     = "too_large"
	outcomeInvalidBody  = "invalid_body"
)

// Metrics holds the relay's Prometheus collectors. The zero value is not
// usable; call NewMetrics.
type Metrics struct {
	registry *prometheus.Registry

	connections prometheus.Gauge
	messages    *prometheus.CounterVec
	minted      prometheus.Counter
	keepalives  prometheus.Counter
	sessions    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them, along with the
// Go runtime and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tokenrelay_connections",
			Help: "Read-role sessions currently registered.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenrelay_messages_total",
			Help: "Messages submitted for routing, by submission path and outcome.",
		}, []string{"path", "outcome"}),
		minted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokenrelay_tokens_minted_total",
			Help: "Token pairs minted.",
		}),
		keepalives: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokenrelay_keepalives_total",
			Help: "Keepalive pings written to read-role sessions.",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenrelay_sessions_total",
			Help: "Websocket sessions accepted, by token role.",
		}, []string{"role"}),
	}
	m.registry.MustRegister(
		m.connections,
		m.messages,
		m.minted,
		m.keepalives,
		m.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveConnections sets the connections gauge. Pass it to
// registry.New.
func (m *Metrics) ObserveConnections(entries int) {
	m.connections.Set(float64(entries))
}

// SessionOpened implements session.Observer.
func (m *Metrics) SessionOpened(role string) {
	m.sessions.WithLabelValues(role).Inc()
}

// KeepaliveSent implements session.Observer.
func (m *Metrics) KeepaliveSent() {
	m.keepalives.Inc()
}

// InlineMessage implements session.Observer.
func (m *Metrics) InlineMessage(delivered bool) {
	outcome := outcomeNoRecipient
	if delivered {
		outcome = outcomeDelivered
	}
	m.messages.WithLabelValues(pathWS, outcome).Inc()
}

func (m *Metrics) ingested(outcome string) {
	m.messages.WithLabelValues(pathPost, outcome).Inc()
}

func (m *Metrics) tokenMinted() {
	m.minted.Inc()
}
