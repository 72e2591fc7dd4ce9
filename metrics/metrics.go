// Package metrics holds the Prometheus collectors shared by the game services and the broadcast hub.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mafia_overlay"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec

	hubConnections prometheus.Gauge
	hubRooms       prometheus.Gauge
	hubRelayed     *prometheus.CounterVec
	hubDropped     prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "game_commands_total",
			Help:      "Game state commands by command and outcome.",
		}, []string{"command", "outcome"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "game_command_duration_seconds",
			Help:      "Time spent validating and persisting game commands.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		hubConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_connections",
			Help:      "Open websocket connections.",
		}),
		hubRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_rooms",
			Help:      "Game rooms with at least one connection.",
		}),
		hubRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_events_relayed_total",
			Help:      "Events fanned out to game rooms.",
		}, []string{"event"}),
		hubDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_messages_dropped_total",
			Help:      "Messages dropped because a connection send buffer was full.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.commandsTotal, m.commandDuration,
		m.hubConnections, m.hubRooms, m.hubRelayed, m.hubDropped,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCommand records one command execution. Outcome is "ok", "invalid" or "error".
func (m *Metrics) ObserveCommand(command, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(command, outcome).Inc()
	m.commandDuration.WithLabelValues(command).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.hubConnections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.hubConnections.Dec()
	}
}

func (m *Metrics) SetRooms(n int) {
	if m != nil {
		m.hubRooms.Set(float64(n))
	}
}

func (m *Metrics) EventRelayed(event string) {
	if m != nil {
		m.hubRelayed.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) MessageDropped() {
	if m != nil {
		m.hubDropped.Inc()
	}
}
