// Package telemetry holds the Prometheus instruments of the update pipeline.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cputop"

type Metrics struct {
	registry *prometheus.Registry

	Ticks      prometheus.Counter
	Deliveries *prometheus.CounterVec
	Faults     *prometheus.CounterVec
	StaleDrops prometheus.Counter
	Renders    prometheus.Counter
	Cores      prometheus.Gauge

	Samples     prometheus.Counter
	Subscribers prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "poll_ticks_total",
			Help:      "Number of poll ticks fired.",
		}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "deliveries_total",
			Help:      "Snapshots handed to the presenter, by source.",
		}, []string{"source"}),
		Faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "faults_total",
			Help:      "Failed ticks or messages, by error kind.",
		}, []string{"kind"}),
		StaleDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "presenter",
			Name:      "stale_drops_total",
			Help:      "Updates dropped because a newer sequence was already applied.",
		}),
		Renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "presenter",
			Name:      "renders_total",
			Help:      "Frames swapped into the display.",
		}),
		Cores: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "presenter",
			Name:      "cores",
			Help:      "Number of cores in the currently shown snapshot.",
		}),

		Samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "samples_total",
			Help:      "CPU samples taken by the server.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "stream_subscribers",
			Help:      "Websocket clients connected to the realtime stream.",
		}),
	}

	reg.MustRegister(
		m.Ticks,
		m.Deliveries,
		m.Faults,
		m.StaleDrops,
		m.Renders,
		m.Cores,
		m.Samples,
		m.Subscribers,
		collectors.NewGoCollector(),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
