// Package prom implements the observability hooks on top of Prometheus.
//
// A single [Metrics] value satisfies both [observability.TraversalHooks] and
// [observability.HTTPHooks]:
//
//	m := prom.New(prometheus.DefaultRegisterer)
//	observability.SetTraversalHooks(m)
//	observability.SetHTTPHooks(m)
//	http.Handle("/metrics", promhttp.Handler())
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/observability"
)

const namespace = "annograph"

// Metrics holds the collectors fed by the hooks.
type Metrics struct {
	cycles      *prometheus.CounterVec
	cycleTime   prometheus.Histogram
	inFlight    prometheus.Gauge
	runs        prometheus.Counter
	classified  *prometheus.CounterVec
	requests    *prometheus.CounterVec
	requestTime *prometheus.HistogramVec
}

var (
	_ observability.TraversalHooks = (*Metrics)(nil)
	_ observability.HTTPHooks      = (*Metrics)(nil)
)

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Fetch-and-normalize cycles by outcome code.",
		}, []string{"outcome"}),
		cycleTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of fetch-and-normalize cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycles_in_flight",
			Help:      "Cycles currently outstanding.",
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Traversal runs that reached completion.",
		}),
		classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "references_classified_total",
			Help:      "Outbound references by classification outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Outgoing HTTP requests by method and status.",
		}, []string{"method", "status"}),
		requestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of outgoing HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg != nil {
		reg.MustRegister(m.Collectors()...)
	}
	return m
}

// Collectors returns every collector owned by m.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.cycles, m.cycleTime, m.inFlight, m.runs,
		m.classified, m.requests, m.requestTime,
	}
}

func (m *Metrics) OnCycleStart(context.Context, string) {
	m.inFlight.Inc()
}

func (m *Metrics) OnCycleEnd(_ context.Context, _ string, d time.Duration, err error) {
	m.inFlight.Dec()
	m.cycleTime.Observe(d.Seconds())
	outcome := "ok"
	if err != nil {
		outcome = string(errors.GetCode(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	m.cycles.WithLabelValues(outcome).Inc()
}

func (m *Metrics) OnRunComplete(context.Context, int, int, time.Duration) {
	m.runs.Inc()
}

func (m *Metrics) OnClassified(_ context.Context, outcome string) {
	m.classified.WithLabelValues(outcome).Inc()
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, _, _ string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, statusClass(status)).Inc()
	m.requestTime.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, method, _, _ string, _ error) {
	m.requests.WithLabelValues(method, "error").Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
