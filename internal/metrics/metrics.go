// Package metrics exports poller cycle counters for Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"visawatch/internal/poller"
)

const namespace = "visawatch"

// Metrics owns its registry so tests and multiple instances never collide
// with the global default registry.
type Metrics struct {
	reg *prometheus.Registry

	cycles       *prometheus.CounterVec
	cycleSeconds prometheus.Histogram
	fetched      prometheus.Gauge
	fetchErrors  prometheus.Counter
	matched      prometheus.Gauge
	sendAttempts prometheus.Counter
	lastCycle    prometheus.Gauge
	lastNotified prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Poll cycles by terminal state.",
		}, []string{"state"}),
		cycleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one poll cycle, including notification retries.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		fetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entries_fetched",
			Help:      "Listing entries returned by the last fetch.",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Cycles whose listing fetch failed.",
		}),
		matched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entries_matched",
			Help:      "Entries that passed the filter in the last cycle.",
		}),
		sendAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_attempts_total",
			Help:      "Telegram send attempts, including retries.",
		}),
		lastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time the last cycle started.",
		}),
		lastNotified: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_notified_timestamp_seconds",
			Help:      "Unix time of the last delivered alert.",
		}),
	}
	m.reg.MustRegister(
		m.cycles, m.cycleSeconds, m.fetched, m.fetchErrors, m.matched,
		m.sendAttempts, m.lastCycle, m.lastNotified,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry is what /metrics serves.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveCycle implements poller.Observer.
func (m *Metrics) ObserveCycle(r poller.Result) {
	m.cycles.WithLabelValues(string(r.State)).Inc()
	m.cycleSeconds.Observe(r.Took.Seconds())
	m.fetched.Set(float64(r.Fetched))
	m.matched.Set(float64(r.Matched))
	if r.FetchFailed {
		m.fetchErrors.Inc()
	}
	m.lastCycle.Set(float64(r.StartedAt.Unix()))
	if r.Attempts > 0 {
		m.sendAttempts.Add(float64(r.Attempts))
	}
	if r.State == poller.StateNotified {
		m.lastNotified.Set(float64(r.StartedAt.Add(r.Took).Unix()))
	}
}
