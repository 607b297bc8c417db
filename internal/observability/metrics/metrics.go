// Package metrics defines the Prometheus metrics of the quiz publishing cycle.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace prefixes every metric.
	Namespace = "quizbot"
)

// Metrics holds the cycle metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CyclesTotal        *prometheus.CounterVec
	CycleDuration      *prometheus.HistogramVec
	CycleInProgress    prometheus.Gauge
	QuizzesPublished   *prometheus.CounterVec
	ErrorsTotal        *prometheus.CounterVec
	TruncationsTotal   *prometheus.CounterVec
	TriggersSkipped    *prometheus.CounterVec
	LastPublishSeconds prometheus.Gauge

	reg *prometheus.Registry
}

// New creates a registry holding the cycle metrics plus the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{reg: reg}
	m.CyclesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cycles_total",
			Help:      "Publishing cycles by trigger and outcome",
		},
		[]string{"trigger", "status"},
	)
	m.CycleDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a publishing cycle in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		},
		[]string{"trigger"},
	)
	m.CycleInProgress = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "cycle_in_progress",
			Help:      "1 while a publishing cycle is running",
		},
	)
	m.QuizzesPublished = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "quizzes_published_total",
			Help:      "Quiz polls delivered to the channel",
		},
		[]string{"source"},
	)
	m.ErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Cycle failures by stage and error kind",
		},
		[]string{"stage", "kind"},
	)
	m.TruncationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "truncations_total",
			Help:      "Fields shortened to fit Telegram poll limits",
		},
		[]string{"field"},
	)
	m.TriggersSkipped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "triggers_skipped_total",
			Help:      "Trigger firings skipped because a cycle was already running",
		},
		[]string{"schedule"},
	)
	m.LastPublishSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_publish_timestamp_seconds",
			Help:      "Unix time of the last successful publish",
		},
	)
	return m
}

// Registry is served on /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// CycleStarted marks a cycle as running and returns a func that records its
// outcome. status is "ok" or "error".
func (m *Metrics) CycleStarted(trigger string) func(status string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.CycleInProgress.Set(1)
	return func(status string) {
		m.CycleInProgress.Set(0)
		m.CyclesTotal.WithLabelValues(trigger, status).Inc()
		m.CycleDuration.WithLabelValues(trigger).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Published(source string, at time.Time) {
	if m == nil {
		return
	}
	m.QuizzesPublished.WithLabelValues(source).Inc()
	m.LastPublishSeconds.Set(float64(at.Unix()))
}

func (m *Metrics) Failed(stage, kind string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(stage, kind).Inc()
}

func (m *Metrics) Truncated(fields []string) {
	if m == nil {
		return
	}
	for _, f := range fields {
		// option[i] -> option
		if i := strings.IndexByte(f, '['); i > 0 {
			f = f[:i]
		}
		m.TruncationsTotal.WithLabelValues(f).Inc()
	}
}

func (m *Metrics) Skipped(schedule string) {
	if m == nil {
		return
	}
	m.TriggersSkipped.WithLabelValues(schedule).Inc()
}
