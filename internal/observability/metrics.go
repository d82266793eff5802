package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kokistudios/thinker/internal/session"
)

// Metrics groups all Prometheus instruments used by the server. Each Metrics
// owns its registry so tests and multiple servers do not collide.
type Metrics struct {
	Registry        *prometheus.Registry
	ToolCalls       *prometheus.CounterVec
	ToolLatency     *prometheus.HistogramVec
	SessionsCreated *prometheus.CounterVec
	Transitions     *prometheus.CounterVec
	Thoughts        *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		ToolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "MCP tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
		ToolLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "MCP tool call latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"tool"}),
		SessionsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions created by kind.",
		}, []string{"kind"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_transitions_total",
			Help:      "Accepted process transitions by kind and action.",
		}, []string{"kind", "action"}),
		Thoughts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thoughts_total",
			Help:      "Stored thoughts by line (main or branch) and whether they revise.",
		}, []string{"line", "revision"}),
	}
}

// ObserveTool records one tool call. outcome is "ok" or an error kind.
func (m *Metrics) ObserveTool(tool, outcome string, d time.Duration) {
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
	m.ToolLatency.WithLabelValues(tool).Observe(d.Seconds())
}

func (m *Metrics) ObserveThought(onBranch, revision bool) {
	line := "main"
	if onBranch {
		line = "branch"
	}
	rev := "false"
	if revision {
		rev = "true"
	}
	m.Thoughts.WithLabelValues(line, rev).Inc()
}

// TrackSessions exports live session counts by kind and status.
func (m *Metrics) TrackSessions(namespace string, reg *session.Registry) {
	m.Registry.MustRegister(&sessionCollector{
		reg: reg,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "sessions"),
			"Live sessions by kind and status.",
			[]string{"kind", "status"}, nil,
		),
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

type sessionCollector struct {
	reg  *session.Registry
	desc *prometheus.Desc
}

func (c *sessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *sessionCollector) Collect(ch chan<- prometheus.Metric) {
	counts := c.reg.Counts()
	for _, kind := range session.Kinds {
		for _, status := range []session.Status{session.StatusActive, session.StatusCompleted} {
			ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue,
				float64(counts[kind][status]), string(kind), string(status))
		}
	}
}
