// Package metrics exposes Prometheus instrumentation for gate verdicts.
package metrics

import (
	"net/http"

	"github.com/povarna/generative-ai-agents/kindfilter/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Verdict sources.
const (
	SourceSlack  = "slack"
	SourceAPI    = "api"
	SourceMCP    = "mcp"
	SourceStream = "stream"
	SourceBatch  = "batch"
)

var (
	// VerdictsTotal counts verdicts by outcome and by the surface that asked for them.
	VerdictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kindfilter_verdicts_total",
		Help: "Total number of moderation verdicts",
	}, []string{"outcome", "source"})

	// GateDuration records how long a single gate evaluation took, oracle call included.
	GateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kindfilter_gate_duration_seconds",
		Help:    "Gate evaluation latency in seconds",
		Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30},
	})
)

func init() {
	prometheus.MustRegister(
		VerdictsTotal,
		GateDuration,
	)
}

// Record counts one verdict.
func Record(source string, verdict models.ModerationVerdict) {
	VerdictsTotal.WithLabelValues(string(verdict.Outcome), source).Inc()
	GateDuration.Observe(verdict.Duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
