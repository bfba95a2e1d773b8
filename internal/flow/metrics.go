package flow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run-level counters exported on the default registry (internal/debugserver
// scrapes them via promhttp), the same "package-level promauto counters"
// idiom the corpus's other manifests reach for instead of threading a
// registry handle through every call site.
var (
	stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "browser_mcp_flow_steps_total",
		Help: "Total flow steps executed, labeled by tool and outcome.",
	}, []string{"tool", "ok"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "browser_mcp_flow_runs_total",
		Help: "Total flow runs, labeled by final outcome.",
	}, []string{"ok"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "browser_mcp_flow_run_duration_seconds",
		Help:    "Flow run wall-clock duration.",
		Buckets: prometheus.DefBuckets,
	})
)

func observeStep(toolName string, ok bool) {
	stepsTotal.WithLabelValues(toolName, boolLabel(ok)).Inc()
}

func observeRun(ok bool, seconds float64) {
	runsTotal.WithLabelValues(boolLabel(ok)).Inc()
	runDuration.Observe(seconds)
}

func boolLabel(ok bool) string {
	if ok {
		return "true"
	}
	return "false"
}
