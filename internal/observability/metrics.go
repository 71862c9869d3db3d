// Package observability holds the Prometheus collectors and tracer shared by livemeasure.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

// TracerName is the instrumentation scope of livemeasure spans.
const TracerName = "livemeasure"

// Tracer is the tracer used around refreshes.
var Tracer = otel.Tracer(TracerName)

// Metrics definitions
var (
	RefreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "livemeasure_refresh_seconds",
		Help:    "Time spent refreshing the live measures of a batch of components.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	RefreshedComponentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livemeasure_refreshed_components_total",
		Help: "Total number of components whose formulas were evaluated.",
	})

	PersistedMeasuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livemeasure_persisted_measures_total",
		Help: "Total number of live measure rows written after a refresh.",
	})

	GateStatusTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livemeasure_gate_status_total",
		Help: "Total number of quality gate evaluations by resulting level.",
	}, []string{"level"})

	NotifierFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livemeasure_index_notifier_failures_total",
		Help: "Total number of index notifications that failed after a committed refresh.",
	})

	SkippedProjectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livemeasure_skipped_projects_total",
		Help: "Total number of project roots skipped because they have no analysis.",
	})
)
