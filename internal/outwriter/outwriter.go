// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/livemeasure/core/gate"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRefresh prints the outcome of a refresh using the configured output format.
func (ow *OutWriter) WriteRefresh(results []schema.RefreshResult, cfg *contract.Config, duration time.Duration) error {
	return WriteRefreshResults(results, cfg, duration)
}

// WriteMeasures prints the live measures of a component using the configured output format.
func (ow *OutWriter) WriteMeasures(component schema.Component, records []schema.MeasureRecord, cfg *contract.Config) error {
	return WriteMeasureRecords(component, records, cfg)
}

// WriteGate prints the stored quality gate outcome of a project using the configured output format.
func (ow *OutWriter) WriteGate(project schema.Component, details gate.Details, cfg *contract.Config) error {
	return WriteGateDetails(project, details, cfg)
}

// WriteMetrics prints the metric catalogue using the configured output format.
func (ow *OutWriter) WriteMetrics(metrics []schema.Metric, deps map[string][]string, cfg *contract.Config) error {
	return WriteMetricDefinitions(metrics, deps, cfg)
}
