package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"

	"github.com/olekukonko/tablewriter"
)

// metricDefinition is one row of the metric catalogue.
type metricDefinition struct {
	schema.Metric
	Computed  bool     `json:"computed"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// WriteMetricDefinitions displays the metric catalogue with the dependencies of computed metrics.
// Metrics absent from deps are inputs provided by the analysis.
func WriteMetricDefinitions(metrics []schema.Metric, deps map[string][]string, cfg *contract.Config) error {
	defs := buildMetricDefinitions(metrics, deps)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, defs)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsCSV(w, defs)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsTable(w, defs)
		}, "Wrote text")
	}
}

func buildMetricDefinitions(metrics []schema.Metric, deps map[string][]string) []metricDefinition {
	defs := make([]metricDefinition, 0, len(metrics))
	for _, m := range metrics {
		d, computed := deps[m.Key]
		defs = append(defs, metricDefinition{Metric: m, Computed: computed, DependsOn: d})
	}
	return defs
}

func writeMetricsTable(w io.Writer, defs []metricDefinition) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Key", "Type", "Direction", "Source", "Depends On"})

	var data [][]string
	for _, d := range defs {
		source := "input"
		if d.Computed {
			source = "formula"
		}
		if d.LeakOnly {
			source += " (new code)"
		}
		data = append(data, []string{
			d.Key,
			string(d.Type),
			directionLabel(d.Direction),
			source,
			strings.Join(d.DependsOn, ", "),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d metrics\n", len(defs))
	return err
}

func writeMetricsCSV(w io.Writer, defs []metricDefinition) error {
	header := []string{"key", "name", "type", "direction", "leak_only", "computed", "depends_on"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, d := range defs {
			rec := []string{
				d.Key,
				d.Name,
				string(d.Type),
				strconv.Itoa(d.Direction),
				strconv.FormatBool(d.LeakOnly),
				strconv.FormatBool(d.Computed),
				strings.Join(d.DependsOn, "|"),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func directionLabel(direction int) string {
	switch {
	case direction > 0:
		return "higher is better"
	case direction < 0:
		return "lower is better"
	default:
		return "none"
	}
}
