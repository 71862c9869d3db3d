package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/livemeasure/core/gate"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// gateDocument is the JSON shape of a project gate outcome.
type gateDocument struct {
	ProjectKey  string `json:"project_key"`
	ProjectUUID string `json:"project_uuid"`
	gate.Details
}

// WriteGateDetails outputs the stored gate outcome of a project, dispatching based on the output format configured.
func WriteGateDetails(project schema.Component, details gate.Details, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, gateDocument{ProjectKey: project.Key, ProjectUUID: project.UUID, Details: details})
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeGateCSV(w, project, details)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeGateTable(w, project, details, cfg)
		}, "Wrote table")
	}
	return nil
}

// writeGateTable generates and writes the human-readable table.
func writeGateTable(w io.Writer, project schema.Component, details gate.Details, cfg *contract.Config) error {
	if _, err := fmt.Fprintf(w, "Quality gate of %s: %s\n", project.Key, levelLabel(details.Level, cfg.UseColors)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Op", "Warning", "Error", "Actual", "Period", "Status"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, c := range details.Conditions {
		data = append(data, []string{
			c.Metric,
			string(c.Op),
			orDash(c.Warning),
			c.Error,
			orDash(c.Actual),
			periodLabel(c.Period),
			levelLabel(c.Level, cfg.UseColors),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeGateCSV writes one row per evaluated condition in CSV format.
func writeGateCSV(w io.Writer, project schema.Component, details gate.Details) error {
	header := []string{"project_key", "gate_status", "metric", "op", "warning", "error", "actual", "period", "status"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, c := range details.Conditions {
			period := ""
			if c.Period != nil {
				period = strconv.Itoa(*c.Period)
			}
			rec := []string{
				project.Key,
				string(details.Level),
				c.Metric,
				string(c.Op),
				c.Warning,
				c.Error,
				c.Actual,
				period,
				string(c.Level),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func periodLabel(period *int) string {
	if period == nil {
		return "overall"
	}
	return "new code"
}
