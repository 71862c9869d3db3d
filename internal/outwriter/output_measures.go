package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// measuresDocument is the JSON shape of the measures of one component.
type measuresDocument struct {
	Component schema.Component       `json:"component"`
	Measures  []schema.MeasureRecord `json:"measures"`
}

// WriteMeasureRecords outputs the live measures of a component, dispatching based on the output format configured.
func WriteMeasureRecords(component schema.Component, records []schema.MeasureRecord, cfg *contract.Config) error {
	fmtNum := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, measuresDocument{Component: component, Measures: records})
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMeasuresCSV(w, records, fmtNum)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMeasuresTable(w, component, records, cfg, fmtNum)
		}, "Wrote table")
	}
	return nil
}

// writeMeasuresTable generates and writes the human-readable table.
func writeMeasuresTable(w io.Writer, component schema.Component, records []schema.MeasureRecord, cfg *contract.Config, fmtNum func(schema.MetricType, float64) string) error {
	if _, err := fmt.Fprintf(w, "%s (%s)\n", component.Key, component.Qualifier); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value", "New Code", "Updated"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	var latest int64
	for _, r := range records {
		latest = max(latest, r.UpdatedAt)
		value := formatCell(r.MetricType, r.Value, fmtNum, cfg.UseColors)
		switch r.MetricType {
		case schema.LevelType:
			value = "-"
			if r.TextValue != nil {
				value = levelLabel(schema.Level(*r.TextValue), cfg.UseColors)
			}
		case schema.DataType, schema.StringType:
			value = "-"
			if r.TextValue != nil {
				value = fmt.Sprintf("(%d bytes)", len(*r.TextValue))
			}
		}
		data = append(data, []string{
			r.MetricKey,
			value,
			formatCell(r.MetricType, r.Variation, fmtNum, cfg.UseColors),
			formatMillis(r.UpdatedAt),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d measures (last update: %s)\n", len(records), formatMillis(latest))
	return err
}

// writeMeasuresCSV writes the measures in CSV format.
func writeMeasuresCSV(w io.Writer, records []schema.MeasureRecord, fmtNum func(schema.MetricType, float64) string) error {
	header := []string{"component_key", "qualifier", "metric_key", "metric_type", "value", "variation", "text_value", "updated_at"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range records {
			text := ""
			if r.TextValue != nil {
				text = *r.TextValue
			}
			rec := []string{
				r.ComponentKey,
				string(r.Qualifier),
				r.MetricKey,
				string(r.MetricType),
				formatPlain(r.MetricType, r.Value, fmtNum),
				formatPlain(r.MetricType, r.Variation, fmtNum),
				text,
				formatMillis(r.UpdatedAt),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// formatMillis renders an epoch millisecond timestamp in UTC. Zero renders as "-".
func formatMillis(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
