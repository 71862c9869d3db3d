package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteRefreshResults outputs one row per refreshed project, dispatching based on the output format configured.
func WriteRefreshResults(results []schema.RefreshResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, results)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRefreshCSV(w, results)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRefreshTable(w, results, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// writeRefreshTable generates and writes the human-readable table.
func writeRefreshTable(w io.Writer, results []schema.RefreshResult, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Project", "Previous", "Status", "Changed"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	keyWidth := getMaxTableKeyWidth(cfg, 30)
	totalChanged := 0
	var data [][]string
	for _, r := range results {
		totalChanged += r.ChangedRows
		data = append(data, []string{
			contract.TruncateKey(r.ProjectKey, keyWidth),
			levelLabel(schema.Level(r.PreviousStatus), cfg.UseColors),
			levelLabel(schema.Level(r.NewStatus), cfg.UseColors),
			strconv.Itoa(r.ChangedRows),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Refreshed %d projects (measures written: %d)\n", len(results), totalChanged); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Refresh completed in %v with %d workers. Database backend: %s\n", duration, cfg.Workers, cfg.DatabaseBackend); err != nil {
		return err
	}
	return nil
}

// writeRefreshCSV writes the refresh results in CSV format.
func writeRefreshCSV(w io.Writer, results []schema.RefreshResult) error {
	header := []string{"refresh_id", "project_key", "project_uuid", "previous_status", "new_status", "changed_rows"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range results {
			rec := []string{
				r.RefreshID,
				r.ProjectKey,
				r.ProjectUUID,
				r.PreviousStatus,
				r.NewStatus,
				strconv.Itoa(r.ChangedRows),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}
