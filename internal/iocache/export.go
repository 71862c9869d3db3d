package iocache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/internal/parquet"
)

// ExecuteExport exports the components and live measures of the store to
// Parquet files named after outputFile.
func ExecuteExport(ctx context.Context, w io.Writer, store contract.MeasureStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if !status.Connected {
		return contract.ErrStoreDisabled
	}
	if status.TotalMeasures == 0 {
		return errors.New("no live measures found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total components: %d\n", status.TotalComponents)
	_, _ = fmt.Fprintf(w, "Total measures: %d\n", status.TotalMeasures)

	components, err := store.ListComponents(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to retrieve components: %w", err)
	}
	records, err := store.SelectAllMeasureRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve live measures: %w", err)
	}

	componentsFile := outputFile + ".components.parquet"
	parquetComponents := parquet.ConvertComponents(components)
	if err := parquet.WriteComponentsParquet(parquetComponents, componentsFile); err != nil {
		return fmt.Errorf("failed to write components: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d components to: %s\n", len(parquetComponents), componentsFile)

	measuresFile := outputFile + ".live_measures.parquet"
	parquetMeasures := parquet.ConvertMeasureRecords(records)
	if err := parquet.WriteLiveMeasuresParquet(parquetMeasures, measuresFile); err != nil {
		return fmt.Errorf("failed to write live measures: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d measures to: %s\n", len(parquetMeasures), measuresFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - Apache Spark")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - DuckDB")
	return nil
}
