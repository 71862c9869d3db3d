// Package parquet provides data structures and functions for exporting live
// measures to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/livemeasure/schema"
	"github.com/parquet-go/parquet-go"
)

// LiveMeasure is one exported measure of a component.
// This struct maps to the lm_live_measures table joined with its component and metric.
type LiveMeasure struct {
	// ComponentKey is the key of the measured component
	ComponentKey string `parquet:"component_key,snappy"`

	// Qualifier is the kind of component (FIL, DIR, TRK, ...)
	Qualifier string `parquet:"qualifier,snappy,dict"`

	// MetricKey identifies the metric
	MetricKey string `parquet:"metric_key,snappy,dict"`

	// MetricType is the value kind of the metric
	MetricType string `parquet:"metric_type,snappy,dict"`

	// Value is the numeric value (nullable)
	Value *float64 `parquet:"value,optional,snappy"`

	// Variation is the value over the leak period (nullable)
	Variation *float64 `parquet:"variation,optional,snappy"`

	// TextValue is the textual value of LEVEL and DATA metrics (nullable)
	TextValue *string `parquet:"text_value,optional,snappy"`

	// UpdatedAt is when the row was last written (stored as TIMESTAMP with millisecond precision)
	UpdatedAt time.Time `parquet:"updated_at,timestamp(millisecond),snappy"`
}

// Component is one exported node of the component tree.
type Component struct {
	UUID        string  `parquet:"uuid,snappy"`
	Key         string  `parquet:"key,snappy"`
	Name        string  `parquet:"name,snappy"`
	Qualifier   string  `parquet:"qualifier,snappy,dict"`
	ParentUUID  *string `parquet:"parent_uuid,optional,snappy"`
	ProjectUUID string  `parquet:"project_uuid,snappy,dict"`
	BranchType  string  `parquet:"branch_type,snappy,dict"`
}

// WriteLiveMeasuresParquet writes a slice of LiveMeasure structs to a Parquet file.
func WriteLiveMeasuresParquet(data []LiveMeasure, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteComponentsParquet writes a slice of Component structs to a Parquet file.
func WriteComponentsParquet(data []Component, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows with a schema inferred from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertMeasureRecords converts schema.MeasureRecord to LiveMeasure for Parquet export.
func ConvertMeasureRecords(records []schema.MeasureRecord) []LiveMeasure {
	result := make([]LiveMeasure, len(records))
	for i, record := range records {
		result[i] = LiveMeasure{
			ComponentKey: record.ComponentKey,
			Qualifier:    string(record.Qualifier),
			MetricKey:    record.MetricKey,
			MetricType:   string(record.MetricType),
			Value:        record.Value,
			Variation:    record.Variation,
			TextValue:    record.TextValue,
			UpdatedAt:    time.UnixMilli(record.UpdatedAt).UTC(),
		}
	}
	return result
}

// ConvertComponents converts schema.Component to Component for Parquet export.
func ConvertComponents(components []schema.Component) []Component {
	result := make([]Component, len(components))
	for i, c := range components {
		result[i] = Component{
			UUID:        c.UUID,
			Key:         c.Key,
			Name:        c.Name,
			Qualifier:   string(c.Qualifier),
			ParentUUID:  c.ParentUUID,
			ProjectUUID: c.ProjectUUID,
			BranchType:  string(c.BranchType),
		}
	}
	return result
}
