package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/huangsam/livemeasure/core/rating"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	return nil
}

// createFormatters creates the number formatter shared by all output types.
// Integer-like metric types ignore the precision.
func createFormatters(precision int) func(schema.MetricType, float64) string {
	return func(t schema.MetricType, v float64) string {
		if t.IntegerLike() {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', precision, 64)
	}
}

// formatCell renders a measure value or variation for a table cell.
// Ratings show as colored letters when colors are enabled.
func formatCell(t schema.MetricType, v *float64, fmtNum func(schema.MetricType, float64) string, useColors bool) string {
	if v == nil {
		return "-"
	}
	if t == schema.RatingType {
		r := rating.Rating(int(*v))
		if useColors {
			return contract.GetRatingLabel(r)
		}
		return r.String()
	}
	return fmtNum(t, *v)
}

// formatPlain renders an optional number for CSV output; absent values are empty.
func formatPlain(t schema.MetricType, v *float64, fmtNum func(schema.MetricType, float64) string) string {
	if v == nil {
		return ""
	}
	return fmtNum(t, *v)
}

// levelLabel renders a gate level, colored for tables when enabled.
func levelLabel(level schema.Level, useColors bool) string {
	if level == "" {
		return "-"
	}
	if useColors {
		return contract.GetLevelLabel(level)
	}
	return string(level)
}
