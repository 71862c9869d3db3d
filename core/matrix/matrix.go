// Package matrix holds the measures of one refresh: the rows loaded from the
// store are kept as an immutable baseline, writes go to a pending layer, and
// Changed diffs the two.
package matrix

import (
	"errors"
	"fmt"
	"sort"

	"github.com/huangsam/livemeasure/schema"
)

var (
	// ErrUnknownMetric is returned for a metric the matrix was not built with.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrUnknownComponent is returned for a component outside the matrix.
	ErrUnknownComponent = errors.New("unknown component")
)

type cellKey struct {
	component string
	metric    string
}

// Matrix is the measure overlay of a single refresh. It is not safe for
// concurrent use.
type Matrix struct {
	components map[string]schema.Component
	metrics    map[string]schema.Metric
	baseline   map[cellKey]schema.LiveMeasure
	pending    map[cellKey]schema.LiveMeasure
	now        int64
}

// New builds a matrix over the given components and metrics. Rows for other
// components or metrics are ignored.
func New(components []schema.Component, metrics []schema.Metric, rows []schema.LiveMeasure) *Matrix {
	m := &Matrix{
		components: make(map[string]schema.Component, len(components)),
		metrics:    schema.MetricsByKey(metrics),
		baseline:   make(map[cellKey]schema.LiveMeasure, len(rows)),
		pending:    map[cellKey]schema.LiveMeasure{},
	}
	for _, c := range components {
		m.components[c.UUID] = c
	}
	for _, row := range rows {
		if _, ok := m.components[row.ComponentUUID]; !ok {
			continue
		}
		if _, ok := m.metrics[row.MetricKey]; !ok {
			continue
		}
		m.baseline[cellKey{row.ComponentUUID, row.MetricKey}] = row
	}
	return m
}

// SetClock sets the UpdatedAt stamp applied to written rows, in epoch milliseconds.
func (m *Matrix) SetClock(nowMillis int64) {
	m.now = nowMillis
}

// Metric returns the definition of a metric known to the matrix.
func (m *Matrix) Metric(key string) (schema.Metric, error) {
	metric, ok := m.metrics[key]
	if !ok {
		return schema.Metric{}, fmt.Errorf("%w: %s", ErrUnknownMetric, key)
	}
	return metric, nil
}

// HasMetric reports whether the matrix was built with the metric.
func (m *Matrix) HasMetric(key string) bool {
	_, ok := m.metrics[key]
	return ok
}

// GetMeasure returns the current state of a cell. The boolean is false when
// the cell was never loaded nor written.
func (m *Matrix) GetMeasure(componentUUID, metricKey string) (schema.LiveMeasure, bool, error) {
	k, err := m.key(componentUUID, metricKey)
	if err != nil {
		return schema.LiveMeasure{}, false, err
	}
	row, ok := m.current(k)
	return row, ok, nil
}

// Baseline returns the cell as it was loaded, ignoring pending writes.
func (m *Matrix) Baseline(componentUUID, metricKey string) (schema.LiveMeasure, bool, error) {
	k, err := m.key(componentUUID, metricKey)
	if err != nil {
		return schema.LiveMeasure{}, false, err
	}
	row, ok := m.baseline[k]
	return row, ok, nil
}

// SetValue writes a numeric value rounded to the metric scale. The variation
// keeps its leak-period baseline: newVariation = value - (oldValue - oldVariation).
func (m *Matrix) SetValue(componentUUID, metricKey string, value float64) error {
	k, err := m.key(componentUUID, metricKey)
	if err != nil {
		return err
	}
	metric := m.metrics[metricKey]
	newValue := scale(metric, value)

	row := m.cell(k)
	if row.Value != nil && *row.Value == newValue {
		return nil
	}
	if row.Value != nil && row.Variation != nil {
		leakStart := *row.Value - *row.Variation
		row.Variation = schema.Float(scale(metric, value-leakStart))
	}
	row.Value = schema.Float(newValue)
	m.write(k, row)
	return nil
}

// SetLeakValue writes the variation only. The value is left untouched.
func (m *Matrix) SetLeakValue(componentUUID, metricKey string, variation float64) error {
	k, err := m.key(componentUUID, metricKey)
	if err != nil {
		return err
	}
	newVariation := scale(m.metrics[metricKey], variation)

	row := m.cell(k)
	if row.Variation != nil && *row.Variation == newVariation {
		return nil
	}
	row.Variation = schema.Float(newVariation)
	m.write(k, row)
	return nil
}

// SetText writes a string value, compared by equality.
func (m *Matrix) SetText(componentUUID, metricKey, text string) error {
	k, err := m.key(componentUUID, metricKey)
	if err != nil {
		return err
	}
	row := m.cell(k)
	if row.TextValue != nil && *row.TextValue == text {
		return nil
	}
	row.TextValue = schema.String(text)
	m.write(k, row)
	return nil
}

// Changed returns the rows whose state differs from the baseline, ordered by
// component then metric so writes happen in a stable order.
func (m *Matrix) Changed() []schema.LiveMeasure {
	var out []schema.LiveMeasure
	for k, row := range m.pending {
		if base, ok := m.baseline[k]; ok && base.SameState(row) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ComponentUUID != out[j].ComponentUUID {
			return out[i].ComponentUUID < out[j].ComponentUUID
		}
		return out[i].MetricKey < out[j].MetricKey
	})
	return out
}

func (m *Matrix) key(componentUUID, metricKey string) (cellKey, error) {
	if _, ok := m.metrics[metricKey]; !ok {
		return cellKey{}, fmt.Errorf("%w: %s", ErrUnknownMetric, metricKey)
	}
	if _, ok := m.components[componentUUID]; !ok {
		return cellKey{}, fmt.Errorf("%w: %s", ErrUnknownComponent, componentUUID)
	}
	return cellKey{componentUUID, metricKey}, nil
}

func (m *Matrix) current(k cellKey) (schema.LiveMeasure, bool) {
	if row, ok := m.pending[k]; ok {
		return row, true
	}
	row, ok := m.baseline[k]
	return row, ok
}

// cell returns a copy of the current row, or a fresh row for an empty cell.
// Pointers are never shared with the baseline.
func (m *Matrix) cell(k cellKey) schema.LiveMeasure {
	row, ok := m.current(k)
	if !ok {
		return schema.LiveMeasure{
			ComponentUUID: k.component,
			ProjectUUID:   m.components[k.component].ProjectUUID,
			MetricKey:     k.metric,
		}
	}
	if row.Value != nil {
		row.Value = schema.Float(*row.Value)
	}
	if row.Variation != nil {
		row.Variation = schema.Float(*row.Variation)
	}
	if row.TextValue != nil {
		row.TextValue = schema.String(*row.TextValue)
	}
	return row
}

func (m *Matrix) write(k cellKey, row schema.LiveMeasure) {
	if m.now != 0 {
		row.UpdatedAt = m.now
	}
	m.pending[k] = row
}

func scale(metric schema.Metric, v float64) float64 {
	s, ok := metric.Scale()
	if !ok {
		return v
	}
	return roundHalfUp(v, s)
}
