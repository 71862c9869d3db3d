// Package gate loads quality gates and evaluates them against the measures of a project root.
package gate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/huangsam/livemeasure/core/rating"
	"github.com/huangsam/livemeasure/schema"
)

var (
	// ErrUnsupportedOperator is returned for an operator that does not apply to the metric type.
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrInvalidThreshold is returned when a threshold cannot be parsed for the metric type.
	ErrInvalidThreshold = errors.New("invalid threshold")
)

// Measure is the read-only state of one metric on the evaluated component.
type Measure struct {
	Metric    schema.Metric
	Value     *float64
	Variation *float64
	Text      *string
}

// EvaluateCondition evaluates one condition. The error threshold is checked
// first, then the warning threshold when it is set. A condition without a
// measured value is OK.
func EvaluateCondition(cond schema.Condition, m Measure) (schema.EvaluatedCondition, error) {
	out := schema.EvaluatedCondition{Condition: cond, Status: schema.LevelOK}

	if !m.Metric.Type.Numeric() && !cond.OnLeak {
		if m.Text == nil {
			return out, nil
		}
		actual := *m.Text
		out.ActualValue = &actual
		return evaluateText(out, cond, actual)
	}

	value := m.Value
	if cond.OnLeak {
		value = m.Variation
	}
	if value == nil {
		return out, nil
	}
	actual := schema.FormatNumber(m.Metric.Type, *value)
	out.ActualValue = &actual

	failed, err := compareNumber(cond.Operator, m.Metric.Type, *value, cond.ErrorThreshold)
	if err != nil {
		return out, fmt.Errorf("condition on %s: %w", cond.MetricKey, err)
	}
	if failed {
		out.Status = schema.LevelError
		return out, nil
	}
	if cond.WarningThreshold != nil && strings.TrimSpace(*cond.WarningThreshold) != "" {
		warned, err := compareNumber(cond.Operator, m.Metric.Type, *value, *cond.WarningThreshold)
		if err != nil {
			return out, fmt.Errorf("condition on %s: %w", cond.MetricKey, err)
		}
		if warned {
			out.Status = schema.LevelWarn
		}
	}
	return out, nil
}

func evaluateText(out schema.EvaluatedCondition, cond schema.Condition, actual string) (schema.EvaluatedCondition, error) {
	match := func(threshold string) (bool, error) {
		switch cond.Operator {
		case schema.Equals:
			return actual == threshold, nil
		case schema.NotEquals:
			return actual != threshold, nil
		default:
			return false, fmt.Errorf("%w: %s on text metric %s", ErrUnsupportedOperator, cond.Operator, cond.MetricKey)
		}
	}
	failed, err := match(cond.ErrorThreshold)
	if err != nil {
		return out, err
	}
	if failed {
		out.Status = schema.LevelError
		return out, nil
	}
	if cond.WarningThreshold != nil && *cond.WarningThreshold != "" {
		warned, err := match(*cond.WarningThreshold)
		if err != nil {
			return out, err
		}
		if warned {
			out.Status = schema.LevelWarn
		}
	}
	return out, nil
}

// compareNumber reports whether value is on the failing side of threshold.
func compareNumber(op schema.Operator, t schema.MetricType, value float64, threshold string) (bool, error) {
	limit, err := parseThreshold(t, threshold)
	if err != nil {
		return false, err
	}
	if t.IntegerLike() {
		value = math.Trunc(value)
	}
	switch op {
	case schema.GreaterThan:
		return value > limit, nil
	case schema.LessThan:
		return value < limit, nil
	case schema.Equals:
		return value == limit, nil
	case schema.NotEquals:
		return value != limit, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}
}

// parseThreshold parses a threshold for the metric type. Integer-like metrics
// drop the fractional part; ratings also accept a letter.
func parseThreshold(t schema.MetricType, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if t == schema.RatingType {
		r, err := rating.Parse(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidThreshold, err)
		}
		return float64(r), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidThreshold, s)
	}
	if t.IntegerLike() {
		return math.Trunc(v), nil
	}
	return v, nil
}
