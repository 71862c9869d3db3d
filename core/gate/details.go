package gate

import (
	"encoding/json"
	"fmt"

	"github.com/huangsam/livemeasure/schema"
)

// leakPeriodIndex is the period number reported for leak conditions.
const leakPeriodIndex = 1

// Details is the JSON document stored in the quality_gate_details measure.
type Details struct {
	Level             schema.Level       `json:"level"`
	Conditions        []DetailsCondition `json:"conditions"`
	IgnoredConditions bool               `json:"ignoredConditions"`
}

// DetailsCondition is one evaluated condition inside Details.
type DetailsCondition struct {
	Metric  string          `json:"metric"`
	Op      schema.Operator `json:"op"`
	Period  *int            `json:"period,omitempty"`
	Warning string          `json:"warning"`
	Error   string          `json:"error"`
	Actual  string          `json:"actual,omitempty"`
	Level   schema.Level    `json:"level"`
}

// EncodeDetails renders an evaluated gate as the details document.
func EncodeDetails(g schema.EvaluatedGate) (string, error) {
	d := Details{Level: g.Status, Conditions: make([]DetailsCondition, 0, len(g.Conditions))}
	for _, ec := range g.Conditions {
		dc := DetailsCondition{
			Metric: ec.Condition.MetricKey,
			Op:     ec.Condition.Operator,
			Error:  ec.Condition.ErrorThreshold,
			Level:  ec.Status,
		}
		if ec.Condition.WarningThreshold != nil {
			dc.Warning = *ec.Condition.WarningThreshold
		}
		if ec.Condition.OnLeak {
			period := leakPeriodIndex
			dc.Period = &period
		}
		if ec.ActualValue != nil {
			dc.Actual = *ec.ActualValue
		}
		d.Conditions = append(d.Conditions, dc)
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to encode quality gate details: %w", err)
	}
	return string(b), nil
}

// DecodeDetails parses a stored details document.
func DecodeDetails(s string) (Details, error) {
	var d Details
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return Details{}, fmt.Errorf("failed to decode quality gate details: %w", err)
	}
	return d, nil
}

// DetailsFromRecords finds and decodes the details document among the stored
// measures of a project root. It reports false when none is stored.
func DetailsFromRecords(records []schema.MeasureRecord) (Details, bool, error) {
	for _, r := range records {
		if r.MetricKey != schema.QualityGateDetailsKey || r.TextValue == nil {
			continue
		}
		d, err := DecodeDetails(*r.TextValue)
		if err != nil {
			return Details{}, false, err
		}
		return d, true, nil
	}
	return Details{}, false, nil
}
