package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/livemeasure/schema"
)

func TestEncodeDetails(t *testing.T) {
	evaluated := schema.EvaluatedGate{
		Status: schema.LevelError,
		Conditions: []schema.EvaluatedCondition{
			{
				Condition:   schema.Condition{MetricKey: schema.BugsKey, Operator: schema.GreaterThan, ErrorThreshold: "0"},
				Status:      schema.LevelError,
				ActualValue: schema.String("3"),
			},
			{
				Condition: schema.Condition{MetricKey: schema.NewCodeSmellsKey, Operator: schema.GreaterThan, ErrorThreshold: "10", WarningThreshold: schema.String("3"), OnLeak: true},
				Status:    schema.LevelOK,
			},
		},
	}

	raw, err := EncodeDetails(evaluated)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"level": "ERROR",
		"conditions": [
			{"metric": "bugs", "op": "GT", "warning": "", "error": "0", "actual": "3", "level": "ERROR"},
			{"metric": "new_code_smells", "op": "GT", "period": 1, "warning": "3", "error": "10", "level": "OK"}
		],
		"ignoredConditions": false
	}`, raw)
}

func TestDetailsFromRecords(t *testing.T) {
	stored := `{"level":"WARN","conditions":[],"ignoredConditions":false}`

	tests := []struct {
		name      string
		records   []schema.MeasureRecord
		wantFound bool
		wantErr   bool
	}{
		{"none stored", []schema.MeasureRecord{{MetricKey: schema.BugsKey, Value: schema.Float(1)}}, false, false},
		{"text missing", []schema.MeasureRecord{{MetricKey: schema.QualityGateDetailsKey}}, false, false},
		{"found", []schema.MeasureRecord{
			{MetricKey: schema.AlertStatusKey, TextValue: schema.String("WARN")},
			{MetricKey: schema.QualityGateDetailsKey, TextValue: &stored},
		}, true, false},
		{"corrupt", []schema.MeasureRecord{{MetricKey: schema.QualityGateDetailsKey, TextValue: schema.String("{")}}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, found, err := DetailsFromRecords(tt.records)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to decode quality gate details")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			if found {
				assert.Equal(t, schema.LevelWarn, d.Level)
				assert.Empty(t, d.Conditions)
			}
		})
	}
}
