package schema

// QualityGate is a named, ordered set of conditions.
type QualityGate struct {
	UUID       string      `json:"uuid"`
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	BuiltIn    bool        `json:"built_in"`
}

// Condition is a single gate rule. The operator and thresholds describe when
// the condition fails; the warning threshold is optional.
type Condition struct {
	MetricKey        string   `json:"metric"`
	Operator         Operator `json:"op"`
	ErrorThreshold   string   `json:"error"`
	WarningThreshold *string  `json:"warning,omitempty"`
	OnLeak           bool     `json:"on_leak"`
}

// EvaluatedCondition is the outcome of one condition.
type EvaluatedCondition struct {
	Condition   Condition `json:"condition"`
	Status      Level     `json:"status"`
	ActualValue *string   `json:"actual_value,omitempty"`
}

// EvaluatedGate is the outcome of a whole gate on a project root.
type EvaluatedGate struct {
	Gate       QualityGate          `json:"gate"`
	Status     Level                `json:"status"`
	Conditions []EvaluatedCondition `json:"conditions"`
}
