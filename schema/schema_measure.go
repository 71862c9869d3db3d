package schema

// Metric is a metric definition.
type Metric struct {
	Key          string     `json:"key"`
	Name         string     `json:"name"`
	Type         MetricType `json:"type"`
	DecimalScale *int       `json:"decimal_scale,omitempty"`
	Direction    int        `json:"direction"` // +1 when higher is better, -1 when lower is better
	LeakOnly     bool       `json:"leak_only"` // data only meaningful on the leak period
}

// Scale returns the rounding scale applied to values of the metric.
// Only FLOAT and PERCENT metrics are rounded.
func (m Metric) Scale() (int, bool) {
	if m.Type != FloatType && m.Type != PercentType {
		return 0, false
	}
	if m.DecimalScale == nil {
		return DefaultDecimalScale, true
	}
	return *m.DecimalScale, true
}

// LiveMeasure is the persisted value of a metric on a component.
// Value and Variation are independent: a leak-only metric may carry a
// variation without a value.
type LiveMeasure struct {
	ComponentUUID string   `json:"component_uuid"`
	ProjectUUID   string   `json:"project_uuid"`
	MetricKey     string   `json:"metric_key"`
	Value         *float64 `json:"value,omitempty"`
	Variation     *float64 `json:"variation,omitempty"`
	TextValue     *string  `json:"text_value,omitempty"`
	UpdatedAt     int64    `json:"updated_at"`
}

// SameState reports whether both measures hold the same value, variation and text.
func (m LiveMeasure) SameState(other LiveMeasure) bool {
	return equalFloatPtr(m.Value, other.Value) &&
		equalFloatPtr(m.Variation, other.Variation) &&
		equalStringPtr(m.TextValue, other.TextValue)
}

// MeasureRecord is a live measure joined with its component, used for listing and export.
type MeasureRecord struct {
	ComponentKey string     `json:"component_key"`
	Qualifier    Qualifier  `json:"qualifier"`
	MetricKey    string     `json:"metric_key"`
	MetricType   MetricType `json:"metric_type"`
	Value        *float64   `json:"value,omitempty"`
	Variation    *float64   `json:"variation,omitempty"`
	TextValue    *string    `json:"text_value,omitempty"`
	UpdatedAt    int64      `json:"updated_at"`
}
