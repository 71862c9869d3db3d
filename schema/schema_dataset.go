package schema

// IndexCause tags a search-index notification.
type IndexCause string

// MeasureChangeCause is sent after measures of a project were recomputed.
const MeasureChangeCause IndexCause = "measure_change"

// Issue is a single issue row. Refreshes only ever read issues grouped.
type Issue struct {
	Key           string      `json:"key" yaml:"key"`
	ComponentUUID string      `json:"component_uuid" yaml:"component_uuid"`
	ProjectUUID   string      `json:"project_uuid" yaml:"project_uuid"`
	RuleType      IssueType   `json:"rule_type" yaml:"rule_type"`
	Severity      Severity    `json:"severity" yaml:"severity"`
	Status        IssueStatus `json:"status" yaml:"status"`
	Resolution    *Resolution `json:"resolution,omitempty" yaml:"resolution"`
	Effort        float64     `json:"effort" yaml:"effort"`
	CreatedAt     int64       `json:"created_at" yaml:"created_at"`
}

// Dataset is a batch of rows written to the store in one transaction.
type Dataset struct {
	Metrics         []Metric
	Components      []Component
	Snapshots       []Snapshot
	Issues          []Issue
	Gates           []QualityGate
	DefaultGateUUID string
	ProjectGates    map[string]string // project uuid to gate uuid
	Measures        []LiveMeasure
}
