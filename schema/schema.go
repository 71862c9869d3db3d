// Package schema has models, constants and the metric catalogue shared by all parts of livemeasure.
package schema

// Component is a node of the component tree (file, directory, project, ...).
type Component struct {
	UUID        string     `json:"uuid"`
	Key         string     `json:"key"`
	Name        string     `json:"name"`
	Qualifier   Qualifier  `json:"qualifier"`
	ParentUUID  *string    `json:"parent_uuid,omitempty"` // nil for roots
	ProjectUUID string     `json:"project_uuid"`          // root of the tree the node belongs to
	UUIDPath    string     `json:"uuid_path"`             // "." for roots, ".<root>.<dir>." below
	BranchType  BranchType `json:"branch_type"`
}

// IsRoot reports whether the component has no parent.
func (c Component) IsRoot() bool {
	return c.ParentUUID == nil
}

// Depth returns the number of ancestors encoded in UUIDPath.
func (c Component) Depth() int {
	depth := 0
	for i := 1; i < len(c.UUIDPath); i++ {
		if c.UUIDPath[i] == '.' {
			depth++
		}
	}
	return depth
}

// SubtreePathPrefix is the UUIDPath prefix shared by every descendant of the component.
func (c Component) SubtreePathPrefix() string {
	path := c.UUIDPath
	if path == "" {
		path = "."
	}
	return path + c.UUID + "."
}

// Snapshot is the last analysis of a project root. PeriodDate marks the start
// of the leak period in epoch milliseconds; nil when no leak period is defined.
type Snapshot struct {
	UUID          string `json:"uuid"`
	ComponentUUID string `json:"component_uuid"`
	CreatedAt     int64  `json:"created_at"`
	PeriodDate    *int64 `json:"period_date,omitempty"`
}

// IssueGroup is one bucket of issues sharing type, severity, status,
// resolution and leak-period membership.
type IssueGroup struct {
	RuleType   IssueType   `json:"rule_type"`
	Severity   Severity    `json:"severity"`
	Status     IssueStatus `json:"status"`
	Resolution *Resolution `json:"resolution,omitempty"` // nil while unresolved
	Count      int64       `json:"count"`
	Effort     float64     `json:"effort"`
	InLeak     bool        `json:"in_leak"`
}
