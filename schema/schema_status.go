package schema

import "time"

// StoreStatus represents the status of the measure store.
type StoreStatus struct {
	Backend         string           `json:"backend"`
	Connected       bool             `json:"connected"`
	TotalComponents int              `json:"total_components"`
	TotalMeasures   int              `json:"total_measures"`
	TotalIssues     int              `json:"total_issues"`
	PendingIndex    int              `json:"pending_index"`
	LastUpdateTime  time.Time        `json:"last_update_time"`
	TableSizes      map[string]int64 `json:"table_sizes"`
}

// RefreshResult summarizes one change event for output.
type RefreshResult struct {
	RefreshID      string `json:"refresh_id"`
	ProjectKey     string `json:"project_key"`
	ProjectUUID    string `json:"project_uuid"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	ChangedRows    int    `json:"changed_rows"`
}
