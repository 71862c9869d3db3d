package live

import (
	"sync"

	"github.com/huangsam/livemeasure/schema"
)

// ChangeEvent reports that the measures of a project root were refreshed.
type ChangeEvent struct {
	RefreshID string
	Project   schema.Component
	Snapshot  schema.Snapshot
	Changed   int // measure rows written

	previous  *schema.Level
	newStatus func() (schema.EvaluatedGate, bool)
}

func newChangeEvent(refreshID string, res rootResult) ChangeEvent {
	evaluated := res.gate
	return ChangeEvent{
		RefreshID: refreshID,
		Project:   res.root,
		Snapshot:  res.snapshot,
		Changed:   res.changed,
		previous:  res.previous,
		newStatus: sync.OnceValues(func() (schema.EvaluatedGate, bool) {
			return evaluated, evaluated.Status != ""
		}),
	}
}

// PreviousStatus returns the gate level stored before the refresh. It is
// absent when nothing was stored or the stored text is not a known level.
func (e ChangeEvent) PreviousStatus() (schema.Level, bool) {
	if e.previous == nil {
		return "", false
	}
	return *e.previous, true
}

// NewGateStatus returns the gate outcome computed by the refresh.
func (e ChangeEvent) NewGateStatus() (schema.EvaluatedGate, bool) {
	if e.newStatus == nil {
		return schema.EvaluatedGate{}, false
	}
	return e.newStatus()
}

// StatusChanged reports whether the gate level differs from the stored one.
func (e ChangeEvent) StatusChanged() bool {
	prev, hasPrev := e.PreviousStatus()
	next, ok := e.NewGateStatus()
	if !ok {
		return false
	}
	return !hasPrev || prev != next.Status
}

// Result summarizes the event for output.
func (e ChangeEvent) Result() schema.RefreshResult {
	res := schema.RefreshResult{
		RefreshID:   e.RefreshID,
		ProjectKey:  e.Project.Key,
		ProjectUUID: e.Project.UUID,
		ChangedRows: e.Changed,
	}
	if prev, ok := e.PreviousStatus(); ok {
		res.PreviousStatus = string(prev)
	}
	if next, ok := e.NewGateStatus(); ok {
		res.NewStatus = string(next.Status)
	}
	return res
}
