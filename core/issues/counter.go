// Package issues aggregates issue groups of a component subtree into the
// counts and efforts read by measure formulas.
package issues

import (
	"github.com/huangsam/livemeasure/schema"
)

// count accumulates totals with a separate tally for the leak period.
type count struct {
	all    int64
	leak   int64
	effort float64
	// leakEffort is the effort of leak-period issues only.
	leakEffort float64
}

func (c *count) add(g schema.IssueGroup) {
	c.all += g.Count
	c.effort += g.Effort
	if g.InLeak {
		c.leak += g.Count
		c.leakEffort += g.Effort
	}
}

func (c *count) get(onlyInLeak bool) int64 {
	if c == nil {
		return 0
	}
	if onlyInLeak {
		return c.leak
	}
	return c.all
}

func (c *count) getEffort(onlyInLeak bool) float64 {
	if c == nil {
		return 0
	}
	if onlyInLeak {
		return c.leakEffort
	}
	return c.effort
}

// Counter is a read-only view over the issue groups of one component subtree.
// Security hotspots are only ever counted in the hotspot buckets.
type Counter struct {
	unresolved           count
	unresolvedByType     map[schema.IssueType]*count
	unresolvedBySeverity map[schema.Severity]*count
	byResolution         map[schema.Resolution]*count
	byStatus             map[schema.IssueStatus]*count
	hotspotsByStatus     map[schema.IssueStatus]*count
	highestSeverity      map[schema.IssueType]*severityPair
}

// severityPair tracks the worst unresolved severity overall and on the leak period.
type severityPair struct {
	all  schema.Severity
	leak schema.Severity
}

// NewCounter builds a counter from the raw groups.
func NewCounter(groups []schema.IssueGroup) *Counter {
	c := &Counter{
		unresolvedByType:     map[schema.IssueType]*count{},
		unresolvedBySeverity: map[schema.Severity]*count{},
		byResolution:         map[schema.Resolution]*count{},
		byStatus:             map[schema.IssueStatus]*count{},
		hotspotsByStatus:     map[schema.IssueStatus]*count{},
		highestSeverity:      map[schema.IssueType]*severityPair{},
	}
	for _, g := range groups {
		if g.RuleType == schema.SecurityHotspot {
			c.addHotspot(g)
			continue
		}
		if g.Resolution == nil {
			c.unresolved.add(g)
			bucket(c.unresolvedByType, g.RuleType).add(g)
			bucket(c.unresolvedBySeverity, g.Severity).add(g)
			c.trackSeverity(g)
		} else {
			bucket(c.byResolution, *g.Resolution).add(g)
		}
		if g.Status != "" {
			bucket(c.byStatus, g.Status).add(g)
		}
	}
	return c
}

func (c *Counter) addHotspot(g schema.IssueGroup) {
	if g.Resolution == nil {
		bucket(c.unresolvedByType, schema.SecurityHotspot).add(g)
	}
	if g.Status != "" {
		bucket(c.hotspotsByStatus, g.Status).add(g)
	}
}

func (c *Counter) trackSeverity(g schema.IssueGroup) {
	p, ok := c.highestSeverity[g.RuleType]
	if !ok {
		p = &severityPair{}
		c.highestSeverity[g.RuleType] = p
	}
	if g.Severity.Rank() > p.all.Rank() {
		p.all = g.Severity
	}
	if g.InLeak && g.Severity.Rank() > p.leak.Rank() {
		p.leak = g.Severity
	}
}

func bucket[K comparable](m map[K]*count, k K) *count {
	c, ok := m[k]
	if !ok {
		c = &count{}
		m[k] = c
	}
	return c
}

// CountUnresolved returns the number of unresolved issues, hotspots excluded.
func (c *Counter) CountUnresolved(onlyInLeak bool) int64 {
	return c.unresolved.get(onlyInLeak)
}

// CountUnresolvedByType returns the number of unresolved issues of a rule type.
func (c *Counter) CountUnresolvedByType(t schema.IssueType, onlyInLeak bool) int64 {
	return c.unresolvedByType[t].get(onlyInLeak)
}

// CountUnresolvedBySeverity returns the number of unresolved issues of a severity, hotspots excluded.
func (c *Counter) CountUnresolvedBySeverity(s schema.Severity, onlyInLeak bool) int64 {
	return c.unresolvedBySeverity[s].get(onlyInLeak)
}

// CountByResolution returns the number of resolved issues with the given resolution.
func (c *Counter) CountByResolution(r schema.Resolution, onlyInLeak bool) int64 {
	return c.byResolution[r].get(onlyInLeak)
}

// CountByStatus returns the number of issues in a workflow status, hotspots excluded.
func (c *Counter) CountByStatus(s schema.IssueStatus, onlyInLeak bool) int64 {
	return c.byStatus[s].get(onlyInLeak)
}

// CountHotspotsByStatus returns the number of security hotspots in a review status.
func (c *Counter) CountHotspotsByStatus(s schema.IssueStatus, onlyInLeak bool) int64 {
	return c.hotspotsByStatus[s].get(onlyInLeak)
}

// SumEffortOfUnresolved returns the remediation effort of unresolved issues of a type.
func (c *Counter) SumEffortOfUnresolved(t schema.IssueType, onlyInLeak bool) float64 {
	return c.unresolvedByType[t].getEffort(onlyInLeak)
}

// HighestSeverityOfUnresolved returns the worst severity among unresolved
// issues of a type, and false when there are none.
func (c *Counter) HighestSeverityOfUnresolved(t schema.IssueType, onlyInLeak bool) (schema.Severity, bool) {
	p, ok := c.highestSeverity[t]
	if !ok {
		return "", false
	}
	sev := p.all
	if onlyInLeak {
		sev = p.leak
	}
	return sev, sev != ""
}
