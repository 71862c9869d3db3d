package formula

import (
	"testing"

	"github.com/huangsam/livemeasure/core/issues"
	"github.com/huangsam/livemeasure/core/matrix"
	"github.com/huangsam/livemeasure/core/rating"
	"github.com/huangsam/livemeasure/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProject = schema.Component{UUID: "p", Key: "project", Qualifier: schema.ProjectQualifier, ProjectUUID: "p", UUIDPath: "."}

// verifier runs a single built-in formula against a matrix seeded with values.
type verifier struct {
	t      *testing.T
	groups []schema.IssueGroup
	rows   []schema.LiveMeasure
	grid   rating.Grid
	matrix *matrix.Matrix
}

func newVerifier(t *testing.T, groups ...schema.IssueGroup) *verifier {
	return &verifier{t: t, groups: groups, grid: rating.DefaultGrid}
}

func (v *verifier) withValue(key string, value float64) *verifier {
	v.rows = append(v.rows, schema.LiveMeasure{ComponentUUID: testProject.UUID, MetricKey: key, Value: schema.Float(value)})
	return v
}

func (v *verifier) withLeakValue(key string, variation float64) *verifier {
	v.rows = append(v.rows, schema.LiveMeasure{ComponentUUID: testProject.UUID, MetricKey: key, Variation: schema.Float(variation)})
	return v
}

func (v *verifier) run(metric string) *verifier {
	v.t.Helper()
	f := builtIn(v.t, metric)
	v.matrix = matrix.New([]schema.Component{testProject}, schema.CoreMetrics(), v.rows)
	err := runOne(f, v.matrix, testProject, v.grid, issues.NewCounter(v.groups))
	require.NoError(v.t, err)
	return v
}

func (v *verifier) assertValue(metric string, want float64) {
	v.t.Helper()
	row, ok, err := v.matrix.GetMeasure(testProject.UUID, metric)
	require.NoError(v.t, err)
	require.True(v.t, ok, "no measure for %s", metric)
	require.NotNil(v.t, row.Value, "no value for %s", metric)
	assert.Equal(v.t, want, *row.Value, metric)
}

func (v *verifier) assertLeakValue(metric string, want float64) {
	v.t.Helper()
	row, ok, err := v.matrix.GetMeasure(testProject.UUID, metric)
	require.NoError(v.t, err)
	require.True(v.t, ok, "no measure for %s", metric)
	require.NotNil(v.t, row.Variation, "no variation for %s", metric)
	assert.Equal(v.t, want, *row.Variation, metric)
}

func (v *verifier) assertNoValue(metric string) {
	v.t.Helper()
	_, ok, err := v.matrix.GetMeasure(testProject.UUID, metric)
	require.NoError(v.t, err)
	assert.False(v.t, ok, metric)
}

func builtIn(t *testing.T, metric string) Formula {
	t.Helper()
	for _, f := range BuiltIns() {
		if f.Metric() == metric {
			return f
		}
	}
	t.Fatalf("no built-in formula for %s", metric)
	return Formula{}
}

// newGroup mirrors the defaults of the issue-group fixtures: one open, info code smell outside the leak period.
func newGroup(opts ...func(*schema.IssueGroup)) schema.IssueGroup {
	g := schema.IssueGroup{RuleType: schema.CodeSmell, Severity: schema.Info, Status: schema.StatusOpen, Count: 1}
	for _, o := range opts {
		o(&g)
	}
	return g
}

func ofType(t schema.IssueType) func(*schema.IssueGroup) {
	return func(g *schema.IssueGroup) { g.RuleType = t }
}

func withSeverity(s schema.Severity) func(*schema.IssueGroup) {
	return func(g *schema.IssueGroup) { g.Severity = s }
}

func withStatus(s schema.IssueStatus) func(*schema.IssueGroup) {
	return func(g *schema.IssueGroup) { g.Status = s }
}

func withResolution(r schema.Resolution) func(*schema.IssueGroup) {
	return func(g *schema.IssueGroup) { g.Resolution = &r }
}

func withCount(n int64) func(*schema.IssueGroup) {
	return func(g *schema.IssueGroup) { g.Count = n }
}

func withEffort(e float64) func(*schema.IssueGroup) {
	return func(g *schema.IssueGroup) { g.Effort = e }
}

func inLeak(g *schema.IssueGroup) {
	g.InLeak = true
}

func TestViolationsCountAllUnresolved(t *testing.T) {
	newVerifier(t).run(schema.ViolationsKey).assertValue(schema.ViolationsKey, 0)

	v := newVerifier(t,
		newGroup(withCount(3)),
		newGroup(withCount(5), inLeak),
		newGroup(withCount(7), withResolution(schema.ResolutionFixed), withStatus(schema.StatusClosed)),
		newGroup(withCount(11), ofType(schema.SecurityHotspot)),
	)
	v.run(schema.ViolationsKey).assertValue(schema.ViolationsKey, 8)
}

func TestCountUnresolvedByType(t *testing.T) {
	groups := []schema.IssueGroup{
		newGroup(ofType(schema.CodeSmell), withCount(3)),
		newGroup(ofType(schema.Bug), withCount(5), inLeak),
		newGroup(ofType(schema.Vulnerability), withCount(7)),
		newGroup(ofType(schema.SecurityHotspot), withCount(11)),
		newGroup(ofType(schema.Bug), withCount(13), withResolution(schema.ResolutionFixed)),
	}

	tests := []struct {
		metric string
		want   float64
	}{
		{schema.CodeSmellsKey, 3},
		{schema.BugsKey, 5},
		{schema.VulnerabilitiesKey, 7},
		{schema.SecurityHotspotsKey, 11},
	}
	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			newVerifier(t, groups...).run(tt.metric).assertValue(tt.metric, tt.want)
		})
	}
}

func TestCountUnresolvedBySeverityExcludesHotspots(t *testing.T) {
	groups := []schema.IssueGroup{
		newGroup(withSeverity(schema.Blocker), withCount(3)),
		newGroup(withSeverity(schema.Blocker), withCount(5), inLeak),
		newGroup(withSeverity(schema.Blocker), withCount(7), ofType(schema.SecurityHotspot)),
		newGroup(withSeverity(schema.Critical), withCount(11)),
		newGroup(withSeverity(schema.Major), withCount(13), withResolution(schema.ResolutionWontFix)),
	}

	newVerifier(t, groups...).run(schema.BlockerViolationsKey).assertValue(schema.BlockerViolationsKey, 8)
	newVerifier(t, groups...).run(schema.CriticalViolationsKey).assertValue(schema.CriticalViolationsKey, 11)
	newVerifier(t, groups...).run(schema.MajorViolationsKey).assertValue(schema.MajorViolationsKey, 0)
	newVerifier(t, groups...).run(schema.MinorViolationsKey).assertValue(schema.MinorViolationsKey, 0)
	newVerifier(t, groups...).run(schema.InfoViolationsKey).assertValue(schema.InfoViolationsKey, 0)
}

func TestCountByResolution(t *testing.T) {
	groups := []schema.IssueGroup{
		newGroup(withResolution(schema.ResolutionFalsePositive), withStatus(schema.StatusResolved), withCount(3)),
		newGroup(withResolution(schema.ResolutionWontFix), withStatus(schema.StatusResolved), withCount(5)),
		newGroup(withResolution(schema.ResolutionFalsePositive), withStatus(schema.StatusResolved), withCount(7), ofType(schema.SecurityHotspot)),
		newGroup(withCount(11)),
	}

	newVerifier(t, groups...).run(schema.FalsePositiveKey).assertValue(schema.FalsePositiveKey, 3)
	newVerifier(t, groups...).run(schema.WontFixKey).assertValue(schema.WontFixKey, 5)
}

func TestCountByStatus(t *testing.T) {
	groups := []schema.IssueGroup{
		newGroup(withStatus(schema.StatusConfirmed), withCount(3)),
		newGroup(withStatus(schema.StatusConfirmed), withCount(5), withResolution(schema.ResolutionFixed)),
		newGroup(withStatus(schema.StatusOpen), withCount(7), ofType(schema.SecurityHotspot)),
		newGroup(withStatus(schema.StatusReopened), withCount(11), inLeak),
		newGroup(withStatus(schema.StatusOpen), withCount(13)),
	}

	newVerifier(t, groups...).run(schema.ConfirmedIssuesKey).assertValue(schema.ConfirmedIssuesKey, 8)
	newVerifier(t, groups...).run(schema.OpenIssuesKey).assertValue(schema.OpenIssuesKey, 13)
	newVerifier(t, groups...).run(schema.ReopenedIssuesKey).assertValue(schema.ReopenedIssuesKey, 11)
}

func TestRemediationEfforts(t *testing.T) {
	groups := []schema.IssueGroup{
		newGroup(ofType(schema.CodeSmell), withEffort(3.0)),
		newGroup(ofType(schema.CodeSmell), withEffort(5.0), inLeak),
		newGroup(ofType(schema.CodeSmell), withEffort(7.0), withResolution(schema.ResolutionFixed)),
		newGroup(ofType(schema.Bug), withEffort(11.0)),
		newGroup(ofType(schema.Vulnerability), withEffort(13.0)),
		newGroup(ofType(schema.SecurityHotspot), withEffort(17.0)),
	}

	newVerifier(t, groups...).run(schema.TechnicalDebtKey).assertValue(schema.TechnicalDebtKey, 8)
	newVerifier(t, groups...).run(schema.ReliabilityRemediationEffortKey).assertValue(schema.ReliabilityRemediationEffortKey, 11)
	newVerifier(t, groups...).run(schema.SecurityRemediationEffortKey).assertValue(schema.SecurityRemediationEffortKey, 13)
}

func TestDebtRatio(t *testing.T) {
	tests := []struct {
		name string
		v    func(*verifier) *verifier
		want float64
	}{
		{"debt and cost", func(v *verifier) *verifier {
			return v.withValue(schema.TechnicalDebtKey, 20).withValue(schema.DevelopmentCostKey, 160)
		}, 12.5},
		{"debt above cost", func(v *verifier) *verifier {
			return v.withValue(schema.TechnicalDebtKey, 20).withValue(schema.DevelopmentCostKey, 10)
		}, 200},
		{"grade A boundary", func(v *verifier) *verifier {
			return v.withValue(schema.TechnicalDebtKey, 10).withValue(schema.DevelopmentCostKey, 200)
		}, 5},
		{"no debt", func(v *verifier) *verifier {
			return v.withValue(schema.DevelopmentCostKey, 20)
		}, 0},
		{"no cost", func(v *verifier) *verifier {
			return v.withValue(schema.TechnicalDebtKey, 20)
		}, 0},
		{"zero cost", func(v *verifier) *verifier {
			return v.withValue(schema.TechnicalDebtKey, 20).withValue(schema.DevelopmentCostKey, 0)
		}, 0},
		{"negative debt", func(v *verifier) *verifier {
			return v.withValue(schema.TechnicalDebtKey, -20).withValue(schema.DevelopmentCostKey, 10)
		}, 0},
		{"negative cost", func(v *verifier) *verifier {
			return v.withValue(schema.TechnicalDebtKey, 20).withValue(schema.DevelopmentCostKey, -10)
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.v(newVerifier(t)).run(schema.DebtRatioKey).assertValue(schema.DebtRatioKey, tt.want)
		})
	}
}

func TestMaintainabilityRating(t *testing.T) {
	tests := []struct {
		name       string
		debt, cost float64
		want       rating.Rating
	}{
		{"ratio 12.5", 20, 160, rating.C},
		{"ratio 200", 20, 10, rating.E},
		{"ratio 5 is A", 10, 200, rating.A},
		{"ratio 0", 0, 200, rating.A},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newVerifier(t).
				withValue(schema.TechnicalDebtKey, tt.debt).
				withValue(schema.DevelopmentCostKey, tt.cost).
				run(schema.MaintainabilityRatingKey).
				assertValue(schema.MaintainabilityRatingKey, float64(tt.want))
		})
	}

	newVerifier(t).run(schema.MaintainabilityRatingKey).assertValue(schema.MaintainabilityRatingKey, float64(rating.A))
}

func TestMaintainabilityRatingUsesGrid(t *testing.T) {
	v := newVerifier(t).withValue(schema.TechnicalDebtKey, 20).withValue(schema.DevelopmentCostKey, 160)
	g, err := rating.NewGrid(0.2, 0.3, 0.4, 0.5)
	require.NoError(t, err)
	v.grid = g

	v.run(schema.MaintainabilityRatingKey).assertValue(schema.MaintainabilityRatingKey, float64(rating.A))
}

func TestEffortToReachMaintainabilityRatingA(t *testing.T) {
	key := schema.EffortToReachRatingAKey

	newVerifier(t).withValue(schema.TechnicalDebtKey, 20).run(key).assertValue(key, 20)
	newVerifier(t).withValue(schema.TechnicalDebtKey, 40).withValue(schema.DevelopmentCostKey, 200).run(key).assertValue(key, 30)
	newVerifier(t).withValue(schema.TechnicalDebtKey, 180).withValue(schema.DevelopmentCostKey, 200).run(key).assertValue(key, 170)
	newVerifier(t).withValue(schema.TechnicalDebtKey, 8).withValue(schema.DevelopmentCostKey, 200).run(key).assertValue(key, 0)
	newVerifier(t).withValue(schema.TechnicalDebtKey, 10).withValue(schema.DevelopmentCostKey, 200).run(key).assertValue(key, 0)
	newVerifier(t).withValue(schema.DevelopmentCostKey, 200).run(key).assertValue(key, 0)
}

func TestReliabilityRatingFromWorstBug(t *testing.T) {
	groups := []schema.IssueGroup{
		newGroup(ofType(schema.Bug), withSeverity(schema.Major), withCount(2)),
		newGroup(ofType(schema.Bug), withSeverity(schema.Critical)),
		newGroup(ofType(schema.CodeSmell), withSeverity(schema.Blocker)),
		newGroup(ofType(schema.Bug), withSeverity(schema.Blocker), withResolution(schema.ResolutionFixed)),
	}

	newVerifier(t, groups...).run(schema.ReliabilityRatingKey).assertValue(schema.ReliabilityRatingKey, float64(rating.D))
	newVerifier(t).run(schema.ReliabilityRatingKey).assertValue(schema.ReliabilityRatingKey, float64(rating.A))
}

func TestSecurityRatingFromWorstVulnerability(t *testing.T) {
	groups := []schema.IssueGroup{
		newGroup(ofType(schema.Vulnerability), withSeverity(schema.Minor)),
		newGroup(ofType(schema.SecurityHotspot), withSeverity(schema.Blocker)),
	}

	newVerifier(t, groups...).run(schema.SecurityRatingKey).assertValue(schema.SecurityRatingKey, float64(rating.B))
}

func TestHotspotReview(t *testing.T) {
	groups := []schema.IssueGroup{
		newGroup(ofType(schema.SecurityHotspot), withStatus(schema.StatusToReview)),
		newGroup(ofType(schema.SecurityHotspot), withStatus(schema.StatusReviewed), withResolution(schema.ResolutionSafe), withCount(3)),
	}

	newVerifier(t, groups...).run(schema.HotspotsReviewedKey).assertValue(schema.HotspotsReviewedKey, 75)
	newVerifier(t, groups...).run(schema.SecurityReviewRatingKey).assertValue(schema.SecurityReviewRatingKey, float64(rating.B))

	newVerifier(t).run(schema.HotspotsReviewedKey).assertNoValue(schema.HotspotsReviewedKey)
	newVerifier(t).run(schema.SecurityReviewRatingKey).assertValue(schema.SecurityReviewRatingKey, float64(rating.A))
}

func TestLeakCounts(t *testing.T) {
	groups := []schema.IssueGroup{
		newGroup(ofType(schema.Bug), withSeverity(schema.Major), withCount(3)),
		newGroup(ofType(schema.Bug), withSeverity(schema.Major), withCount(5), inLeak),
		newGroup(ofType(schema.CodeSmell), withSeverity(schema.Blocker), withCount(7), inLeak),
		newGroup(ofType(schema.SecurityHotspot), withSeverity(schema.Blocker), withCount(11), inLeak),
	}

	v := newVerifier(t, groups...).run(schema.NewViolationsKey)
	v.assertLeakValue(schema.NewViolationsKey, 12)
	row, _, err := v.matrix.GetMeasure(testProject.UUID, schema.NewViolationsKey)
	require.NoError(t, err)
	assert.Nil(t, row.Value, "leak formulas only write the variation")

	newVerifier(t, groups...).run(schema.NewBugsKey).assertLeakValue(schema.NewBugsKey, 5)
	newVerifier(t, groups...).run(schema.NewCodeSmellsKey).assertLeakValue(schema.NewCodeSmellsKey, 7)
	newVerifier(t, groups...).run(schema.NewVulnerabilitiesKey).assertLeakValue(schema.NewVulnerabilitiesKey, 0)
	newVerifier(t, groups...).run(schema.NewSecurityHotspotsKey).assertLeakValue(schema.NewSecurityHotspotsKey, 11)
	newVerifier(t, groups...).run(schema.NewBlockerViolationsKey).assertLeakValue(schema.NewBlockerViolationsKey, 7)
	newVerifier(t, groups...).run(schema.NewMajorViolationsKey).assertLeakValue(schema.NewMajorViolationsKey, 5)
}

func TestLeakEffortsAndRatings(t *testing.T) {
	groups := []schema.IssueGroup{
		newGroup(ofType(schema.CodeSmell), withEffort(3), inLeak),
		newGroup(ofType(schema.CodeSmell), withEffort(100)),
		newGroup(ofType(schema.Bug), withEffort(5), withSeverity(schema.Critical)),
		newGroup(ofType(schema.Bug), withEffort(7), withSeverity(schema.Minor), inLeak),
		newGroup(ofType(schema.Vulnerability), withEffort(11), withSeverity(schema.Blocker), inLeak),
	}

	newVerifier(t, groups...).run(schema.NewTechnicalDebtKey).assertLeakValue(schema.NewTechnicalDebtKey, 3)
	newVerifier(t, groups...).run(schema.NewReliabilityRemediationEffortKey).assertLeakValue(schema.NewReliabilityRemediationEffortKey, 7)
	newVerifier(t, groups...).run(schema.NewSecurityRemediationEffortKey).assertLeakValue(schema.NewSecurityRemediationEffortKey, 11)
	newVerifier(t, groups...).run(schema.NewReliabilityRatingKey).assertLeakValue(schema.NewReliabilityRatingKey, float64(rating.B))
	newVerifier(t, groups...).run(schema.NewSecurityRatingKey).assertLeakValue(schema.NewSecurityRatingKey, float64(rating.E))
	newVerifier(t).run(schema.NewSecurityRatingKey).assertLeakValue(schema.NewSecurityRatingKey, float64(rating.A))
}

func TestNewDebtRatioReadsVariations(t *testing.T) {
	newVerifier(t).
		withLeakValue(schema.NewTechnicalDebtKey, 20).
		withLeakValue(schema.NewDevelopmentCostKey, 160).
		run(schema.NewDebtRatioKey).
		assertLeakValue(schema.NewDebtRatioKey, 12.5)

	newVerifier(t).
		withLeakValue(schema.NewTechnicalDebtKey, 20).
		withLeakValue(schema.NewDevelopmentCostKey, 160).
		run(schema.NewMaintainabilityRatingKey).
		assertLeakValue(schema.NewMaintainabilityRatingKey, float64(rating.C))

	// values outside the leak period are ignored
	newVerifier(t).
		withValue(schema.NewTechnicalDebtKey, 20).
		withValue(schema.NewDevelopmentCostKey, 160).
		run(schema.NewDebtRatioKey).
		assertLeakValue(schema.NewDebtRatioKey, 0)
}

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry()
	require.NoError(t, err)
	assert.Len(t, r.Formulas(), len(BuiltIns()))

	known := schema.MetricsByKey(schema.CoreMetrics())
	for _, key := range r.Metrics() {
		_, ok := known[key]
		assert.True(t, ok, "metric %s missing from the catalogue", key)
	}
}
