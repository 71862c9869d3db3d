package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/livemeasure/core/matrix"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"
)

// ErrGateNotFound is returned when a long-lived branch has no gate and no default gate exists.
var ErrGateNotFound = errors.New("quality gate not found")

// ShortLivedBranchGateUUID identifies the built-in gate of short-lived branches and pull requests.
const ShortLivedBranchGateUUID = "builtin-short-lived-branch"

// ShortLivedBranchGate returns the fixed gate applied to short-lived branches:
// any bug, vulnerability or code smell fails it.
func ShortLivedBranchGate() schema.QualityGate {
	return schema.QualityGate{
		UUID:    ShortLivedBranchGateUUID,
		Name:    "Hardcoded short-lived branch quality gate",
		BuiltIn: true,
		Conditions: []schema.Condition{
			{MetricKey: schema.BugsKey, Operator: schema.GreaterThan, ErrorThreshold: "0"},
			{MetricKey: schema.VulnerabilitiesKey, Operator: schema.GreaterThan, ErrorThreshold: "0"},
			{MetricKey: schema.CodeSmellsKey, Operator: schema.GreaterThan, ErrorThreshold: "0"},
		},
	}
}

// Computer loads gates and evaluates them on the refresh matrix.
type Computer struct{}

// NewComputer returns a gate computer.
func NewComputer() *Computer {
	return &Computer{}
}

// LoadGate returns the gate of a branch. Short-lived branches and pull
// requests get the built-in gate; other branches use the configured one.
func (c *Computer) LoadGate(ctx context.Context, repo contract.GateRepository, branch schema.Component) (schema.QualityGate, error) {
	switch branch.BranchType {
	case schema.ShortBranch, schema.PullRequest:
		return ShortLivedBranchGate(), nil
	}
	g, ok, err := repo.FindGateFor(ctx, branch.UUID)
	if err != nil {
		return schema.QualityGate{}, fmt.Errorf("failed to load quality gate of %s: %w", branch.Key, err)
	}
	if !ok {
		return schema.QualityGate{}, fmt.Errorf("%w for %s", ErrGateNotFound, branch.Key)
	}
	return g, nil
}

// MetricsRelatedTo returns the condition metrics plus the two status metrics the gate writes.
func (c *Computer) MetricsRelatedTo(g schema.QualityGate) []string {
	keys := make([]string, 0, len(g.Conditions)+2)
	seen := map[string]struct{}{}
	for _, cond := range g.Conditions {
		if _, ok := seen[cond.MetricKey]; ok {
			continue
		}
		seen[cond.MetricKey] = struct{}{}
		keys = append(keys, cond.MetricKey)
	}
	return append(keys, schema.AlertStatusKey, schema.QualityGateDetailsKey)
}

// RefreshGateStatus evaluates the gate on the root component of the matrix
// and writes the status and details measures back into it.
func (c *Computer) RefreshGateStatus(root schema.Component, g schema.QualityGate, m *matrix.Matrix) (schema.EvaluatedGate, error) {
	out := schema.EvaluatedGate{Gate: g, Status: schema.LevelOK}
	for _, cond := range g.Conditions {
		measure, err := measureOf(root, cond.MetricKey, m)
		if err != nil {
			return schema.EvaluatedGate{}, err
		}
		ec, err := EvaluateCondition(cond, measure)
		if err != nil {
			return schema.EvaluatedGate{}, err
		}
		out.Conditions = append(out.Conditions, ec)
		out.Status = out.Status.Worse(ec.Status)
	}

	details, err := EncodeDetails(out)
	if err != nil {
		return schema.EvaluatedGate{}, err
	}
	if err := m.SetText(root.UUID, schema.AlertStatusKey, string(out.Status)); err != nil {
		return schema.EvaluatedGate{}, err
	}
	if err := m.SetText(root.UUID, schema.QualityGateDetailsKey, details); err != nil {
		return schema.EvaluatedGate{}, err
	}
	return out, nil
}

func measureOf(root schema.Component, metricKey string, m *matrix.Matrix) (Measure, error) {
	metric, err := m.Metric(metricKey)
	if err != nil {
		return Measure{}, err
	}
	row, ok, err := m.GetMeasure(root.UUID, metricKey)
	if err != nil {
		return Measure{}, err
	}
	out := Measure{Metric: metric}
	if ok {
		out.Value = row.Value
		out.Variation = row.Variation
		out.Text = row.TextValue
	}
	return out, nil
}
