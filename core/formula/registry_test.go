package formula

import (
	"errors"
	"testing"

	"github.com/huangsam/livemeasure/core/issues"
	"github.com/huangsam/livemeasure/core/matrix"
	"github.com/huangsam/livemeasure/core/rating"
	"github.com/huangsam/livemeasure/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(v float64) ComputeFunc {
	return func(ctx Context, _ *issues.Counter) error {
		ctx.SetValue(v)
		return nil
	}
}

func metricKeys(fs []Formula) []string {
	keys := make([]string, len(fs))
	for i, f := range fs {
		keys[i] = f.Metric()
	}
	return keys
}

func TestNewRegistryOrdersProducersFirst(t *testing.T) {
	r, err := NewRegistry(nil,
		New("c", false, constant(3), Dep("b")),
		New("a", false, constant(1)),
		New("b", false, constant(2), Dep("a")),
		New("d", false, constant(4)),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, metricKeys(r.Formulas()))
}

func TestNewRegistryKeepsRegistrationOrderWhenIndependent(t *testing.T) {
	r, err := NewRegistry(nil,
		New("z", false, constant(1)),
		New("y", false, constant(1)),
		New("x", false, constant(1)),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y", "x"}, metricKeys(r.Formulas()))
}

func TestNewRegistryErrors(t *testing.T) {
	tests := []struct {
		name     string
		inputs   []string
		formulas []Formula
		wantErr  error
	}{
		{
			name:     "duplicate",
			formulas: []Formula{New("a", false, constant(1)), New("a", true, constant(2))},
			wantErr:  ErrDuplicateMetric,
		},
		{
			name:     "unknown dependency",
			formulas: []Formula{New("a", false, constant(1), Dep("missing"))},
			wantErr:  ErrUnknownDependency,
		},
		{
			name: "cycle",
			formulas: []Formula{
				New("a", false, constant(1), Dep("c")),
				New("b", false, constant(1), Dep("a")),
				New("c", false, constant(1), Dep("b")),
			},
			wantErr: ErrCycle,
		},
		{
			name: "undeclared read",
			formulas: []Formula{
				New("a", false, constant(1)),
				New("b", false, func(ctx Context, _ *issues.Counter) error {
					v, _ := ctx.Value(Dep("a"))
					ctx.SetValue(v)
					return nil
				}),
			},
			wantErr: ErrUndeclaredDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.inputs, tt.formulas...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewRegistryAcceptsInputs(t *testing.T) {
	_, err := NewRegistry([]string{"cost"}, New("a", false, constant(1), Dep("cost")))
	assert.NoError(t, err)
}

func TestNewRegistryRejectsMissingCompute(t *testing.T) {
	_, err := NewRegistry(nil, New("a", false, nil))
	assert.Error(t, err)
}

func TestFormulaMayReadItsOwnMetric(t *testing.T) {
	_, err := NewRegistry(nil, New("a", false, func(ctx Context, _ *issues.Counter) error {
		prev, _ := ctx.Value(Dep("a"))
		ctx.SetValue(prev + 1)
		return nil
	}))
	assert.NoError(t, err)
}

func TestRegistryMetrics(t *testing.T) {
	r, err := NewRegistry([]string{"cost"},
		New("a", false, constant(1)),
		New("b", false, constant(1), Dep("a"), Dep("cost")),
	)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cost", "a", "b"}, r.Metrics())
}

func testMatrix(keys ...string) *matrix.Matrix {
	metrics := make([]schema.Metric, len(keys))
	for i, k := range keys {
		metrics[i] = schema.Metric{Key: k, Type: schema.IntType}
	}
	return matrix.New([]schema.Component{testProject}, metrics, nil)
}

func TestRunChainsDependencies(t *testing.T) {
	r, err := NewRegistry(nil,
		New("double", false, func(ctx Context, _ *issues.Counter) error {
			v, ok := ctx.Value(Dep("base"))
			if ok {
				ctx.SetValue(v * 2)
			}
			return nil
		}, Dep("base")),
		New("base", false, constant(21)),
	)
	require.NoError(t, err)

	m := testMatrix("base", "double")
	require.NoError(t, r.Run(m, testProject, rating.DefaultGrid, issues.NewCounter(nil), true))

	row, ok, err := m.GetMeasure(testProject.UUID, "double")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42.0, *row.Value)
}

func TestRunSkipsLeakFormulasWithoutLeakPeriod(t *testing.T) {
	r, err := NewRegistry(nil,
		New("all", false, constant(1)),
		New("new", true, func(ctx Context, _ *issues.Counter) error {
			ctx.SetLeakValue(1)
			return nil
		}),
	)
	require.NoError(t, err)

	m := testMatrix("all", "new")
	require.NoError(t, r.Run(m, testProject, rating.DefaultGrid, issues.NewCounter(nil), false))

	_, ok, err := m.GetMeasure(testProject.UUID, "new")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, m.Changed(), 1)
}

func TestRunWrapsFormulaErrors(t *testing.T) {
	boom := errors.New("boom")
	r, err := NewRegistry(nil, New("a", false, func(ctx Context, _ *issues.Counter) error {
		if ctx.Component().UUID == "probe" {
			return nil
		}
		return boom
	}))
	require.NoError(t, err)

	err = r.Run(testMatrix("a"), testProject, rating.DefaultGrid, issues.NewCounter(nil), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var ce *ComputeError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "a", ce.Metric)
	assert.Equal(t, testProject.Key, ce.Component)
	assert.Equal(t, "fail to compute a on project: boom", err.Error())
}

func TestRunRecoversPanics(t *testing.T) {
	r, err := NewRegistry(nil, New("a", false, func(ctx Context, _ *issues.Counter) error {
		if ctx.Component().UUID != "probe" {
			var m map[string]int
			m["x"] = 1
		}
		return nil
	}))
	require.NoError(t, err)

	err = r.Run(testMatrix("a"), testProject, rating.DefaultGrid, issues.NewCounter(nil), true)
	var ce *ComputeError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "panic")
}

func TestRunReportsUnknownMetric(t *testing.T) {
	r, err := NewRegistry(nil, New("not_in_matrix", false, constant(1)))
	require.NoError(t, err)

	err = r.Run(testMatrix("a"), testProject, rating.DefaultGrid, issues.NewCounter(nil), true)
	assert.ErrorIs(t, err, matrix.ErrUnknownMetric)
}

func TestUndeclaredReadOnDataPathFailsAtRun(t *testing.T) {
	// the undeclared read only happens once data exists, so the probe cannot see it
	r, err := NewRegistry(nil,
		New("a", false, constant(1)),
		New("b", false, func(ctx Context, c *issues.Counter) error {
			if c.CountUnresolved(false) > 0 {
				ctx.Value(Dep("a"))
			}
			ctx.SetValue(0)
			return nil
		}),
	)
	require.NoError(t, err)

	counter := issues.NewCounter([]schema.IssueGroup{{RuleType: schema.Bug, Severity: schema.Major, Status: schema.StatusOpen, Count: 1}})
	err = r.Run(testMatrix("a", "b"), testProject, rating.DefaultGrid, counter, true)
	assert.ErrorIs(t, err, ErrUndeclaredDependency)
}
