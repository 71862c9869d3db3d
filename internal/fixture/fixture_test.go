package fixture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/livemeasure/schema"
)

const sampleDataset = `
gates:
  - name: Sonar way
    uuid: g-default
    default: true
    conditions:
      - metric: bugs
        op: GT
        error: "0"
      - metric: new_code_smells
        op: GT
        error: "5"
        warning: "2"
        on_leak: true
  - name: Strict
    conditions:
      - metric: vulnerabilities
        op: GT
        error: "0"
metrics:
  - key: custom_score
    type: FLOAT
    decimal_scale: 2
    direction: 1
projects:
  - key: proj
    uuid: p
    name: Project
    gate: Strict
    analysis:
      uuid: s1
      created_at: 2000
      period_date: 1000
    measures:
      - metric: development_cost
        value: 3000
    children:
      - key: proj:src
        uuid: d
        children:
          - key: proj:src/a.go
            uuid: f1
            issues:
              - key: i1
                type: BUG
                severity: MAJOR
                effort: 30
                created_at: 1500
              - type: CODE_SMELL
                severity: MINOR
                status: RESOLVED
                resolution: FIXED
          - key: proj:src/b.go
  - key: other
    branch: SHORT
`

func TestLoad(t *testing.T) {
	ds, err := Load(strings.NewReader(sampleDataset))
	require.NoError(t, err)

	require.Len(t, ds.Components, 5)
	byKey := map[string]schema.Component{}
	for _, c := range ds.Components {
		byKey[c.Key] = c
	}

	root := byKey["proj"]
	assert.Equal(t, "p", root.UUID)
	assert.Equal(t, ".", root.UUIDPath)
	assert.Nil(t, root.ParentUUID)
	assert.Equal(t, schema.ProjectQualifier, root.Qualifier)
	assert.Equal(t, schema.LongBranch, root.BranchType)

	dir := byKey["proj:src"]
	assert.Equal(t, schema.DirQualifier, dir.Qualifier)
	assert.Equal(t, ".p.", dir.UUIDPath)
	require.NotNil(t, dir.ParentUUID)
	assert.Equal(t, "p", *dir.ParentUUID)
	assert.Equal(t, "src", dir.Name)

	file := byKey["proj:src/a.go"]
	assert.Equal(t, schema.FileQualifier, file.Qualifier)
	assert.Equal(t, ".p.d.", file.UUIDPath)
	assert.Equal(t, "p", file.ProjectUUID)
	assert.Equal(t, "a.go", file.Name)

	generated := byKey["proj:src/b.go"]
	_, err = uuid.Parse(generated.UUID)
	assert.NoError(t, err, "missing uuids are generated")

	other := byKey["other"]
	assert.Equal(t, schema.ShortBranch, other.BranchType)
	assert.Equal(t, other.UUID, other.ProjectUUID)

	require.Len(t, ds.Snapshots, 1)
	assert.Equal(t, "p", ds.Snapshots[0].ComponentUUID)
	require.NotNil(t, ds.Snapshots[0].PeriodDate)
	assert.Equal(t, int64(1000), *ds.Snapshots[0].PeriodDate)

	require.Len(t, ds.Issues, 2)
	assert.Equal(t, "i1", ds.Issues[0].Key)
	assert.Equal(t, "f1", ds.Issues[0].ComponentUUID)
	assert.Equal(t, schema.StatusOpen, ds.Issues[0].Status, "status defaults to OPEN")
	assert.Nil(t, ds.Issues[0].Resolution)
	require.NotNil(t, ds.Issues[1].Resolution)
	assert.Equal(t, schema.ResolutionFixed, *ds.Issues[1].Resolution)

	require.Len(t, ds.Gates, 2)
	assert.Equal(t, "g-default", ds.DefaultGateUUID)
	assert.Equal(t, ds.Gates[1].UUID, ds.ProjectGates["p"])
	cond := ds.Gates[0].Conditions[1]
	assert.Equal(t, schema.GreaterThan, cond.Operator)
	assert.True(t, cond.OnLeak)
	require.NotNil(t, cond.WarningThreshold)
	assert.Equal(t, "2", *cond.WarningThreshold)

	require.Len(t, ds.Metrics, 1)
	assert.Equal(t, "custom_score", ds.Metrics[0].Name)
	require.NotNil(t, ds.Metrics[0].DecimalScale)
	assert.Equal(t, 2, *ds.Metrics[0].DecimalScale)

	require.Len(t, ds.Measures, 1)
	assert.Equal(t, schema.DevelopmentCostKey, ds.Measures[0].MetricKey)
	assert.Equal(t, "p", ds.Measures[0].ComponentUUID)
	require.NotNil(t, ds.Measures[0].Value)
	assert.Equal(t, 3000.0, *ds.Measures[0].Value)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"empty", "", "dataset is empty"},
		{"no projects", "gates: []\n", "Projects"},
		{"unknown field", "projects:\n  - key: p\n    colour: red\n", "colour"},
		{"bad issue type", "projects:\n  - key: p\n    issues:\n      - type: TYPO\n        severity: MAJOR\n", "Type"},
		{"bad operator", "gates:\n  - name: g\n    conditions:\n      - metric: bugs\n        op: GTE\n        error: \"1\"\nprojects:\n  - key: p\n", "Op"},
		{"missing key", "projects:\n  - name: nameless\n", "Key"},
		{"duplicate key", "projects:\n  - key: p\n    children:\n      - key: p\n", "duplicate component key"},
		{"unknown gate", "projects:\n  - key: p\n    gate: nope\n", "unknown gate"},
		{"two defaults", "gates:\n  - name: a\n    default: true\n  - name: b\n    default: true\nprojects:\n  - key: p\n", "more than one default gate"},
		{"duplicate gate", "gates:\n  - name: a\n  - name: a\nprojects:\n  - key: p\n", "duplicate gate name"},
		{"analysis without date", "projects:\n  - key: p\n    analysis:\n      period_date: 1\n", "CreatedAt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDataset), 0o600))

	ds, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, ds.Components, 5)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read dataset")
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "a.go", lastSegment("proj:src/a.go"))
	assert.Equal(t, "src", lastSegment("proj:src"))
	assert.Equal(t, "proj", lastSegment("proj"))
	assert.Equal(t, "proj:", lastSegment("proj:"))
}
