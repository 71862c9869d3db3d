package core

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/livemeasure/core/live"
	"github.com/huangsam/livemeasure/core/rating"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/internal/iocache"
	"github.com/huangsam/livemeasure/schema"
)

const testDataset = `
gates:
  - name: default
    default: true
    conditions:
      - metric: bugs
        op: GT
        error: "0"
projects:
  - key: proj
    analysis:
      created_at: 2000
    children:
      - key: proj:a.go
        issues:
          - type: BUG
            severity: MAJOR
      - key: proj:b.go
  - key: other
    analysis:
      created_at: 2000
    children:
      - key: other:c.go
`

// newTestManager returns a manager over an in-memory SQLite store.
func newTestManager(t *testing.T) (*iocache.MockStoreManager, *iocache.MeasureStoreImpl) {
	t.Helper()
	store, err := iocache.NewMeasureStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.RegisterMetrics(context.Background(), schema.CoreMetrics()))

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetMeasureStore").Return(store)
	mgr.On("GetIndexNotifier").Return(iocache.NewIndexQueue(store))
	return mgr, store
}

// importTestDataset writes the dataset to disk and imports it.
func importTestDataset(t *testing.T, mgr *iocache.MockStoreManager) schema.Dataset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testDataset), 0o644))
	ds, err := ExecuteImport(context.Background(), mgr, path)
	require.NoError(t, err)
	return ds
}

func jsonConfig(t *testing.T) *contract.Config {
	t.Helper()
	return &contract.Config{
		Workers:    2,
		Precision:  contract.DefaultPrecision,
		Output:     schema.JSONOut,
		OutputFile: filepath.Join(t.TempDir(), "out.json"),
		RatingGrid: rating.DefaultGrid,
	}
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestExecuteImport(t *testing.T) {
	mgr, store := newTestManager(t)
	ds := importTestDataset(t, mgr)
	assert.Len(t, ds.Components, 5)

	components, err := store.ListComponents(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, components, 5)

	_, err = ExecuteImport(context.Background(), mgr, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExecuteRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("every project", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		importTestDataset(t, mgr)
		cfg := jsonConfig(t)

		require.NoError(t, ExecuteRefresh(ctx, cfg, mgr, nil))

		var results []schema.RefreshResult
		readJSON(t, cfg.OutputFile, &results)
		require.Len(t, results, 2)
		byKey := map[string]schema.RefreshResult{}
		for _, r := range results {
			byKey[r.ProjectKey] = r
		}
		assert.Equal(t, string(schema.LevelError), byKey["proj"].NewStatus)
		assert.Equal(t, string(schema.LevelOK), byKey["other"].NewStatus)
		assert.Empty(t, byKey["proj"].PreviousStatus)
	})

	t.Run("one project then again", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		importTestDataset(t, mgr)
		cfg := jsonConfig(t)
		cfg.ProjectKey = "proj"

		require.NoError(t, ExecuteRefresh(ctx, cfg, mgr, nil))
		require.NoError(t, ExecuteRefresh(ctx, cfg, mgr, nil))

		var results []schema.RefreshResult
		readJSON(t, cfg.OutputFile, &results)
		require.Len(t, results, 1)
		assert.Equal(t, string(schema.LevelError), results[0].PreviousStatus)
		assert.Equal(t, string(schema.LevelError), results[0].NewStatus)
		assert.Zero(t, results[0].ChangedRows)
	})

	t.Run("explicit component ids", func(t *testing.T) {
		mgr, store := newTestManager(t)
		importTestDataset(t, mgr)
		cfg := jsonConfig(t)

		file, ok, err := store.FindComponentByKey(ctx, "other:c.go")
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, ExecuteRefresh(ctx, cfg, mgr, []string{file.UUID}))

		var results []schema.RefreshResult
		readJSON(t, cfg.OutputFile, &results)
		require.Len(t, results, 1)
		assert.Equal(t, "other", results[0].ProjectKey)
	})

	t.Run("unknown project", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		importTestDataset(t, mgr)
		cfg := jsonConfig(t)
		cfg.ProjectKey = "missing"

		err := ExecuteRefresh(ctx, cfg, mgr, nil)
		assert.ErrorIs(t, err, live.ErrUnknownProject)
	})
}

func TestExecuteMeasures(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	importTestDataset(t, mgr)
	require.NoError(t, ExecuteRefresh(ctx, jsonConfig(t), mgr, nil))

	cfg := jsonConfig(t)
	require.NoError(t, ExecuteMeasures(ctx, cfg, mgr, "proj", []string{schema.BugsKey, schema.AlertStatusKey}))

	var doc struct {
		Component schema.Component       `json:"component"`
		Measures  []schema.MeasureRecord `json:"measures"`
	}
	readJSON(t, cfg.OutputFile, &doc)
	assert.Equal(t, "proj", doc.Component.Key)
	require.Len(t, doc.Measures, 2)
	for _, m := range doc.Measures {
		switch m.MetricKey {
		case schema.BugsKey:
			require.NotNil(t, m.Value)
			assert.InDelta(t, 1.0, *m.Value, 1e-9)
		case schema.AlertStatusKey:
			require.NotNil(t, m.TextValue)
			assert.Equal(t, "ERROR", *m.TextValue)
		default:
			t.Fatalf("unexpected metric %s", m.MetricKey)
		}
	}

	err := ExecuteMeasures(ctx, cfg, mgr, "nope", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown component "nope"`)
}

func TestExecuteGate(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)
	importTestDataset(t, mgr)

	err := ExecuteGate(ctx, jsonConfig(t), mgr, "proj", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run refresh first")

	require.NoError(t, ExecuteRefresh(ctx, jsonConfig(t), mgr, nil))

	tests := []struct {
		name        string
		project     string
		failOnError bool
		wantErr     error
		wantLevel   schema.Level
	}{
		{"red gate", "proj", false, nil, schema.LevelError},
		{"red gate failing", "proj", true, ErrGateFailed, schema.LevelError},
		{"green gate failing", "other", true, nil, schema.LevelOK},
		{"file is not a project", "proj:a.go", false, live.ErrUnknownProject, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := jsonConfig(t)
			err := ExecuteGate(ctx, cfg, mgr, tt.project, tt.failOnError)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			if tt.wantLevel == "" {
				return
			}
			var doc struct {
				ProjectKey string       `json:"project_key"`
				Level      schema.Level `json:"level"`
			}
			readJSON(t, cfg.OutputFile, &doc)
			assert.Equal(t, tt.project, doc.ProjectKey)
			assert.Equal(t, tt.wantLevel, doc.Level)
		})
	}
}

func TestExecuteMetrics(t *testing.T) {
	cfg := jsonConfig(t)
	require.NoError(t, ExecuteMetrics(context.Background(), cfg))

	var defs []struct {
		Key       string   `json:"key"`
		Computed  bool     `json:"computed"`
		DependsOn []string `json:"depends_on"`
	}
	readJSON(t, cfg.OutputFile, &defs)
	assert.Len(t, defs, len(schema.CoreMetrics()))

	byKey := map[string]int{}
	for i, d := range defs {
		byKey[d.Key] = i
	}
	require.Contains(t, byKey, schema.MaintainabilityRatingKey)
	sqale := defs[byKey[schema.MaintainabilityRatingKey]]
	assert.True(t, sqale.Computed)
	assert.ElementsMatch(t, []string{schema.TechnicalDebtKey, schema.DevelopmentCostKey}, sqale.DependsOn)
}

func TestKeepMetrics(t *testing.T) {
	records := []schema.MeasureRecord{{MetricKey: "a"}, {MetricKey: "b"}, {MetricKey: "c"}}
	got := keepMetrics(records, []string{"c", "a", "z"})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].MetricKey)
	assert.Equal(t, "c", got[1].MetricKey)
}
