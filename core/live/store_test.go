package live

import (
	"context"
	"strings"
	"sync"

	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"
	"github.com/stretchr/testify/mock"
)

type measureKey struct {
	component string
	metric    string
}

// memStore is an in-memory MeasureStore. A transaction works on a copy of
// the measures that replaces the committed state only when fn succeeds.
type memStore struct {
	mu         sync.Mutex
	components map[string]schema.Component
	snapshots  map[string]schema.Snapshot
	metrics    map[string]schema.Metric
	measures   map[measureKey]schema.LiveMeasure
	issues     []schema.Issue
	gates      map[string]schema.QualityGate
	upserts    int
	txCount    int
}

var _ contract.MeasureStore = (*memStore)(nil)

func newMemStore(components ...schema.Component) *memStore {
	s := &memStore{
		components: map[string]schema.Component{},
		snapshots:  map[string]schema.Snapshot{},
		metrics:    schema.MetricsByKey(schema.CoreMetrics()),
		measures:   map[measureKey]schema.LiveMeasure{},
		gates:      map[string]schema.QualityGate{},
	}
	for _, c := range components {
		s.components[c.UUID] = c
	}
	return s
}

func (s *memStore) analyzed(rootUUID string, periodDate *int64) {
	s.snapshots[rootUUID] = schema.Snapshot{UUID: "s-" + rootUUID, ComponentUUID: rootUUID, CreatedAt: 1000, PeriodDate: periodDate}
}

func (s *memStore) measure(componentUUID, metricKey string) (schema.LiveMeasure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.measures[measureKey{componentUUID, metricKey}]
	return m, ok
}

func (s *memStore) WithinTx(_ context.Context, fn func(tx contract.MeasureTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++
	staged := make(map[measureKey]schema.LiveMeasure, len(s.measures))
	for k, v := range s.measures {
		staged[k] = v
	}
	tx := &memTx{store: s, staged: staged}
	if err := fn(tx); err != nil {
		return err
	}
	s.measures = staged
	s.upserts += tx.upserts
	return nil
}

func (s *memStore) RegisterMetrics(_ context.Context, metrics []schema.Metric) error {
	for _, m := range metrics {
		s.metrics[m.Key] = m
	}
	return nil
}

func (s *memStore) ImportDataset(context.Context, schema.Dataset) error { return nil }

func (s *memStore) FindComponentByKey(_ context.Context, key string) (schema.Component, bool, error) {
	for _, c := range s.components {
		if c.Key == key {
			return c, true, nil
		}
	}
	return schema.Component{}, false, nil
}

func (s *memStore) ListComponents(_ context.Context, projectUUID string) ([]schema.Component, error) {
	var out []schema.Component
	for _, c := range s.components {
		if projectUUID == "" || c.ProjectUUID == projectUUID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) SelectMeasureRecords(context.Context, string) ([]schema.MeasureRecord, error) {
	return nil, nil
}

func (s *memStore) SelectAllMeasureRecords(context.Context) ([]schema.MeasureRecord, error) {
	return nil, nil
}

func (s *memStore) GetStatus(context.Context) (schema.StoreStatus, error) {
	return schema.StoreStatus{}, nil
}

func (s *memStore) Close() error { return nil }

type memTx struct {
	store   *memStore
	staged  map[measureKey]schema.LiveMeasure
	upserts int
}

func (t *memTx) FindGateFor(_ context.Context, projectUUID string) (schema.QualityGate, bool, error) {
	if g, ok := t.store.gates[projectUUID]; ok {
		return g, true, nil
	}
	g, ok := t.store.gates[""]
	return g, ok, nil
}

func (t *memTx) SelectComponentsByUUIDs(_ context.Context, uuids []string) ([]schema.Component, error) {
	var out []schema.Component
	for _, id := range uuids {
		if c, ok := t.store.components[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (t *memTx) SelectLastSnapshot(_ context.Context, projectUUID string) (schema.Snapshot, bool, error) {
	s, ok := t.store.snapshots[projectUUID]
	return s, ok, nil
}

func (t *memTx) SelectMetricsByKeys(_ context.Context, keys []string) ([]schema.Metric, error) {
	var out []schema.Metric
	for _, k := range keys {
		if m, ok := t.store.metrics[k]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (t *memTx) SelectMeasures(_ context.Context, componentUUIDs []string, metricKeys []string) ([]schema.LiveMeasure, error) {
	var out []schema.LiveMeasure
	for _, c := range componentUUIDs {
		for _, m := range metricKeys {
			if row, ok := t.staged[measureKey{c, m}]; ok {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (t *memTx) SelectIssueGroups(_ context.Context, component schema.Component, leakPeriodStart int64) ([]schema.IssueGroup, error) {
	prefix := component.SubtreePathPrefix()
	var out []schema.IssueGroup
	for _, is := range t.store.issues {
		owner := t.store.components[is.ComponentUUID]
		if owner.UUID != component.UUID && !strings.HasPrefix(owner.UUIDPath, prefix) {
			continue
		}
		out = append(out, schema.IssueGroup{
			RuleType:   is.RuleType,
			Severity:   is.Severity,
			Status:     is.Status,
			Resolution: is.Resolution,
			Count:      1,
			Effort:     is.Effort,
			InLeak:     is.CreatedAt > leakPeriodStart,
		})
	}
	return out, nil
}

func (t *memTx) UpsertMeasures(_ context.Context, rows []schema.LiveMeasure) (int, error) {
	changed := 0
	for _, row := range rows {
		k := measureKey{row.ComponentUUID, row.MetricKey}
		if old, ok := t.staged[k]; ok && old.SameState(row) {
			continue
		}
		t.staged[k] = row
		changed++
	}
	t.upserts += changed
	return changed, nil
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) OnMeasureChange(ctx context.Context, projectUUIDs []string, cause schema.IndexCause) error {
	args := m.Called(ctx, projectUUIDs, cause)
	return args.Error(0)
}
