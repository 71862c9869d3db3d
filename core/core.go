// Package core has the entry points that tie the live measure engine to the
// configured store and the output writers.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/huangsam/livemeasure/core/formula"
	"github.com/huangsam/livemeasure/core/gate"
	"github.com/huangsam/livemeasure/core/live"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/internal/fixture"
	"github.com/huangsam/livemeasure/internal/outwriter"
	"github.com/huangsam/livemeasure/schema"
)

// ErrGateFailed is returned by ExecuteGate when failOnError is set and the gate is red.
var ErrGateFailed = errors.New("quality gate failed")

// ExecutorFunc defines the function signature shared by the store-backed commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// NewComputer builds the live measure computer over the stores of mgr.
func NewComputer(cfg *contract.Config, mgr contract.StoreManager) (*live.Computer, error) {
	registry, err := formula.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to build formula registry: %w", err)
	}
	return live.New(mgr.GetMeasureStore(), registry, gate.NewComputer(), mgr.GetIndexNotifier(),
		live.WithGrid(cfg.RatingGrid),
		live.WithLogger(slog.Default()),
	), nil
}

// ExecuteImport loads a YAML dataset and writes it to the measure store.
func ExecuteImport(ctx context.Context, mgr contract.StoreManager, path string) (schema.Dataset, error) {
	ds, err := fixture.LoadFile(path)
	if err != nil {
		return schema.Dataset{}, err
	}
	if err := mgr.GetMeasureStore().ImportDataset(ctx, ds); err != nil {
		return schema.Dataset{}, fmt.Errorf("failed to import %s: %w", path, err)
	}
	return ds, nil
}

// ExecuteRefresh recomputes the live measures of the given components, or of
// the selection described by cfg when no component ids are passed.
func ExecuteRefresh(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, componentUUIDs []string) error {
	start := time.Now()
	computer, err := NewComputer(cfg, mgr)
	if err != nil {
		return err
	}

	var events []live.ChangeEvent
	if len(componentUUIDs) > 0 {
		events, err = computer.Refresh(ctx, componentUUIDs)
	} else {
		var batches [][]string
		batches, err = live.SelectBatches(ctx, mgr.GetMeasureStore(), live.Selection{
			ProjectKey: cfg.ProjectKey,
			Patterns:   cfg.Components,
		})
		if err != nil {
			return err
		}
		events, err = computer.RefreshAll(ctx, batches, cfg.Workers)
	}
	if err != nil {
		return err
	}

	duration := time.Since(start)
	return outwriter.NewOutWriter().WriteRefresh(live.Results(events), cfg, duration)
}

// ExecuteMeasures prints the stored live measures of one component, keeping
// only the given metrics when any are named.
func ExecuteMeasures(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, componentKey string, metricKeys []string) error {
	store := mgr.GetMeasureStore()
	component, ok, err := store.FindComponentByKey(ctx, componentKey)
	if err != nil {
		return fmt.Errorf("failed to look up component %s: %w", componentKey, err)
	}
	if !ok {
		return fmt.Errorf("unknown component %q", componentKey)
	}

	records, err := store.SelectMeasureRecords(ctx, component.UUID)
	if err != nil {
		return fmt.Errorf("failed to read measures of %s: %w", componentKey, err)
	}
	if len(metricKeys) > 0 {
		records = keepMetrics(records, metricKeys)
	}
	return outwriter.NewOutWriter().WriteMeasures(component, records, cfg)
}

// ExecuteGate prints the stored quality gate outcome of a project. With
// failOnError it returns ErrGateFailed after printing when the level is ERROR.
func ExecuteGate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, projectKey string, failOnError bool) error {
	store := mgr.GetMeasureStore()
	project, ok, err := store.FindComponentByKey(ctx, projectKey)
	if err != nil {
		return fmt.Errorf("failed to look up project %s: %w", projectKey, err)
	}
	if !ok || !project.IsRoot() {
		return fmt.Errorf("%w: %s", live.ErrUnknownProject, projectKey)
	}

	records, err := store.SelectMeasureRecords(ctx, project.UUID)
	if err != nil {
		return fmt.Errorf("failed to read measures of %s: %w", projectKey, err)
	}
	details, found, err := gate.DetailsFromRecords(records)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("project %s has no quality gate status yet; run refresh first", projectKey)
	}

	if err := outwriter.NewOutWriter().WriteGate(project, details, cfg); err != nil {
		return err
	}
	if failOnError && details.Level == schema.LevelError {
		return fmt.Errorf("%w for %s", ErrGateFailed, projectKey)
	}
	return nil
}

// ExecuteMetrics prints the metric catalogue along with the dependencies of
// every computed metric.
func ExecuteMetrics(_ context.Context, cfg *contract.Config) error {
	registry, err := formula.DefaultRegistry()
	if err != nil {
		return fmt.Errorf("failed to build formula registry: %w", err)
	}
	deps := make(map[string][]string)
	for _, f := range registry.Formulas() {
		deps[f.Metric()] = f.Dependencies()
	}
	return outwriter.NewOutWriter().WriteMetrics(schema.CoreMetrics(), deps, cfg)
}

func keepMetrics(records []schema.MeasureRecord, metricKeys []string) []schema.MeasureRecord {
	keep := make(map[string]struct{}, len(metricKeys))
	for _, k := range metricKeys {
		keep[k] = struct{}{}
	}
	out := make([]schema.MeasureRecord, 0, len(records))
	for _, r := range records {
		if _, ok := keep[r.MetricKey]; ok {
			out = append(out, r)
		}
	}
	return out
}
