// Package live recomputes the measures of changed components and of their
// ancestors, evaluates the quality gate of each touched project root and
// persists the rows that changed.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/huangsam/livemeasure/core/formula"
	"github.com/huangsam/livemeasure/core/gate"
	"github.com/huangsam/livemeasure/core/issues"
	"github.com/huangsam/livemeasure/core/matrix"
	"github.com/huangsam/livemeasure/core/rating"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/internal/observability"
	"github.com/huangsam/livemeasure/schema"
)

// ErrMissingMetric is returned when a metric needed by the formulas or the gate is not registered in the store.
var ErrMissingMetric = errors.New("metric is not registered")

// Computer refreshes live measures. It is safe for concurrent use; refreshes
// touching the same project root are serialized.
type Computer struct {
	store    contract.MeasureStore
	registry *formula.Registry
	gates    *gate.Computer
	notifier contract.IndexNotifier
	grid     rating.Grid
	logger   *slog.Logger
	now      func() time.Time
	locks    *rootLocks
}

// Option configures a Computer.
type Option func(*Computer)

// WithGrid sets the rating grid used by rating formulas.
func WithGrid(g rating.Grid) Option {
	return func(c *Computer) { c.grid = g }
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Computer) { c.logger = l }
}

// WithClock sets the clock that stamps written rows.
func WithClock(now func() time.Time) Option {
	return func(c *Computer) { c.now = now }
}

// New returns a Computer. A nil notifier disables index notifications.
func New(store contract.MeasureStore, registry *formula.Registry, gates *gate.Computer, notifier contract.IndexNotifier, opts ...Option) *Computer {
	c := &Computer{
		store:    store,
		registry: registry,
		gates:    gates,
		notifier: notifier,
		grid:     rating.DefaultGrid,
		logger:   slog.Default(),
		now:      time.Now,
		locks:    newRootLocks(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rootResult is the outcome of one project root inside a refresh.
type rootResult struct {
	root     schema.Component
	snapshot schema.Snapshot
	previous *schema.Level
	gate     schema.EvaluatedGate
	changed  int
}

// Refresh recomputes the measures of the given components and their
// ancestors. It returns one event per refreshed project root. Roots that were
// never analyzed are skipped. Either every changed row is persisted or none.
func (c *Computer) Refresh(ctx context.Context, componentUUIDs []string) (events []ChangeEvent, err error) {
	if len(componentUUIDs) == 0 {
		return nil, nil
	}
	refreshID := uuid.NewString()
	logger := c.logger.With("refresh", refreshID)
	start := time.Now()

	ctx, span := observability.Tracer.Start(ctx, "live.Refresh",
		trace.WithAttributes(
			attribute.String("refresh.id", refreshID),
			attribute.Int("refresh.components", len(componentUUIDs)),
		),
	)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		observability.RefreshDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		span.End()
	}()

	roots, err := c.resolveRoots(ctx, componentUUIDs)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		logger.Debug("no known components to refresh", "requested", len(componentUUIDs))
		return nil, nil
	}

	unlock := c.locks.lock(roots)
	defer unlock()

	var results []rootResult
	err = c.store.WithinTx(ctx, func(tx contract.MeasureTx) error {
		results = results[:0]
		touched, err := tx.SelectComponentsByUUIDs(ctx, componentUUIDs)
		if err != nil {
			return fmt.Errorf("failed to load components: %w", err)
		}
		byRoot := groupByRoot(touched)
		for _, rootUUID := range roots {
			res, ok, err := c.refreshRoot(ctx, tx, rootUUID, byRoot[rootUUID], logger)
			if err != nil {
				return err
			}
			if ok {
				results = append(results, res)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	events = make([]ChangeEvent, 0, len(results))
	for _, res := range results {
		c.notify(ctx, res.root, logger)
		events = append(events, newChangeEvent(refreshID, res))
		observability.PersistedMeasuresTotal.Add(float64(res.changed))
		observability.GateStatusTotal.WithLabelValues(string(res.gate.Status)).Inc()
		logger.Info("refreshed live measures",
			"project", res.root.Key, "changed", res.changed, "status", res.gate.Status)
	}
	span.SetAttributes(attribute.Int("refresh.roots", len(events)))
	return events, nil
}

// resolveRoots returns the sorted distinct project roots of the components.
func (c *Computer) resolveRoots(ctx context.Context, componentUUIDs []string) ([]string, error) {
	var roots []string
	err := c.store.WithinTx(ctx, func(tx contract.MeasureTx) error {
		comps, err := tx.SelectComponentsByUUIDs(ctx, componentUUIDs)
		if err != nil {
			return fmt.Errorf("failed to load components: %w", err)
		}
		for root := range groupByRoot(comps) {
			roots = append(roots, root)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(roots)
	return roots, nil
}

func (c *Computer) refreshRoot(ctx context.Context, tx contract.MeasureTx, rootUUID string, touched []schema.Component, logger *slog.Logger) (rootResult, bool, error) {
	if len(touched) == 0 {
		return rootResult{}, false, nil
	}
	snapshot, ok, err := tx.SelectLastSnapshot(ctx, rootUUID)
	if err != nil {
		return rootResult{}, false, fmt.Errorf("failed to load last analysis of %s: %w", rootUUID, err)
	}
	if !ok {
		observability.SkippedProjectsTotal.Inc()
		logger.Debug("project was never analyzed", "project", rootUUID)
		return rootResult{}, false, nil
	}

	closure, err := loadClosure(ctx, tx, touched)
	if err != nil {
		return rootResult{}, false, err
	}
	root, ok := findComponent(closure, rootUUID)
	if !ok {
		return rootResult{}, false, fmt.Errorf("project root %s is not in the component tree", rootUUID)
	}

	qg, err := c.gates.LoadGate(ctx, tx, root)
	if err != nil {
		return rootResult{}, false, err
	}
	metrics, err := c.loadMetrics(ctx, tx, qg)
	if err != nil {
		return rootResult{}, false, err
	}
	uuids := componentUUIDsOf(closure)
	rows, err := tx.SelectMeasures(ctx, uuids, metricKeysOf(metrics))
	if err != nil {
		return rootResult{}, false, fmt.Errorf("failed to load measures of %s: %w", root.Key, err)
	}

	m := matrix.New(closure, metrics, rows)
	m.SetClock(c.now().UnixMilli())
	res := rootResult{root: root, snapshot: snapshot, previous: previousStatus(m, root)}

	withLeak := snapshot.PeriodDate != nil
	leakStart := int64(math.MaxInt64)
	if withLeak {
		leakStart = *snapshot.PeriodDate
	}
	if err := c.computeFormulas(ctx, tx, m, closure, leakStart, withLeak); err != nil {
		return rootResult{}, false, err
	}

	res.gate, err = c.gates.RefreshGateStatus(root, qg, m)
	if err != nil {
		return rootResult{}, false, fmt.Errorf("failed to evaluate quality gate of %s: %w", root.Key, err)
	}

	if changed := m.Changed(); len(changed) > 0 {
		res.changed, err = tx.UpsertMeasures(ctx, changed)
		if err != nil {
			return rootResult{}, false, fmt.Errorf("failed to persist measures of %s: %w", root.Key, err)
		}
	}
	return res, true, nil
}

func (c *Computer) computeFormulas(ctx context.Context, tx contract.MeasureTx, m *matrix.Matrix, closure []schema.Component, leakStart int64, withLeak bool) (err error) {
	ctx, span := observability.Tracer.Start(ctx, "live.Formulas",
		trace.WithAttributes(attribute.Int("formulas.components", len(closure))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	for _, comp := range closure {
		if err := ctx.Err(); err != nil {
			return err
		}
		groups, err := tx.SelectIssueGroups(ctx, comp, leakStart)
		if err != nil {
			return fmt.Errorf("failed to load issues of %s: %w", comp.Key, err)
		}
		if err := c.registry.Run(m, comp, c.grid, issues.NewCounter(groups), withLeak); err != nil {
			return err
		}
		observability.RefreshedComponentsTotal.Inc()
	}
	return nil
}

// loadMetrics loads the definitions of every metric the formulas and the gate touch.
func (c *Computer) loadMetrics(ctx context.Context, tx contract.MeasureTx, qg schema.QualityGate) ([]schema.Metric, error) {
	seen := map[string]struct{}{}
	var keys []string
	for _, k := range append(c.registry.Metrics(), c.gates.MetricsRelatedTo(qg)...) {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	metrics, err := tx.SelectMetricsByKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics: %w", err)
	}
	found := schema.MetricsByKey(metrics)
	for _, k := range keys {
		if _, ok := found[k]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingMetric, k)
		}
	}
	return metrics, nil
}

func (c *Computer) notify(ctx context.Context, root schema.Component, logger *slog.Logger) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.OnMeasureChange(ctx, []string{root.UUID}, schema.MeasureChangeCause); err != nil {
		observability.NotifierFailuresTotal.Inc()
		logger.Warn("index notification failed", "project", root.Key, "error", err)
	}
}

// previousStatus reads the stored gate status. Unknown or empty levels are absent.
func previousStatus(m *matrix.Matrix, root schema.Component) *schema.Level {
	row, ok, err := m.Baseline(root.UUID, schema.AlertStatusKey)
	if err != nil || !ok || row.TextValue == nil {
		return nil
	}
	level, ok := schema.ParseLevel(*row.TextValue)
	if !ok {
		return nil
	}
	return &level
}
