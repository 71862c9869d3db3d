// Package contract provides interfaces and shared utilities for the livemeasure internal architecture.
package contract

import (
	"context"
	"errors"

	"github.com/huangsam/livemeasure/schema"
)

// ErrStoreDisabled is returned by store operations when the none backend is configured.
var ErrStoreDisabled = errors.New("measure store is disabled (database backend is none)")

// StoreManager defines the interface for accessing the configured stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetMeasureStore() MeasureStore
	GetIndexNotifier() IndexNotifier
}

// MeasureStore is the persistence collaborator of a refresh, plus the
// administrative operations used by the CLI.
type MeasureStore interface {
	// WithinTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx MeasureTx) error) error

	// RegisterMetrics inserts metric definitions that are not stored yet.
	RegisterMetrics(ctx context.Context, metrics []schema.Metric) error

	// ImportDataset writes every row of the dataset in one transaction.
	ImportDataset(ctx context.Context, ds schema.Dataset) error

	// FindComponentByKey looks a component up by its key.
	FindComponentByKey(ctx context.Context, key string) (schema.Component, bool, error)

	// ListComponents returns the components of a project, or of every project when projectUUID is empty.
	ListComponents(ctx context.Context, projectUUID string) ([]schema.Component, error)

	// SelectMeasureRecords returns the measures of a component joined with their metric.
	SelectMeasureRecords(ctx context.Context, componentUUID string) ([]schema.MeasureRecord, error)

	// SelectAllMeasureRecords returns every stored measure.
	SelectAllMeasureRecords(ctx context.Context) ([]schema.MeasureRecord, error)

	// GetStatus returns status information about the store.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// MeasureTx is the view of the store inside a single refresh transaction.
type MeasureTx interface {
	GateRepository

	// SelectComponentsByUUIDs returns the components with the given ids. Unknown ids are skipped.
	SelectComponentsByUUIDs(ctx context.Context, uuids []string) ([]schema.Component, error)

	// SelectLastSnapshot returns the last analysis of a project root.
	SelectLastSnapshot(ctx context.Context, projectUUID string) (schema.Snapshot, bool, error)

	// SelectMetricsByKeys returns the definitions of the given metrics.
	SelectMetricsByKeys(ctx context.Context, keys []string) ([]schema.Metric, error)

	// SelectMeasures returns the stored measures of the components for the metrics.
	SelectMeasures(ctx context.Context, componentUUIDs []string, metricKeys []string) ([]schema.LiveMeasure, error)

	// SelectIssueGroups aggregates the issues of the component subtree. Issues
	// created after leakPeriodStart (epoch millis) are flagged in leak.
	SelectIssueGroups(ctx context.Context, component schema.Component, leakPeriodStart int64) ([]schema.IssueGroup, error)

	// UpsertMeasures inserts or updates the rows and returns how many changed.
	UpsertMeasures(ctx context.Context, rows []schema.LiveMeasure) (int, error)
}

// GateRepository resolves the quality gate configured for a project.
type GateRepository interface {
	// FindGateFor returns the gate assigned to the project, else the default gate.
	FindGateFor(ctx context.Context, projectUUID string) (schema.QualityGate, bool, error)
}

// IndexNotifier is told when measures of project roots changed.
// Failures are reported to the caller but never roll back measures.
type IndexNotifier interface {
	OnMeasureChange(ctx context.Context, projectUUIDs []string, cause schema.IndexCause) error
}
