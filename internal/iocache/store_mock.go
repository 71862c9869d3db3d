package iocache

import (
	"context"

	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetMeasureStore implements the StoreManager interface.
func (m *MockStoreManager) GetMeasureStore() contract.MeasureStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.MeasureStore)
	return store
}

// GetIndexNotifier implements the StoreManager interface.
func (m *MockStoreManager) GetIndexNotifier() contract.IndexNotifier {
	ret := m.Called()
	notifier, _ := ret.Get(0).(contract.IndexNotifier)
	return notifier
}

// MockMeasureStore is a mock implementation of MeasureStore for testing.
// WithinTx is not mockable; tests of refreshes use a real SQLite store.
type MockMeasureStore struct {
	mock.Mock
}

var _ contract.MeasureStore = &MockMeasureStore{} // Compile-time check

// WithinTx implements the MeasureStore interface.
func (m *MockMeasureStore) WithinTx(ctx context.Context, fn func(tx contract.MeasureTx) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

// RegisterMetrics implements the MeasureStore interface.
func (m *MockMeasureStore) RegisterMetrics(ctx context.Context, metrics []schema.Metric) error {
	args := m.Called(ctx, metrics)
	return args.Error(0)
}

// ImportDataset implements the MeasureStore interface.
func (m *MockMeasureStore) ImportDataset(ctx context.Context, ds schema.Dataset) error {
	args := m.Called(ctx, ds)
	return args.Error(0)
}

// FindComponentByKey implements the MeasureStore interface.
func (m *MockMeasureStore) FindComponentByKey(ctx context.Context, key string) (schema.Component, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(schema.Component), args.Bool(1), args.Error(2)
}

// ListComponents implements the MeasureStore interface.
func (m *MockMeasureStore) ListComponents(ctx context.Context, projectUUID string) ([]schema.Component, error) {
	args := m.Called(ctx, projectUUID)
	comps, _ := args.Get(0).([]schema.Component)
	return comps, args.Error(1)
}

// SelectMeasureRecords implements the MeasureStore interface.
func (m *MockMeasureStore) SelectMeasureRecords(ctx context.Context, componentUUID string) ([]schema.MeasureRecord, error) {
	args := m.Called(ctx, componentUUID)
	records, _ := args.Get(0).([]schema.MeasureRecord)
	return records, args.Error(1)
}

// SelectAllMeasureRecords implements the MeasureStore interface.
func (m *MockMeasureStore) SelectAllMeasureRecords(ctx context.Context) ([]schema.MeasureRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]schema.MeasureRecord)
	return records, args.Error(1)
}

// GetStatus implements the MeasureStore interface.
func (m *MockMeasureStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the MeasureStore interface.
func (m *MockMeasureStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockIndexNotifier is a mock implementation of IndexNotifier for testing.
type MockIndexNotifier struct {
	mock.Mock
}

var _ contract.IndexNotifier = &MockIndexNotifier{} // Compile-time check

// OnMeasureChange implements the IndexNotifier interface.
func (m *MockIndexNotifier) OnMeasureChange(ctx context.Context, projectUUIDs []string, cause schema.IndexCause) error {
	args := m.Called(ctx, projectUUIDs, cause)
	return args.Error(0)
}
