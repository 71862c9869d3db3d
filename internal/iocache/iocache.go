// Package iocache is the persistence layer of livemeasure: the SQL measure
// store, its migrations and the search index queue.
package iocache

import (
	"sync"

	"github.com/huangsam/livemeasure/internal/contract"
)

// StoreManagerImpl holds the measure store and the index notifier of the process.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	measures     contract.MeasureStore
	notifier     contract.IndexNotifier
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetMeasureStore returns the MeasureStore.
func (mgr *StoreManagerImpl) GetMeasureStore() contract.MeasureStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.measures
}

// GetIndexNotifier returns the IndexNotifier.
func (mgr *StoreManagerImpl) GetIndexNotifier() contract.IndexNotifier {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.notifier
}
