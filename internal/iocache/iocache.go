// Package iocache is for caching I/O calls and keeping run history.
package iocache

import (
	"sync"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
)

// CacheStoreManager manages the rating cache and the run store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	rating       contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetRatingStore returns the rating CacheStore.
func (mgr *CacheStoreManager) GetRatingStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.rating
}

// GetRunStore returns the RunStore.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
