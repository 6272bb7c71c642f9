// Package cache includes all important caches for the runtime
// of the beacon node.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// maxCommitteesCacheSize defines the max number of shuffled committees on per randao basis can cache.
	// Due to reorgs and long finality, it's good to keep the old cache around for quickly switch over.
	maxCommitteesCacheSize = 10

	// CommitteeCacheMiss tracks the number of committee requests that aren't present in the cache.
	CommitteeCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "committee_cache_miss",
		Help: "The number of committee requests that aren't present in the cache.",
	})
	// CommitteeCacheHit tracks the number of committee requests that are in the cache.
	CommitteeCacheHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "committee_cache_hit",
		Help: "The number of committee requests that are present in the cache.",
	})
)

// Committees defines the shuffled committees seed.
type Committees struct {
	CommitteeCount  uint64
	Seed            [32]byte
	ShuffledIndices []uint64
	SortedIndices   []uint64
}

// CommitteeCache is a struct with 1 LRU cache for looking up shuffled indices list by seed.
type CommitteeCache struct {
	CommitteeCache *lru.Cache
	lock           sync.RWMutex
}

// NewCommitteesCache creates a new committee cache for storing/accessing shuffled indices of a committee.
func NewCommitteesCache() *CommitteeCache {
	cache, err := lru.New(maxCommitteesCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &CommitteeCache{
		CommitteeCache: cache,
	}
}

// Committee fetches the shuffled indices by slot and committee index. Every
// list of indices of each committee in the slot is cached under the seed of
// the epoch the slot belongs to.
func (c *CommitteeCache) Committee(slot uint64, seed [32]byte, index uint64, slotsPerEpoch uint64) ([]uint64, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	obj, exists := c.CommitteeCache.Get(seed)
	if !exists {
		CommitteeCacheMiss.Inc()
		return nil, nil
	}
	CommitteeCacheHit.Inc()
	item, ok := obj.(*Committees)
	if !ok {
		return nil, errors.New("object is not a committee struct")
	}

	committeeCountPerSlot := uint64(1)
	if item.CommitteeCount/slotsPerEpoch > 1 {
		committeeCountPerSlot = item.CommitteeCount / slotsPerEpoch
	}

	indexOffSet := index + (slot%slotsPerEpoch)*committeeCountPerSlot
	start, end := startEndIndices(item, indexOffSet)
	if end > uint64(len(item.ShuffledIndices)) || end < start {
		return nil, errors.New("requested index out of bound")
	}
	return item.ShuffledIndices[start:end], nil
}

// AddCommitteeShuffledList adds Committee shuffled list object to the cache.
// This method also evicts the least recently used Committees object if the
// cache size has reached the max cache size limit.
func (c *CommitteeCache) AddCommitteeShuffledList(committees *Committees) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.CommitteeCache.Add(committees.Seed, committees)
}

// ActiveIndices returns the active indices of a given seed stored in cache.
func (c *CommitteeCache) ActiveIndices(seed [32]byte) ([]uint64, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	obj, exists := c.CommitteeCache.Get(seed)
	if !exists {
		CommitteeCacheMiss.Inc()
		return nil, nil
	}
	CommitteeCacheHit.Inc()
	item, ok := obj.(*Committees)
	if !ok {
		return nil, errors.New("object is not a committee struct")
	}
	return item.SortedIndices, nil
}

// HasEntry returns true if the committee cache has a value cached for the given seed.
func (c *CommitteeCache) HasEntry(seed [32]byte) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.CommitteeCache.Contains(seed)
}

// Clear resets the committee cache to its initial state.
func (c *CommitteeCache) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.CommitteeCache.Purge()
}

func startEndIndices(c *Committees, index uint64) (uint64, uint64) {
	validatorCount := uint64(len(c.ShuffledIndices))
	start := (validatorCount * index) / c.CommitteeCount
	end := (validatorCount * (index + 1)) / c.CommitteeCount
	return start, end
}
