package sharing

import (
	"sync"

	"github.com/gear6io/lakeshare/server/share"
)

// defaultCacheSize bounds how many materialized snapshots stay resident.
const defaultCacheSize = 64

type cacheKey struct {
	table   string
	version int64
}

// snapshotCache keeps recently replayed snapshots so that serving a hot
// table does not re-fold the log on every request. Entries are immutable
// once stored; replay always clones before mutating, so readers may share
// them freely. Eviction is FIFO, which is good enough for a cache that
// only exists to skip redundant work.
type snapshotCache struct {
	mu      sync.RWMutex
	max     int
	entries map[cacheKey]*share.Snapshot
	order   []cacheKey
}

func newSnapshotCache(max int) *snapshotCache {
	if max <= 0 {
		max = defaultCacheSize
	}
	return &snapshotCache{
		max:     max,
		entries: make(map[cacheKey]*share.Snapshot),
	}
}

func (c *snapshotCache) get(table string, version int64) (*share.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.entries[cacheKey{table, version}]
	return snap, ok
}

// bestAtOrBelow returns the cached snapshot with the highest version that
// does not exceed the requested one. Replay can then start from it instead
// of version zero.
func (c *snapshotCache) bestAtOrBelow(table string, version int64) (*share.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *share.Snapshot
	for key, snap := range c.entries {
		if key.table != table || key.version > version {
			continue
		}
		if best == nil || key.version > best.Version {
			best = snap
		}
	}
	return best, best != nil
}

func (c *snapshotCache) put(table string, version int64, snap *share.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{table, version}
	if _, ok := c.entries[key]; ok {
		return
	}
	for len(c.entries) >= c.max && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = snap
	c.order = append(c.order, key)
}
