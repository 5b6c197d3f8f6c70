package stats

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"armonic/internal/sales"
)

// Snapshot is an immutable ProductStats result for one dataset fingerprint.
type Snapshot struct {
	Fingerprint string
	ComputedAt  time.Time
	products    []ProductStats
}

// Products returns a copy of the per-product statistics.
func (s *Snapshot) Products() []ProductStats {
	cp := make([]ProductStats, len(s.products))
	copy(cp, s.products)
	return cp
}

// Len returns the number of products in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.products)
}

// Cache memoizes ProductStats keyed by dataset fingerprint. A new dataset
// replaces the snapshot wholesale; snapshots are never mutated.
type Cache struct {
	current atomic.Pointer[Snapshot]
	group   singleflight.Group
	misses  atomic.Int64
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the stats of ds, recomputing only when its fingerprint differs
// from the cached snapshot.
func (c *Cache) Get(ds *sales.Dataset) (*Snapshot, error) {
	key := ds.Fingerprint()
	if snap := c.current.Load(); snap != nil && snap.Fingerprint == key {
		return snap, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		if snap := c.current.Load(); snap != nil && snap.Fingerprint == key {
			return snap, nil
		}

		c.misses.Add(1)
		products, err := ExtractProductStats(ds)
		if err != nil {
			return nil, err
		}

		snap := &Snapshot{Fingerprint: key, ComputedAt: time.Now(), products: products}
		c.current.Store(snap)
		log.Debug().
			Str("fingerprint", shortKey(key)).
			Int("products", len(products)).
			Int("days", ds.TotalDays()).
			Msg("Product stats recomputed")
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug().Str("fingerprint", shortKey(key)).Msg("Joined in-flight stats computation")
	}
	return v.(*Snapshot), nil
}

// Current returns the latest snapshot, or nil before the first Get.
func (c *Cache) Current() *Snapshot {
	return c.current.Load()
}

// Misses counts how many times stats were actually recomputed.
func (c *Cache) Misses() int64 {
	return c.misses.Load()
}

func shortKey(k string) string {
	if len(k) > 12 {
		return k[:12]
	}
	return k
}
