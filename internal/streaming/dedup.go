package streaming

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// dedupCache is a TTL-bounded set of seen event dedup keys. Capacity
// overflow evicts the oldest insertion; a hit never extends an entry's
// lifetime.
type dedupCache struct {
	cache *ttlcache.Cache[string, struct{}]
}

func newDedupCache(capacity int, ttl time.Duration) *dedupCache {
	cache := ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](ttl),
		ttlcache.WithCapacity[string, struct{}](uint64(capacity)),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go cache.Start()
	return &dedupCache{cache: cache}
}

// seen reports whether the key is tracked and unexpired. Empty keys are
// never tracked, so events without an id always pass through.
func (d *dedupCache) seen(key string) bool {
	if key == "" {
		return false
	}
	return d.cache.Get(key) != nil
}

func (d *dedupCache) track(key string) {
	if key == "" {
		return
	}
	d.cache.Set(key, struct{}{}, ttlcache.DefaultTTL)
}

func (d *dedupCache) len() int {
	return d.cache.Len()
}

func (d *dedupCache) clear() {
	d.cache.DeleteAll()
}

// stop terminates the background expiry loop.
func (d *dedupCache) stop() {
	d.cache.Stop()
}
