package suggest

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"suggestbox/internal/domain"
)

// Cache keeps recent suggestion sets keyed by query
type Cache struct {
	cache *ttlcache.Cache[domain.Query, domain.SuggestionSet]
	once  sync.Once
}

// NewCache creates a cache whose entries expire after ttl
func NewCache(ttl time.Duration) *Cache {
	c := ttlcache.New[domain.Query, domain.SuggestionSet](
		ttlcache.WithTTL[domain.Query, domain.SuggestionSet](ttl),
		ttlcache.WithDisableTouchOnHit[domain.Query, domain.SuggestionSet](),
		ttlcache.WithCapacity[domain.Query, domain.SuggestionSet](256),
	)
	go c.Start()
	return &Cache{cache: c}
}

// Get returns the cached set for q
func (c *Cache) Get(q domain.Query) (domain.SuggestionSet, bool) {
	item := c.cache.Get(q)
	if item == nil {
		return domain.SuggestionSet{}, false
	}
	return item.Value(), true
}

// Set stores set for q with the default TTL
func (c *Cache) Set(q domain.Query, set domain.SuggestionSet) {
	c.cache.Set(q, set, ttlcache.DefaultTTL)
}

// Len returns the number of live entries
func (c *Cache) Len() int {
	return c.cache.Len()
}

// Close stops the expiration loop
func (c *Cache) Close() {
	c.once.Do(c.cache.Stop)
}
