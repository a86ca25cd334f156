package cache

import (
	"sync"
	"time"
)

// RatesCache holds the most recent exchange-rate table behind a TTL, so
// the backend does not hammer the upstream provider on every dashboard
// request.
type RatesCache struct {
	rates  map[string]float64
	mu     sync.RWMutex
	ttl    time.Duration
	lastUp time.Time
}

// NewRatesCache creates a cache with the given TTL
func NewRatesCache(ttl time.Duration) *RatesCache {
	return &RatesCache{
		rates: make(map[string]float64),
		ttl:   ttl,
	}
}

// Set replaces the cached table
func (c *RatesCache) Set(rates map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rates = rates
	c.lastUp = time.Now()
}

// Get returns a copy of the cached table if it is still fresh
func (c *RatesCache) Get() (map[string]float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if time.Since(c.lastUp) > c.ttl || len(c.rates) == 0 {
		return nil, false
	}

	ratesCopy := make(map[string]float64, len(c.rates))
	for k, v := range c.rates {
		ratesCopy[k] = v
	}
	return ratesCopy, true
}

// Clear empties the cache
func (c *RatesCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rates = make(map[string]float64)
	c.lastUp = time.Time{}
}
