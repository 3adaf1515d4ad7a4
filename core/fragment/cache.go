package fragment

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	body  []byte
	built time.Time
}

// CachingFetcher keeps successful fragment bodies for a TTL.
// Concurrent misses for the same URL share one upstream request.
// Failures are never cached, so retries always reach the origin.
type CachingFetcher struct {
	next Fetcher
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	sf      singleflight.Group
}

// NewCachingFetcher wraps next. A ttl of zero or less disables caching.
func NewCachingFetcher(next Fetcher, ttl time.Duration) *CachingFetcher {
	return &CachingFetcher{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Fetch returns a cached body or fetches it from the wrapped Fetcher.
func (c *CachingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c.ttl <= 0 {
		return c.next.Fetch(ctx, url)
	}

	if body, ok := c.lookup(url); ok {
		return body, nil
	}

	ch := c.sf.DoChan(url, func() (interface{}, error) {
		// Double-check after winning the flight
		if body, ok := c.lookup(url); ok {
			return body, nil
		}

		body, err := c.next.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[url] = cacheEntry{body: body, built: c.now()}
		c.mu.Unlock()
		return body, nil
	})

	// Joined callers stop waiting when their own ctx ends.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *CachingFetcher) lookup(url string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[url]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.built) > c.ttl {
		return nil, false
	}
	return entry.body, true
}

// Invalidate drops the cached body for url.
func (c *CachingFetcher) Invalidate(url string) {
	c.mu.Lock()
	delete(c.entries, url)
	c.mu.Unlock()
}
