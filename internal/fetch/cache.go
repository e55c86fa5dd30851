package fetch

import (
	"sync"
	"time"
)

// ResponseCache keeps successful documents per exact URL for a fixed
// TTL. Eviction is lazy: expired entries are removed on the next read.
type ResponseCache struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]cachedResponse
}

type cachedResponse struct {
	body      string
	fetchedAt time.Time
}

func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ResponseCache{ttl: ttl, m: make(map[string]cachedResponse)}
}

func (c *ResponseCache) Get(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[url]
	if !ok {
		return "", false
	}
	if time.Since(e.fetchedAt) > c.ttl {
		delete(c.m, url)
		return "", false
	}
	return e.body, true
}

func (c *ResponseCache) Put(url, body string) {
	c.mu.Lock()
	c.m[url] = cachedResponse{body: body, fetchedAt: time.Now()}
	c.mu.Unlock()
}

func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
