package extract

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/groupcache/lru"

	"github.com/Hum-Bao/canvas-enable-totals/internal/metrics"
)

// PageCache memoises parsed pages by content hash. A nil *PageCache parses every time.
type PageCache struct {
	mu    sync.Mutex
	pages *lru.Cache
}

func NewPageCache(size int) *PageCache {
	if size <= 0 {
		return nil
	}
	return &PageCache{pages: lru.New(size)}
}

func (c *PageCache) Parse(html []byte) (*Page, error) {
	if c == nil {
		return ParsePage(html)
	}

	key := xxhash.Sum64(html)

	c.mu.Lock()
	cached, ok := c.pages.Get(key)
	c.mu.Unlock()
	if ok {
		metrics.PageCacheLookups.WithLabelValues("hit").Inc()
		return cached.(*Page), nil
	}
	metrics.PageCacheLookups.WithLabelValues("miss").Inc()

	page, err := ParsePage(html)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.pages.Add(key, page)
	c.mu.Unlock()

	return page, nil
}

func (c *PageCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages.Len()
}
