package cache

import (
	"container/list"
	"context"
	"strconv"
	"sync"
	"time"

	"chatrag/internal/domain"
	"chatrag/internal/port"
)

// QueryCache is a size-bounded LRU of retrieval results with a TTL. The index
// never changes after startup, so entries only expire by age or eviction.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	key       string
	results   domain.QueryResult
	timestamp time.Time
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(query string, topK int) string {
	return strconv.Itoa(topK) + "\x00" + query
}

func (c *QueryCache) Get(query string, topK int) (domain.QueryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[cacheKey(query, topK)]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.now().Sub(entry.timestamp) > c.ttl {
		c.order.Remove(el)
		delete(c.entries, entry.key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return entry.results, true
}

func (c *QueryCache) Put(query string, topK int, results domain.QueryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.results = results
		entry.timestamp = c.now()
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, results: results, timestamp: c.now()})
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CachedRetriever answers repeated (query, k) pairs from a QueryCache.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Search(ctx context.Context, query string, k int) (domain.QueryResult, error) {
	if results, hit := r.cache.Get(query, k); hit {
		return results, nil
	}

	results, err := r.retriever.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	r.cache.Put(query, k, results)
	return results, nil
}
