package embedding

import (
	"container/list"
	"context"
	"sync"
)

// cache is an LRU map from text to embedding vector.
type cache struct {
	capacity int
	entries  map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value []float32
}

func newCache(capacity int) *cache {
	return &cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
	}
}

func (c *cache) get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return nil, false
}

func (c *cache) set(key string, value []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}
	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, value: value})
	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}

// CachedEmbedder wraps an Embedder with an LRU text->vector cache. Embedding
// is a pure function of the text, so cached vectors cannot go stale. Vectors
// produced by the fallback path are not cached, so a recovered provider is
// consulted again for those texts.
type CachedEmbedder struct {
	inner Embedder
	cache *cache
}

// NewCachedEmbedder wraps inner with a cache of the given capacity.
func NewCachedEmbedder(inner Embedder, capacity int) *CachedEmbedder {
	if capacity <= 0 {
		capacity = 10000
	}
	return &CachedEmbedder{inner: inner, cache: newCache(capacity)}
}

// EmbedBatch serves cached vectors and delegates only the misses to the
// inner embedder, preserving input order.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) (Result, error) {
	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if v, ok := e.cache.get(text); ok {
			vectors[i] = v
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return Result{Vectors: vectors}, nil
	}

	res, err := e.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return Result{}, err
	}
	for j, i := range missIdx {
		vectors[i] = res.Vectors[j]
		if !res.Fallback {
			e.cache.set(texts[i], res.Vectors[j])
		}
	}
	return Result{Vectors: vectors, Fallback: res.Fallback}, nil
}

// Dimensions returns the inner embedder's dimension.
func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Close closes the inner embedder.
func (e *CachedEmbedder) Close() error {
	return e.inner.Close()
}
