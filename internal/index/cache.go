package index

import (
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/interfaces"
)

// Cache loads indexes from storage once and serves the in-memory copy to
// every caller. Invalidate drops an entry so the next Get reloads it,
// which is how scheduled rebuilds publish a fresh index.
type Cache struct {
	mu      sync.Mutex
	storage interfaces.IndexStorage
	logger  arbor.ILogger
	loaded  map[string]*VectorIndex
}

// NewCache creates an index cache over the given storage
func NewCache(storage interfaces.IndexStorage, logger arbor.ILogger) *Cache {
	return &Cache{
		storage: storage,
		logger:  logger,
		loaded:  map[string]*VectorIndex{},
	}
}

// Get returns the named index, loading it from storage on first use
func (c *Cache) Get(name string) (*VectorIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, ok := c.loaded[name]; ok {
		return idx, nil
	}

	manifest, vectors, err := c.storage.LoadIndex(name)
	if err != nil {
		return nil, err
	}
	idx, err := New(manifest, vectors)
	if err != nil {
		return nil, fmt.Errorf("stored index %s is inconsistent: %w", name, err)
	}

	c.logger.Info().
		Str("index", name).
		Int("vectors", idx.Len()).
		Str("model", manifest.Model).
		Msg("Index loaded into cache")

	c.loaded[name] = idx
	return idx, nil
}

// Invalidate drops the cached copy of the named index
func (c *Cache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.loaded[name]; ok {
		delete(c.loaded, name)
		c.logger.Debug().Str("index", name).Msg("Index cache invalidated")
	}
}
