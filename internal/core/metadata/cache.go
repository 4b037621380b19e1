package metadata

import (
	"fmt"
	"sync"
)

// Cache holds extracted configs for the lifetime of one script domain generation.
type Cache struct {
	mu         sync.RWMutex
	generation uint64
	configs    map[string]EntityConfig
	purged     bool
}

func NewCache(generation uint64) *Cache {
	return &Cache{
		generation: generation,
		configs:    make(map[string]EntityConfig),
	}
}

func (c *Cache) Generation() uint64 {
	return c.generation
}

// Config returns the cached config of desc, extracting it on first use.
// Extraction errors are not cached.
func (c *Cache) Config(desc *TypeDescriptor) (EntityConfig, error) {
	c.mu.RLock()
	if c.purged {
		c.mu.RUnlock()
		return EntityConfig{}, fmt.Errorf("%w: generation %d", ErrCachePurged, c.generation)
	}
	cfg, ok := c.configs[desc.Name]
	c.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	cfg, err := Extract(desc)
	if err != nil {
		return EntityConfig{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.purged {
		return EntityConfig{}, fmt.Errorf("%w: generation %d", ErrCachePurged, c.generation)
	}
	c.configs[desc.Name] = cfg
	return cfg, nil
}

// Len reports how many configs are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.configs)
}

// Purge drops every cached config and rejects further lookups.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.configs = nil
	c.purged = true
	c.mu.Unlock()
}
