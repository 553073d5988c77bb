// Package cache implements the fast tier of the content store: a namespaced
// in-process key-value mirror of content and image payloads. Entries are
// written through on every store write and never expire, so a hit is always
// the latest acknowledged value.
package cache

import (
	"strings"
	"sync"
)

const (
	// Namespace prefixes every key this store owns. PurgePrefix(Namespace)
	// must leave entries outside it untouched.
	Namespace = "oceanTracers_"
	// ImageNamespace prefixes mirrored image payloads.
	ImageNamespace = "oceanTracers_image_"
)

// ContentKey returns the namespaced cache key for a content entry.
func ContentKey(key string) string { return Namespace + key }

// ImageKey returns the namespaced cache key for an image payload.
func ImageKey(id string) string { return ImageNamespace + id }

type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

func New() *Cache {
	return &Cache{entries: make(map[string]string)}
}

func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// PurgePrefix removes every entry whose key starts with prefix and returns
// how many were removed.
func (c *Cache) PurgePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
