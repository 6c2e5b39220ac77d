// Package credential caches the enhancement endpoint secret.
package credential

import (
	"context"
	"fmt"
	"sync"
)

// Store is a single-slot secret store. Load returns an empty string when no
// secret has been saved.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, value string) error
}

// Cache holds the process-wide credential in memory. Reads and writes may
// come from different goroutines; the last Set wins.
type Cache struct {
	store Store

	mu    sync.RWMutex
	value string
}

// NewCache creates a cache backed by store.
func NewCache(store Store) *Cache {
	return &Cache{store: store}
}

// Init loads the stored secret. When the store is empty, fallback (usually
// from configuration) is used instead. It returns whether a credential is
// now available.
func (c *Cache) Init(ctx context.Context, fallback string) (bool, error) {
	v, err := c.store.Load(ctx)
	if err != nil {
		if fallback != "" {
			c.set(fallback)
			return true, fmt.Errorf("credential: load: %w", err)
		}
		return false, fmt.Errorf("credential: load: %w", err)
	}
	if v == "" {
		v = fallback
	}
	c.set(v)
	return v != "", nil
}

// Get returns the cached credential and whether one is set.
func (c *Cache) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.value != ""
}

// Save persists value and updates the cache. On failure the previous value
// is kept.
func (c *Cache) Save(ctx context.Context, value string) error {
	if err := c.store.Save(ctx, value); err != nil {
		return fmt.Errorf("credential: save: %w", err)
	}
	c.set(value)
	return nil
}

func (c *Cache) set(v string) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	value string
}

// Load returns the stored value.
func (m *MemoryStore) Load(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

// Save replaces the stored value.
func (m *MemoryStore) Save(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
	return nil
}
