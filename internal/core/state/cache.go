// Package state keeps the worker's local copy of authority-owned components.
package state

import (
	"sync"

	"github.com/zeusync/asteroidworker/internal/core/dispatch"
	"github.com/zeusync/asteroidworker/internal/core/models"
	"github.com/zeusync/asteroidworker/internal/core/protocol"
)

// Cache maps entities to the last known value of one component.
// Readers on feature loops and writers on the router run concurrently.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[models.EntityID]T
}

func NewCache[T any]() *Cache[T] {
	return &Cache[T]{entries: make(map[models.EntityID]T)}
}

// OnAdd inserts or replaces the value for id.
func (c *Cache[T]) OnAdd(id models.EntityID, data T) {
	c.mu.Lock()
	c.entries[id] = data
	c.mu.Unlock()
}

// OnRemove forgets id. Removing an unknown entity is a no-op.
func (c *Cache[T]) OnRemove(id models.EntityID) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

func (c *Cache[T]) Get(id models.EntityID) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[id]
	return data, ok
}

func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Track keeps the cache in sync with add/remove notifications of component.
func Track[T any](c *Cache[T], d *dispatch.Dispatcher, component models.ComponentID) {
	dispatch.OnAdd(d, component, c.OnAdd)
	d.OnRemoveComponent(component, func(op protocol.RemoveComponentOp) {
		c.OnRemove(op.EntityID)
	})
}
