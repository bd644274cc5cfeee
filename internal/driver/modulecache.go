package driver

import (
	"sync"

	"tmplc/internal/project"
)

// MemCache keeps payloads for the life of the process, one per source path.
// A newer key for the same path replaces the older entry, so a watch loop
// does not grow it without bound.
type MemCache struct {
	mu     sync.RWMutex
	byPath map[string]*Payload
	byKey  map[project.Digest]string
}

// NewMemCache creates a MemCache with the given capacity hint.
func NewMemCache(capHint int) *MemCache {
	return &MemCache{
		byPath: make(map[string]*Payload, capHint),
		byKey:  make(map[project.Digest]string, capHint),
	}
}

func (c *MemCache) Get(key project.Digest) (*Payload, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	path, ok := c.byKey[key]
	if !ok {
		return nil, false, nil
	}
	p := c.byPath[path]
	return p, p != nil, nil
}

func (c *MemCache) Put(key project.Digest, p *Payload) error {
	if p == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.byPath[p.Path]; ok {
		delete(c.byKey, old.Key)
	}
	p.Key = key
	c.byPath[p.Path] = p
	c.byKey[key] = p.Path
	return nil
}

// Len reports the number of cached units.
func (c *MemCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byPath)
}

// Layered reads through each cache in order and writes to all of them.
type Layered []Cache

func (l Layered) Get(key project.Digest) (*Payload, bool, error) {
	for i, c := range l {
		p, ok, err := c.Get(key)
		if err != nil {
			return nil, false, err
		}
		if ok {
			// поднимаем запись в более быстрые слои
			for _, upper := range l[:i] {
				_ = upper.Put(key, p)
			}
			return p, true, nil
		}
	}
	return nil, false, nil
}

func (l Layered) Put(key project.Digest, p *Payload) error {
	for _, c := range l {
		if err := c.Put(key, p); err != nil {
			return err
		}
	}
	return nil
}
