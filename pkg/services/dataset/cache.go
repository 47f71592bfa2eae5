package dataset

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Key identifies a cached dataset by its two source locations.
type Key struct {
	Indicators string
	Regions    string
}

func (k Key) String() string {
	return k.Indicators + "|" + k.Regions
}

type cacheEntry struct {
	ds   *Dataset
	refs int
}

// Cache shares loaded datasets between modules. Entries are reference
// counted and dropped when the last holder releases them.
type Cache struct {
	loader  Loader
	group   singleflight.Group
	mu      sync.Mutex
	entries map[Key]*cacheEntry
}

func NewCache(loader Loader) *Cache {
	return &Cache{
		loader:  loader,
		entries: make(map[Key]*cacheEntry),
	}
}

// Acquire returns the dataset for key, loading it on first use. Concurrent
// acquisitions of a key that is not yet loaded share a single load. Every
// successful Acquire must be paired with a Release.
func (c *Cache) Acquire(ctx context.Context, key Key) (*Dataset, error) {
	if ds, ok := c.retain(key); ok {
		return ds, nil
	}

	// The shared load must not be cut short by the first caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (any, error) {
		return c.loader.Load(loadCtx, key.Indicators, key.Regions)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		ds := res.Val.(*Dataset)
		c.store(key, ds)
		zerolog.Ctx(ctx).Debug().Str("key", key.String()).Bool("shared", res.Shared).Msg("dataset acquired")
		return ds, nil
	}
}

func (c *Cache) retain(key Key) (*Dataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e.refs++
	return e.ds, true
}

func (c *Cache) store(key Key, ds *Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.refs++
		return
	}
	c.entries[key] = &cacheEntry{ds: ds, refs: 1}
}

// Release drops one reference to key. Releasing an unknown key is a no-op.
func (c *Cache) Release(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(c.entries, key)
	}
}

// Refs returns the reference count of key.
func (c *Cache) Refs(key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of cached datasets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
