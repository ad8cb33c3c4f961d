package framecache

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/vmihailenco/msgpack/v5"
)

// Entry is an encoded frame together with what produced it.
type Entry struct {
	Width  int      `json:"width" msgpack:"w"`
	Height int      `json:"height" msgpack:"h"`
	Layers []string `json:"layers,omitempty" msgpack:"layers,omitempty"`
	PNG    []byte   `json:"-" msgpack:"png"`
}

// Cache stores Entries for one asset tree. Keys are namespaced by the
// tree fingerprint, so a changed tree never serves stale frames.
type Cache struct {
	store       Store
	fingerprint string

	hits   atomic.Int64
	misses atomic.Int64
}

// New returns a Cache over store for the tree identified by fingerprint.
func New(store Store, fingerprint string) *Cache {
	return &Cache{store: store, fingerprint: fingerprint}
}

// Fingerprint returns the namespace of the cache.
func (c *Cache) Fingerprint() string { return c.fingerprint }

func (c *Cache) key(kind string, poses []string) Key {
	k := make(Key, 0, 2+len(poses))
	k = append(k, c.fingerprint, kind)
	return append(k, poses...)
}

// Load returns the entry for kind and poses, or ErrNotFound.
func (c *Cache) Load(ctx context.Context, kind string, poses ...string) (*Entry, error) {
	data, err := c.store.Get(ctx, c.key(kind, poses))
	if err != nil {
		c.misses.Add(1)
		return nil, err
	}
	var e Entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		c.misses.Add(1)
		return nil, fmt.Errorf("framecache: decode %s: %w", c.key(kind, poses), err)
	}
	c.hits.Add(1)
	return &e, nil
}

// Save stores e under kind and poses.
func (c *Cache) Save(ctx context.Context, e *Entry, kind string, poses ...string) error {
	data, err := msgpack.Marshal(e)
	if err != nil {
		return fmt.Errorf("framecache: encode: %w", err)
	}
	return c.store.Set(ctx, c.key(kind, poses), data)
}

// Prune deletes every entry that belongs to another fingerprint and
// returns how many were removed.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	var stale []Key
	for it, err := range c.store.List(ctx, nil) {
		if err != nil {
			return 0, err
		}
		if len(it.Key) == 0 || it.Key[0] != c.fingerprint {
			stale = append(stale, it.Key)
		}
	}
	for _, k := range stale {
		if err := c.store.Delete(ctx, k); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

// Stats returns the number of hits and misses since creation.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
