package framecache

import (
	"bytes"
	"context"
	"iter"
	"sort"
	"sync"
)

// Memory is an in-memory Store. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	m.mu.RLock()
	v, ok := m.data[string(key.encode())]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	cp := bytes.Clone(value)
	m.mu.Lock()
	m.data[string(key.encode())] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	delete(m.data, string(key.encode()))
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context, prefix Key) iter.Seq2[Item, error] {
	p := prefix.prefix()

	m.mu.RLock()
	var keys []string
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), p) {
			keys = append(keys, k)
		}
	}
	items := make([]Item, 0, len(keys))
	sort.Strings(keys)
	for _, k := range keys {
		items = append(items, Item{Key: decodeKey([]byte(k)), Value: bytes.Clone(m.data[k])})
	}
	m.mu.RUnlock()

	return func(yield func(Item, error) bool) {
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}
	}
}

// Len returns the number of stored items.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *Memory) Close() error {
	return nil
}
