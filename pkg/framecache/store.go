// Package framecache stores encoded frames keyed by asset fingerprint, frame
// kind and pose names.
//
// Composition is a pure function of the asset tree and the poses, so an
// encoded frame can be reused for as long as the tree fingerprint does not
// change. Two Store backends are provided: Memory for a single run and
// Badger for a cache that survives restarts.
package framecache

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("framecache: not found")

// Key is a hierarchical key such as {fingerprint, "full", "むふ", "普通目"}.
// Segments must not contain the separator byte 0x1f.
type Key []string

const sep byte = 0x1f

// String returns the key joined with ':' for display.
func (k Key) String() string {
	return strings.Join(k, ":")
}

func (k Key) encode() []byte {
	return []byte(strings.Join(k, string(sep)))
}

// prefix returns the encoded key followed by a separator, so that {"a"}
// does not match {"ab"}. An empty key matches everything.
func (k Key) prefix() []byte {
	if len(k) == 0 {
		return nil
	}
	return append(k.encode(), sep)
}

func decodeKey(b []byte) Key {
	return Key(strings.Split(string(b), string(sep)))
}

// Item is a key-value pair returned by List.
type Item struct {
	Key   Key
	Value []byte
}

// Store is a byte-oriented key-value store.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error

	// List iterates over the items under prefix in lexicographic key order.
	List(ctx context.Context, prefix Key) iter.Seq2[Item, error]

	// Close releases the store.
	Close() error
}
