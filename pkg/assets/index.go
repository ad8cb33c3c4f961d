// Package assets scans a directory tree of layer images once and builds a
// multi-key lookup index over it.
//
// Layer files are produced by content authors rather than programmers, so
// their names are inconsistently punctuated ("_服装1/!左腕/基本_pos_0_0_10_20.png").
// Every file is registered under several normalized keys (see Normalize):
// the full relative path with and without extension, the file stem, the
// trailing one to four path segments and every individual segment. This
// allows fully qualified lookups ("目/目セット/普通白目") as well as bare pose
// names ("普通白目") to hit the same file.
//
// An Index is immutable after Build and safe for concurrent use.
package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// ErrRootUnreadable is returned by Build when the asset root cannot be read.
var ErrRootUnreadable = errors.New("assets: asset root unreadable")

// DefaultExt is the image extension indexed when none is configured.
const DefaultExt = ".png"

// maxTail is the number of trailing segments registered as keys.
const maxTail = 4

// Index maps normalized keys to relative file paths in discovery order.
type Index struct {
	root string
	opts buildOptions

	keys  map[string][]string
	order []string // keys in first-registration order
	paths []string // relative paths in discovery order
	rank  map[string]int
	sum   string
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	ext    string
	logger *slog.Logger
}

// WithExt sets the image extension to index (".png" by default). Matching
// is case-insensitive.
func WithExt(ext string) Option {
	return func(o *buildOptions) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		o.ext = ext
	}
}

// WithLogger sets the logger used to report skipped directories.
func WithLogger(l *slog.Logger) Option {
	return func(o *buildOptions) {
		o.logger = l
	}
}

// Build walks root once and indexes every image file below it. Directories
// are visited in lexical order, so two builds over the same tree produce
// identical indexes.
func Build(root string, opts ...Option) (*Index, error) {
	o := buildOptions{ext: DefaultExt, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ext == "" {
		o.ext = DefaultExt
	}

	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnreadable, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrRootUnreadable, root)
	}

	idx := &Index{
		root: root,
		opts: o,
		keys: make(map[string][]string),
		rank: make(map[string]int),
	}
	h := sha256.New()

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			o.logger.Warn("assets: skip unreadable path", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), o.ext) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		idx.add(rel)

		h.Write([]byte(rel))
		if info, err := d.Info(); err == nil {
			h.Write([]byte{0})
			h.Write([]byte(strconv.FormatInt(info.Size(), 10)))
			h.Write([]byte(strconv.FormatInt(info.ModTime().UnixNano(), 10)))
		}
		h.Write([]byte{'\n'})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnreadable, err)
	}
	idx.sum = hex.EncodeToString(h.Sum(nil))

	o.logger.Debug("assets: index built", "root", root, "files", len(idx.paths), "keys", len(idx.order))
	return idx, nil
}

// add registers every key derived from rel.
func (idx *Index) add(rel string) {
	idx.rank[rel] = len(idx.paths)
	idx.paths = append(idx.paths, rel)

	full := clean(rel)
	noExt := strings.TrimSuffix(full, path.Ext(full))
	segs := strings.Split(noExt, "/")

	cands := []string{full, noExt, segs[len(segs)-1]}
	for k := 1; k <= maxTail && k <= len(segs); k++ {
		cands = append(cands, strings.Join(segs[len(segs)-k:], "/"))
	}
	cands = append(cands, segs...)

	seen := make(map[string]bool, len(cands))
	for _, c := range cands {
		key := Normalize(c)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := idx.keys[key]; !ok {
			idx.order = append(idx.order, key)
		}
		idx.keys[key] = append(idx.keys[key], rel)
	}
}

// Rescan builds a fresh index over the same root with the same options.
// The receiver is left untouched.
func (idx *Index) Rescan() (*Index, error) {
	return Build(idx.root, WithExt(idx.opts.ext), WithLogger(idx.opts.logger))
}

// Lookup returns the relative paths registered under an already normalized
// key, in discovery order. The first element is the default pick.
func (idx *Index) Lookup(key string) []string {
	return slices.Clone(idx.keys[key])
}

// First returns the first discovered path for key.
func (idx *Index) First(key string) (string, bool) {
	if rels := idx.keys[key]; len(rels) > 0 {
		return rels[0], true
	}
	return "", false
}

// Range calls fn for every key in first-registration order until fn returns
// false. The slice passed to fn must not be modified.
func (idx *Index) Range(fn func(key string, rels []string) bool) {
	for _, k := range idx.order {
		if !fn(k, idx.keys[k]) {
			return
		}
	}
}

// RangePaths calls fn for every indexed relative path in discovery order
// until fn returns false.
func (idx *Index) RangePaths(fn func(rel string) bool) {
	for _, p := range idx.paths {
		if !fn(p) {
			return
		}
	}
}

// Keys returns all keys in first-registration order.
func (idx *Index) Keys() []string {
	return slices.Clone(idx.order)
}

// Paths returns all indexed relative paths in discovery order.
func (idx *Index) Paths() []string {
	return slices.Clone(idx.paths)
}

// Rank returns the discovery position of rel, or -1 if rel is not indexed.
func (idx *Index) Rank(rel string) int {
	if r, ok := idx.rank[rel]; ok {
		return r
	}
	return -1
}

// Len returns the number of keys.
func (idx *Index) Len() int { return len(idx.order) }

// Files returns the number of indexed files.
func (idx *Index) Files() int { return len(idx.paths) }

// Root returns the asset root directory.
func (idx *Index) Root() string { return idx.root }

// Ext returns the indexed image extension.
func (idx *Index) Ext() string { return idx.opts.ext }

// Abs joins a relative path from the index with the asset root.
func (idx *Index) Abs(rel string) string {
	return filepath.Join(idx.root, filepath.FromSlash(rel))
}

// Fingerprint identifies the indexed tree by path, size and modification
// time of every file. It changes whenever a rescan would see different
// assets.
func (idx *Index) Fingerprint() string { return idx.sum }
