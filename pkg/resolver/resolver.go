// Package resolver maps loosely specified logical part paths to concrete
// layer files.
//
// A Resolver runs an ordered list of strategies against an asset index and
// stops at the first one that succeeds:
//
//  0. position map (only when configured)
//  1. alias substring match over relative paths
//  2. normalized exact lookup
//  3. fuzzy keyword AND search, longest key wins
//  4. literal directory prefix scan
//
// When every strategy fails, a warning is logged once per distinct logical
// path for the lifetime of the Resolver.
package resolver

import (
	"log/slog"
	"sync"

	"github.com/youzoom64/RTMP-streamer/pkg/assets"
)

// Resolver resolves logical part paths against an immutable index. It is
// safe for concurrent use.
type Resolver struct {
	idx        *assets.Index
	positions  *PositionMap
	strategies []Strategy
	logger     *slog.Logger

	hits sync.Map // logical path -> relative path

	mu     sync.Mutex
	warned map[string]struct{}
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for missing-asset warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithPositionMap consults pm before any index strategy.
func WithPositionMap(pm *PositionMap) Option {
	return func(r *Resolver) {
		r.positions = pm
	}
}

// WithStrategies replaces the default fallback chain.
func WithStrategies(s ...Strategy) Option {
	return func(r *Resolver) {
		r.strategies = s
	}
}

// WithAliases replaces the default alias rules of the default chain. It has
// no effect when combined with WithStrategies.
func WithAliases(aliases ...Alias) Option {
	return func(r *Resolver) {
		r.strategies = DefaultStrategies(aliases)
	}
}

// New creates a Resolver over idx.
func New(idx *assets.Index, opts ...Option) *Resolver {
	r := &Resolver{
		idx:    idx,
		logger: slog.Default(),
		warned: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.strategies == nil {
		r.strategies = DefaultStrategies(DefaultAliases)
	}
	return r
}

// Index returns the underlying asset index.
func (r *Resolver) Index() *assets.Index { return r.idx }

// Resolve returns the absolute file path for a logical part path. On failure
// it logs a warning the first time the path is seen and returns false.
func (r *Resolver) Resolve(logicalPath string) (string, bool) {
	if p, ok := r.Find(logicalPath); ok {
		return p, true
	}
	r.ReportMissing(logicalPath)
	return "", false
}

// Find is Resolve without the missing-asset warning. It is used by callers
// that try several candidates and report a single miss themselves.
func (r *Resolver) Find(logicalPath string) (string, bool) {
	if logicalPath == "" {
		return "", false
	}
	if v, ok := r.hits.Load(logicalPath); ok {
		return r.idx.Abs(v.(string)), true
	}
	if p, ok := r.positions.Find(logicalPath); ok {
		return p, true
	}
	req := Request{Path: logicalPath}
	for _, s := range r.strategies {
		if rel, ok := s.Func(r.idx, req); ok {
			r.logger.Debug("resolver: resolved", "path", logicalPath, "strategy", s.Name, "file", rel)
			r.hits.Store(logicalPath, rel)
			return r.idx.Abs(rel), true
		}
	}
	return "", false
}

// ResolveByKeywords returns the file whose index key contains every keyword
// and is the most specific (longest). It is meant for parts with compound
// identity such as ("左腕", "基本") and never warns.
func (r *Resolver) ResolveByKeywords(keywords ...string) (string, bool) {
	rel, ok := FuzzyMatch(r.idx, Request{Keywords: keywords})
	if !ok {
		return "", false
	}
	return r.idx.Abs(rel), true
}

// ReportMissing logs a missing-asset warning for key unless one was already
// logged for it by this Resolver.
func (r *Resolver) ReportMissing(key string) {
	r.mu.Lock()
	_, seen := r.warned[key]
	if !seen {
		r.warned[key] = struct{}{}
	}
	r.mu.Unlock()
	if !seen {
		r.logger.Warn("resolver: layer file not found", "path", key)
	}
}

// Warned reports whether a warning has been logged for key.
func (r *Resolver) Warned(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.warned[key]
	return ok
}

// Warnings returns the number of distinct missing paths warned about.
func (r *Resolver) Warnings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.warned)
}
