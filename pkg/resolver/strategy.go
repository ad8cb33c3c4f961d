package resolver

import (
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/youzoom64/RTMP-streamer/pkg/assets"
)

// Request is a single resolution query.
type Request struct {
	// Path is the logical part path, e.g. "目/目セット/普通白目".
	Path string

	// Keywords overrides the keywords used by the fuzzy strategy. When
	// empty, keywords are derived from the path segments.
	Keywords []string
}

// StrategyFunc resolves a request against the index. It returns a path
// relative to the index root.
type StrategyFunc func(idx *assets.Index, req Request) (string, bool)

// Strategy is a named step of the fallback chain.
type Strategy struct {
	Name string
	Func StrategyFunc
}

// Alias rewrites a path fragment. Content authors sometimes prefix layer
// groups with a marker ("!左腕") or an underscore ("_服装1"); aliases let a
// clean logical path match those directories directly.
type Alias struct {
	From string
	To   string
}

// DefaultAliases are the aliasing rules used when none are configured.
var DefaultAliases = []Alias{
	{From: "服装1", To: "_服装1"},
	{From: "左腕", To: "!左腕"},
	{From: "右腕", To: "!右腕"},
}

// DefaultStrategies returns the canonical fallback chain: alias substring
// match, normalized exact lookup, fuzzy keyword search and finally a scan of
// the literal directory on disk.
func DefaultStrategies(aliases []Alias) []Strategy {
	return []Strategy{
		{Name: "alias", Func: AliasMatch(aliases)},
		{Name: "exact", Func: ExactMatch},
		{Name: "fuzzy", Func: FuzzyMatch},
		{Name: "prefix", Func: DirPrefixMatch},
	}
}

// AliasMatch returns a strategy that searches all indexed relative paths for
// the request path, its underscore-prefixed form and every alias rewrite of
// it, as plain substrings.
func AliasMatch(aliases []Alias) StrategyFunc {
	return func(idx *assets.Index, req Request) (string, bool) {
		if req.Path == "" {
			return "", false
		}
		patterns := []string{req.Path, "_" + req.Path}
		for _, a := range aliases {
			if strings.Contains(req.Path, a.From) && !strings.Contains(req.Path, a.To) {
				patterns = append(patterns, strings.ReplaceAll(req.Path, a.From, a.To))
			}
		}
		for _, p := range patterns {
			var hit string
			idx.RangePaths(func(rel string) bool {
				if strings.Contains(rel, p) {
					hit = rel
					return false
				}
				return true
			})
			if hit != "" {
				return hit, true
			}
		}
		return "", false
	}
}

// ExactMatch looks up the normalized path, the normalized path without
// marker characters and the normalized last segment.
func ExactMatch(idx *assets.Index, req Request) (string, bool) {
	if req.Path == "" {
		return "", false
	}
	keys := []string{req.Path, assets.StripMarkers(req.Path), lastSegment(req.Path)}
	for _, k := range keys {
		if rel, ok := idx.First(assets.Normalize(k)); ok {
			return rel, true
		}
	}
	return "", false
}

// FuzzyMatch keeps the index keys containing every keyword and picks the
// longest one. Equal lengths are broken by discovery order.
func FuzzyMatch(idx *assets.Index, req Request) (string, bool) {
	wants := req.Keywords
	if len(wants) == 0 {
		wants = strings.Split(assets.StripMarkers(req.Path), "/")
	}
	wants = normalizeKeywords(wants)
	if len(wants) == 0 {
		return "", false
	}

	var (
		best     string
		bestLen  = -1
		bestRank int
	)
	idx.Range(func(key string, rels []string) bool {
		for _, w := range wants {
			if !strings.Contains(key, w) {
				return true
			}
		}
		rank := idx.Rank(rels[0])
		if len(key) > bestLen || (len(key) == bestLen && rank < bestRank) {
			best, bestLen, bestRank = rels[0], len(key), rank
		}
		return true
	})
	return best, bestLen >= 0
}

// DirPrefixMatch lists the literal directory named by all but the last path
// segment and returns the first file, in lexical order, whose name starts
// with the last segment and carries the indexed extension. It reads the
// filesystem directly and therefore also finds files added after the index
// was built.
func DirPrefixMatch(idx *assets.Index, req Request) (string, bool) {
	if req.Path == "" {
		return "", false
	}
	dir, name := path.Split(strings.Trim(req.Path, "/"))
	name = strings.ReplaceAll(name, "*", "")
	if name == "" {
		return "", false
	}
	entries, err := os.ReadDir(filepath.Join(idx.Root(), filepath.FromSlash(dir)))
	if err != nil {
		return "", false
	}
	ext := idx.Ext()
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasPrefix(n, name) || !strings.EqualFold(filepath.Ext(n), ext) {
			continue
		}
		return path.Join(dir, n), true
	}
	return "", false
}

func lastSegment(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func normalizeKeywords(kws []string) []string {
	out := make([]string, 0, len(kws))
	for _, k := range kws {
		if n := assets.Normalize(assets.StripMarkers(k)); n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}
