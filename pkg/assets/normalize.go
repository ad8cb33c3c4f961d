package assets

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	// posSuffix matches the "_pos_X_Y_W_H" coordinate suffix that layer
	// export tools append to file names.
	posSuffix = regexp.MustCompile(`_pos_\d+_\d+_\d+_\d+`)

	repeatedSlash = regexp.MustCompile(`/+`)
)

// Normalize canonicalizes a human-entered part name or relative path into a
// lookup key. It never fails and is idempotent:
//
//	Normalize(Normalize(s)) == Normalize(s)
//
// The same function is applied when the index is built and when it is
// queried, so two names that normalize to the same key name the same asset.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	t := norm.NFKC.String(raw)
	// cases.Caser is stateful and must not be shared between goroutines.
	t = norm.NFKC.String(cases.Fold().String(t))
	t = strings.ReplaceAll(t, `\`, "/")
	t = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || isInvisible(r) {
			return -1
		}
		return r
	}, t)
	t = posSuffix.ReplaceAllString(t, "")
	t = trimSegments(t)
	t = strings.ReplaceAll(t, "_", "")
	t = repeatedSlash.ReplaceAllString(t, "/")
	// Removals above can leave a base letter next to a combining mark.
	return norm.NFKC.String(t)
}

// StripMarkers removes the decorative marker characters ('!' and '*', in
// both half and full width) that content authors use to flag layer groups.
func StripMarkers(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '!', '*', '！', '＊':
			return -1
		}
		return r
	}, s)
}

// clean removes the coordinate suffix and per-segment leading underscores
// from a slash-separated path without changing its case or width.
func clean(p string) string {
	return trimSegments(posSuffix.ReplaceAllString(p, ""))
}

func trimSegments(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = strings.TrimLeft(s, "_")
	}
	return strings.Join(segs, "/")
}

func isInvisible(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\ufeff':
		return true
	}
	return false
}
