package cache

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Params is the set of request parameters a cached value was computed from.
type Params map[string]string

// Canonical returns a deterministic, normalized representation of params.
// Field names and values are trimmed and case-folded, and fields are emitted
// in sorted order, so that requests differing only in casing, surrounding
// whitespace, or field ordering map to the same cache slot.
func Canonical(params Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(normalize(k))
		b.WriteByte('=')
		b.WriteString(normalize(params[k]))
		b.WriteByte('\n')
	}
	return b.String()
}

// Key hashes the canonical form of params into a cache key.
func Key(params Params) uint64 {
	return xxhash.Sum64String(Canonical(params))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
