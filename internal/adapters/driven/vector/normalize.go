// Package vector holds the helpers shared by vector index backends.
//
// Backends report similarity and metadata under different field names.
// NormalizeHit maps a raw result object onto driven.VectorHit so callers
// only ever see a single Score field.
package vector

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Score field names, in lookup order.
var scoreFields = []string{"similarity", "score"}

// Metadata field names, in lookup order.
var metadataFields = []string{"meta", "metadata", "payload"}

// NormalizeHit converts a raw backend result into a VectorHit.
// The score defaults to 0 and metadata to an empty map.
func NormalizeHit(raw map[string]any) driven.VectorHit {
	hit := driven.VectorHit{
		ID:       idString(raw["id"]),
		Metadata: map[string]any{},
	}

	for _, field := range scoreFields {
		if v, ok := raw[field]; ok && v != nil {
			if f, ok := toFloat(v); ok {
				hit.Score = f
				break
			}
		}
	}

	for _, field := range metadataFields {
		if m, ok := raw[field].(map[string]any); ok && len(m) > 0 {
			hit.Metadata = m
			break
		}
	}
	return hit
}

// Batches splits entries into consecutive slices of at most size.
func Batches(entries []driven.VectorEntry, size int) [][]driven.VectorEntry {
	if size <= 0 {
		size = driven.UpsertBatchSize
	}
	out := make([][]driven.VectorEntry, 0, (len(entries)+size-1)/size)
	for start := 0; start < len(entries); start += size {
		out = append(out, entries[start:min(start+size, len(entries))])
	}
	return out
}

// MatchesNothing reports whether filter excludes every entry.
func MatchesNothing(filter *driven.VectorFilter) bool {
	return filter != nil && len(filter.In) == 0
}

// Matches reports whether metadata satisfies an inclusion filter.
// A nil filter matches everything.
func Matches(filter *driven.VectorFilter, metadata map[string]any) bool {
	if filter == nil {
		return true
	}
	v, ok := metadata[filter.Field]
	if !ok {
		return false
	}
	s := idString(v)
	for _, want := range filter.In {
		if s == want {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}
