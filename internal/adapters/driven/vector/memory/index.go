// Package memory provides an in-process vector index.
//
// Search is a brute-force cosine scan. It is intended for tests and
// single-process deployments with a small corpus.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/docrag/internal/adapters/driven/vector"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type collection struct {
	dimensions int
	entries    map[string]driven.VectorEntry
}

// Index is an in-memory implementation of driven.VectorIndex.
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collection
	created     int
}

// New creates an empty index.
func New() *Index {
	return &Index{collections: make(map[string]*collection)}
}

// EnsureIndex creates the named collection if it does not exist.
func (x *Index) EnsureIndex(_ context.Context, name string, dimensions int) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.collections[name]; ok {
		return nil
	}
	x.collections[name] = &collection{
		dimensions: dimensions,
		entries:    make(map[string]driven.VectorEntry),
	}
	x.created++
	return nil
}

// Creations returns how many collections EnsureIndex has created.
func (x *Index) Creations() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.created
}

// Upsert inserts or replaces a single entry.
func (x *Index) Upsert(ctx context.Context, index string, entry driven.VectorEntry) error {
	return x.UpsertBatch(ctx, index, []driven.VectorEntry{entry})
}

// UpsertBatch inserts or replaces entries.
func (x *Index) UpsertBatch(_ context.Context, index string, entries []driven.VectorEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	c, ok := x.collections[index]
	if !ok {
		return fmt.Errorf("index %q: %w", index, domain.ErrNotFound)
	}
	for _, batch := range vector.Batches(entries, driven.UpsertBatchSize) {
		for _, e := range batch {
			if len(e.Vector) != c.dimensions {
				return fmt.Errorf("entry %s: %w: got %d, want %d",
					e.ID, domain.ErrDimensionMismatch, len(e.Vector), c.dimensions)
			}
			c.entries[e.ID] = copyEntry(e)
		}
	}
	return nil
}

// Search scans every entry and returns the TopK most similar.
func (x *Index) Search(_ context.Context, index string, query driven.VectorQuery) ([]driven.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	c, ok := x.collections[index]
	if !ok {
		return nil, fmt.Errorf("index %q: %w", index, domain.ErrNotFound)
	}

	hits := make([]driven.VectorHit, 0, len(c.entries))
	for _, e := range c.entries {
		if !vector.Matches(query.Filter, e.Metadata) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ID:       e.ID,
			Score:    cosine(query.Vector, e.Vector),
			Metadata: copyMeta(e.Metadata),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Score > hits[j].Score
	})
	if query.TopK > 0 && len(hits) > query.TopK {
		hits = hits[:query.TopK]
	}
	return hits, nil
}

// Delete removes an entry. Missing ids and indexes are ignored.
func (x *Index) Delete(_ context.Context, index string, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if c, ok := x.collections[index]; ok {
		delete(c.entries, id)
	}
	return nil
}

// Len returns the number of entries in an index.
func (x *Index) Len(index string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if c, ok := x.collections[index]; ok {
		return len(c.entries)
	}
	return 0
}

// HealthCheck always succeeds for the in-process index.
func (x *Index) HealthCheck(context.Context) bool {
	return true
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func copyEntry(e driven.VectorEntry) driven.VectorEntry {
	v := make([]float32, len(e.Vector))
	copy(v, e.Vector)
	return driven.VectorEntry{ID: e.ID, Vector: v, Metadata: copyMeta(e.Metadata)}
}

func copyMeta(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
