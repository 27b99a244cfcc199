package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

func entry(id, doc string, v ...float32) driven.VectorEntry {
	return driven.VectorEntry{ID: id, Vector: v, Metadata: map[string]any{driven.MetaDocumentID: doc}}
}

func TestIndex_EnsureIndexIdempotent(t *testing.T) {
	ctx := context.Background()
	x := New()

	require.NoError(t, x.EnsureIndex(ctx, "documents", 2))
	require.NoError(t, x.EnsureIndex(ctx, "documents", 2))
	assert.Equal(t, 1, x.Creations())
}

func TestIndex_SearchOrdersByScore(t *testing.T) {
	ctx := context.Background()
	x := New()
	require.NoError(t, x.EnsureIndex(ctx, "documents", 2))
	require.NoError(t, x.UpsertBatch(ctx, "documents", []driven.VectorEntry{
		entry("far", "d1", 0, 1),
		entry("near", "d1", 1, 0),
		entry("mid", "d2", 1, 1),
	}))

	hits, err := x.Search(ctx, "documents", driven.VectorQuery{Vector: []float32{1, 0}, TopK: 2})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "mid", hits[1].ID)
	assert.Equal(t, "d2", hits[1].Metadata[driven.MetaDocumentID])
}

func TestIndex_SearchFilter(t *testing.T) {
	ctx := context.Background()
	x := New()
	require.NoError(t, x.EnsureIndex(ctx, "documents", 2))
	require.NoError(t, x.Upsert(ctx, "documents", entry("a", "d1", 1, 0)))
	require.NoError(t, x.Upsert(ctx, "documents", entry("b", "d2", 1, 0)))

	hits, err := x.Search(ctx, "documents", driven.VectorQuery{
		Vector: []float32{1, 0},
		TopK:   10,
		Filter: &driven.VectorFilter{Field: driven.MetaDocumentID, In: []string{"d2"}},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)
}

func TestIndex_SearchEmptyFilter(t *testing.T) {
	ctx := context.Background()
	x := New()
	require.NoError(t, x.EnsureIndex(ctx, "documents", 2))
	require.NoError(t, x.Upsert(ctx, "documents", entry("a", "d1", 1, 0)))

	hits, err := x.Search(ctx, "documents", driven.VectorQuery{
		Vector: []float32{1, 0},
		TopK:   10,
		Filter: &driven.VectorFilter{Field: driven.MetaDocumentID},
	})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	x := New()
	require.NoError(t, x.EnsureIndex(ctx, "documents", 2))
	require.NoError(t, x.Upsert(ctx, "documents", entry("a", "d1", 1, 0)))
	require.NoError(t, x.Upsert(ctx, "documents", entry("a", "d1", 0, 1)))

	assert.Equal(t, 1, x.Len("documents"))
	hits, err := x.Search(ctx, "documents", driven.VectorQuery{Vector: []float32{0, 1}, TopK: 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestIndex_Errors(t *testing.T) {
	ctx := context.Background()
	x := New()

	err := x.Upsert(ctx, "missing", entry("a", "d", 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, x.EnsureIndex(ctx, "documents", 3))
	err = x.Upsert(ctx, "documents", entry("a", "d", 1))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndex_DeleteMissingIsNotError(t *testing.T) {
	ctx := context.Background()
	x := New()
	require.NoError(t, x.EnsureIndex(ctx, "documents", 1))
	require.NoError(t, x.Upsert(ctx, "documents", entry("a", "d", 1)))

	assert.NoError(t, x.Delete(ctx, "documents", "a"))
	assert.NoError(t, x.Delete(ctx, "documents", "a"))
	assert.NoError(t, x.Delete(ctx, "nope", "a"))
	assert.Equal(t, 0, x.Len("documents"))
	assert.True(t, x.HealthCheck(ctx))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, cosine([]float32{1}, []float32{1, 0}))
}
