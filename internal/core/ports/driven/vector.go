package driven

import "context"

// VectorIndex stores embeddings and answers nearest-neighbour queries.
// Implementations wrap a remote or in-process vector search backend and
// normalise backend-specific result fields at their boundary.
type VectorIndex interface {
	// EnsureIndex creates the named index with cosine space and float32
	// precision if it does not exist. Calling it for an existing index is a no-op.
	EnsureIndex(ctx context.Context, name string, dimensions int) error

	// Upsert inserts or replaces a single entry by id.
	Upsert(ctx context.Context, index string, entry VectorEntry) error

	// UpsertBatch inserts or replaces entries in fixed-size sub-batches.
	UpsertBatch(ctx context.Context, index string, entries []VectorEntry) error

	// Search returns up to TopK hits ordered by descending score.
	Search(ctx context.Context, index string, query VectorQuery) ([]VectorHit, error)

	// Delete removes a single entry. A missing id is not an error.
	Delete(ctx context.Context, index string, id string) error

	// HealthCheck reports whether the backend is reachable.
	// Used for liveness only.
	HealthCheck(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// UpsertBatchSize is the sub-batch size for UpsertBatch.
const UpsertBatchSize = 100

// Metadata keys written alongside every vector entry.
const (
	MetaDocumentID = "documentId"
	MetaChunkIndex = "chunkIndex"
)

// VectorEntry is an (id, vector, metadata) triple.
type VectorEntry struct {
	// ID equals the owning chunk's embedding id.
	ID string

	// Vector is the embedding.
	Vector []float32

	// Metadata holds the document id and chunk index.
	Metadata map[string]any
}

// VectorFilter restricts candidates to entries whose metadata Field is one of In.
// A filter with an empty In matches nothing; use a nil filter to match everything.
type VectorFilter struct {
	Field string
	In    []string
}

// VectorQuery describes a nearest-neighbour search.
type VectorQuery struct {
	// Vector is the query embedding.
	Vector []float32

	// TopK bounds the result count.
	TopK int

	// Filter is optional.
	Filter *VectorFilter
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched entry id.
	ID string

	// Score is the cosine similarity; 0 when the backend reports none.
	Score float64

	// Metadata is the entry's stored metadata, never nil.
	Metadata map[string]any
}
