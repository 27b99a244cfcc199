package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// CreateDocument stores a new document record.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns a user's documents, newest first.
	// An empty userID lists every document.
	ListDocuments(ctx context.Context, userID string) ([]domain.Document, error)

	// UpdateStatus sets a document's ingestion status.
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error

	// CompleteDocument sets status=completed and chunk_count in one update.
	CompleteDocument(ctx context.Context, id string, chunkCount int) error

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// SaveChunk stores a single chunk.
	SaveChunk(ctx context.Context, chunk *domain.Chunk) error

	// SaveChunks stores chunks for a document in one batch.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunksByEmbeddingIDs retrieves chunks joined with their document name.
	// IDs without a stored chunk are omitted; order is unspecified.
	GetChunksByEmbeddingIDs(ctx context.Context, embeddingIDs []string) ([]domain.ChunkWithDocument, error)
}
