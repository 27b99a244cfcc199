package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// UploadRequest carries a new file into the system.
type UploadRequest struct {
	// UserID is the owning user.
	UserID string

	// Name is the display name. Defaults to FileName.
	Name string

	// FileName is the original filename. Its extension selects the media
	// type when FileType is empty.
	FileName string

	// FileType is the media type, optional.
	FileType domain.MediaType

	// Data is the raw file content.
	Data []byte
}

// DocumentService manages uploaded documents.
type DocumentService interface {
	// Upload stores the bytes and creates a pending document.
	Upload(ctx context.Context, req UploadRequest) (*domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns a user's documents. An empty userID lists all.
	List(ctx context.Context, userID string) ([]domain.Document, error)

	// Chunks returns a document's chunks in sequence order.
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Delete removes a document's vectors, stored bytes, chunks and record.
	Delete(ctx context.Context, documentID string) error
}
