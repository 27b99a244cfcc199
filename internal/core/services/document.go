package services

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages uploaded documents.
type DocumentService struct {
	docs      driven.DocumentStore
	objects   driven.ObjectStore
	vectors   driven.VectorIndex
	indexName string
}

// NewDocumentService creates a document service.
// The vector index is optional; without it Delete leaves vectors in place.
func NewDocumentService(docs driven.DocumentStore, objects driven.ObjectStore, vectors driven.VectorIndex, indexName string) *DocumentService {
	if indexName == "" {
		indexName = domain.DefaultIndexName
	}
	return &DocumentService{
		docs:      docs,
		objects:   objects,
		vectors:   vectors,
		indexName: indexName,
	}
}

// Upload stores the bytes and creates a pending document.
func (s *DocumentService) Upload(ctx context.Context, req driving.UploadRequest) (*domain.Document, error) {
	fileName := filepath.Base(strings.TrimSpace(req.FileName))
	if strings.TrimSpace(req.UserID) == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: userId and file name are required", domain.ErrValidation)
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: file %s is empty", domain.ErrValidation, fileName)
	}

	mediaType := domain.ParseMediaType(string(req.FileType))
	if mediaType == "" {
		mediaType = domain.ParseMediaType(filepath.Ext(fileName))
	}
	if !mediaType.IsSupported() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, mediaType)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = fileName
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Name:      name,
		FileName:  fileName,
		FileType:  mediaType,
		FileSize:  int64(len(req.Data)),
		Status:    domain.DocumentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.FilePath = path.Join(doc.UserID, doc.ID, fileName)

	if err := s.objects.Upload(ctx, doc.FilePath, req.Data); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}
	if err := s.docs.CreateDocument(ctx, doc); err != nil {
		if derr := s.objects.Delete(ctx, doc.FilePath); derr != nil {
			logger.Warn("Could not remove %s: %v", doc.FilePath, derr)
		}
		return nil, fmt.Errorf("create document: %w", err)
	}

	logger.Debug("Uploaded %s as %s (%d bytes)", fileName, doc.ID, doc.FileSize)
	return doc, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docs.GetDocument(ctx, documentID)
}

// List returns a user's documents. An empty userID lists all.
func (s *DocumentService) List(ctx context.Context, userID string) ([]domain.Document, error) {
	return s.docs.ListDocuments(ctx, userID)
}

// Chunks returns a document's chunks in sequence order.
func (s *DocumentService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if _, err := s.docs.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.docs.GetChunks(ctx, documentID)
}

// Delete removes a document's vectors, stored bytes, chunks and record, in that order.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	chunks, err := s.docs.GetChunks(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get chunks: %w", err)
	}

	if s.vectors != nil {
		for _, chunk := range chunks {
			if err := s.vectors.Delete(ctx, s.indexName, chunk.EmbeddingID); err != nil {
				return fmt.Errorf("delete vector %s: %w", chunk.EmbeddingID, err)
			}
		}
	}

	if err := s.objects.Delete(ctx, doc.FilePath); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if err := s.docs.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	logger.Debug("Deleted %s with %d chunks", documentID, len(chunks))
	return nil
}
