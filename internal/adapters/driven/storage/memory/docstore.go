package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// It enforces the same constraints as the sqlite schema: unique ids,
// unique embedding ids and chunks only for existing documents.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	order     map[string]int
	seq       int
	chunks    map[string][]domain.Chunk
	embedding map[string]string // embedding id -> document id
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		order:     make(map[string]int),
		chunks:    make(map[string][]domain.Chunk),
		embedding: make(map[string]string),
	}
}

// CreateDocument stores a new document record.
func (s *DocumentStore) CreateDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[doc.ID]; ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrAlreadyExists)
	}
	s.seq++
	s.order[doc.ID] = s.seq
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns a user's documents, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context, userID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if userID == "" || doc.UserID == userID {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return s.order[docs[i].ID] > s.order[docs[j].ID]
	})
	return docs, nil
}

// UpdateStatus sets a document's ingestion status.
func (s *DocumentStore) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus) error {
	return s.update(id, func(doc *domain.Document) {
		doc.Status = status
	})
}

// CompleteDocument sets status=completed and chunk_count together.
func (s *DocumentStore) CompleteDocument(_ context.Context, id string, chunkCount int) error {
	return s.update(id, func(doc *domain.Document) {
		doc.Status = domain.DocumentStatusCompleted
		doc.ChunkCount = chunkCount
	})
}

func (s *DocumentStore) update(id string, fn func(*domain.Document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, domain.ErrNotFound)
	}
	fn(&doc)
	doc.UpdatedAt = time.Now().UTC()
	s.documents[id] = doc
	return nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return fmt.Errorf("%s: %w", id, domain.ErrNotFound)
	}
	for _, c := range s.chunks[id] {
		delete(s.embedding, c.EmbeddingID)
	}
	delete(s.chunks, id)
	delete(s.documents, id)
	delete(s.order, id)
	return nil
}

// SaveChunk stores a single chunk.
func (s *DocumentStore) SaveChunk(ctx context.Context, chunk *domain.Chunk) error {
	return s.SaveChunks(ctx, []domain.Chunk{*chunk})
}

// SaveChunks stores chunks atomically: either all are stored or none.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		if _, ok := s.documents[c.DocumentID]; !ok {
			return fmt.Errorf("chunk %s: document %s: %w", c.ID, c.DocumentID, domain.ErrNotFound)
		}
		if _, ok := s.embedding[c.EmbeddingID]; ok || seen[c.EmbeddingID] {
			return fmt.Errorf("chunk embedding %s: %w", c.EmbeddingID, domain.ErrAlreadyExists)
		}
		seen[c.EmbeddingID] = true
	}

	for _, c := range chunks {
		s.chunks[c.DocumentID] = append(s.chunks[c.DocumentID], c)
		s.embedding[c.EmbeddingID] = c.DocumentID
	}
	return nil
}

// GetChunks retrieves all chunks for a document ordered by index.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := append([]domain.Chunk(nil), s.chunks[documentID]...)
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

// GetChunksByEmbeddingIDs retrieves chunks joined with their document name.
func (s *DocumentStore) GetChunksByEmbeddingIDs(_ context.Context, embeddingIDs []string) ([]domain.ChunkWithDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ChunkWithDocument
	for _, id := range embeddingIDs {
		docID, ok := s.embedding[id]
		if !ok {
			continue
		}
		for _, c := range s.chunks[docID] {
			if c.EmbeddingID == id {
				out = append(out, domain.ChunkWithDocument{Chunk: c, DocumentName: s.documents[docID].Name})
				break
			}
		}
	}
	return out, nil
}
