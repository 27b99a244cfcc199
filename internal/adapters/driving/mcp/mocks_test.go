package mcp

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	result *driving.QueryResult
	err    error
	last   driving.QueryRequest
}

func (m *mockRAGService) Query(_ context.Context, req driving.QueryRequest) (*driving.QueryResult, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	chunks    []domain.Chunk
	listUser  string
	err       error
}

func (m *mockDocumentService) Upload(_ context.Context, _ driving.UploadRequest) (*domain.Document, error) {
	return nil, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == id {
			doc := m.documents[i]
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) List(_ context.Context, userID string) ([]domain.Document, error) {
	m.listUser = userID
	return m.documents, m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	processed []string
	submitted []string
	err       error

	// onProcess updates the document as the pipeline would.
	onProcess func(id string)
}

func (m *mockIngestionService) Process(_ context.Context, id string) error {
	m.processed = append(m.processed, id)
	if m.onProcess != nil {
		m.onProcess(id)
	}
	return m.err
}

func (m *mockIngestionService) Submit(_ context.Context, id string) error {
	m.submitted = append(m.submitted, id)
	return m.err
}

func (m *mockIngestionService) Wait() {}

func (m *mockIngestionService) Close() error { return nil }
