package mcp

import (
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// RAG answers questions.
	RAG driving.RAGService

	// Documents lists documents and reports their status.
	Documents driving.DocumentService

	// Ingestion processes documents. Optional.
	Ingestion driving.IngestionService

	// UserID scopes document listings. Empty lists every user's documents.
	UserID string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
