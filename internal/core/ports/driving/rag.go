package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// QueryRequest is a single retrieval-augmented question.
type QueryRequest struct {
	// SessionID selects prior history. Empty means a stateless question.
	SessionID string

	// Message is the user's question.
	Message string

	// DocumentIDs scopes retrieval. Empty searches all documents.
	DocumentIDs []string
}

// QueryResult is the generated answer and the sources it was grounded on.
type QueryResult struct {
	Content string
	Sources []domain.Source
}

// RAGService answers questions from indexed document chunks.
type RAGService interface {
	// Query runs the retrieval pipeline for one chat turn. It has no side effects.
	Query(ctx context.Context, req QueryRequest) (*QueryResult, error)
}
