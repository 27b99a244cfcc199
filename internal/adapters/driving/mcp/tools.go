package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question    string   `json:"question" jsonschema:"the question to answer from the uploaded documents"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict retrieval to these documents (default all)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string          `json:"answer"`
	Sources []domain.Source `json:"sources"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput summarises a single document.
type DocumentOutput struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DocumentInput names a single document.
type DocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document id"`
}

// IngestInput is the input schema for the ingest_document tool.
type IngestInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document id to ingest"`
	Wait       bool   `json:"wait,omitempty" jsonschema:"run synchronously and report the final status"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the uploaded documents, with cited sources",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List uploaded documents and their ingestion status",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Chunk, embed and index an uploaded document",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "document_status",
		Description: "Report a document's ingestion status and chunk count",
	}, s.handleDocumentStatus)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.ports.RAG.Query(ctx, driving.QueryRequest{
		Message:     input.Question,
		DocumentIDs: input.DocumentIDs,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	sources := result.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	return nil, AskOutput{Answer: result.Content, Sources: sources}, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Documents.List(ctx, s.ports.UserID)
	if err != nil {
		return nil, ListDocumentsOutput{}, fmt.Errorf("listing documents: %w", err)
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = toDocumentOutput(&docs[i])
	}
	return nil, output, nil
}

// handleIngest handles the ingest_document tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	if s.ports.Ingestion == nil {
		return nil, DocumentOutput{}, ErrIngestionUnavailable
	}
	if input.DocumentID == "" {
		return nil, DocumentOutput{}, fmt.Errorf("%w: document_id is required", domain.ErrInvalidInput)
	}

	if input.Wait {
		if err := s.ports.Ingestion.Process(ctx, input.DocumentID); err != nil {
			return nil, DocumentOutput{}, err
		}
	} else if err := s.ports.Ingestion.Submit(ctx, input.DocumentID); err != nil {
		return nil, DocumentOutput{}, err
	}

	return s.documentStatus(ctx, input.DocumentID)
}

// handleDocumentStatus handles the document_status tool invocation.
func (s *Server) handleDocumentStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	return s.documentStatus(ctx, input.DocumentID)
}

func (s *Server) documentStatus(ctx context.Context, documentID string) (*mcp.CallToolResult, DocumentOutput, error) {
	doc, err := s.ports.Documents.Get(ctx, documentID)
	if err != nil {
		return nil, DocumentOutput{}, fmt.Errorf("getting document %s: %w", documentID, err)
	}
	return nil, toDocumentOutput(doc), nil
}

func toDocumentOutput(doc *domain.Document) DocumentOutput {
	return DocumentOutput{
		ID:         doc.ID,
		Name:       doc.Name,
		FileName:   doc.FileName,
		FileType:   string(doc.FileType),
		Status:     doc.Status.String(),
		ChunkCount: doc.ChunkCount,
		UpdatedAt:  doc.UpdatedAt,
	}
}
