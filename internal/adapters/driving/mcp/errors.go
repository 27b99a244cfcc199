// Package mcp provides an MCP (Model Context Protocol) server adapter for docrag.
// It lets AI assistants ask grounded questions about uploaded documents.
package mcp

import "errors"

// ErrMissingRAGService is returned when the retrieval service is not provided.
var ErrMissingRAGService = errors.New("mcp: rag service is required")

// ErrMissingDocumentService is returned when the document service is not provided.
var ErrMissingDocumentService = errors.New("mcp: document service is required")

// ErrIngestionUnavailable is returned by ingest_document when no ingestion service is wired.
var ErrIngestionUnavailable = errors.New("mcp: ingestion is not available")
