// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// IngestionService turns an uploaded document into indexed chunks.
// RAGService answers a question from those chunks, and ChatService wraps it
// with session history and message persistence.
package services
