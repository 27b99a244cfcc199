// Package tui provides an interactive terminal user interface for docrag.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"fmt"

	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Documents lists and deletes the user's documents.
	Documents driving.DocumentService

	// Chat creates sessions and answers questions.
	Chat driving.ChatService

	// Ingestion processes documents from the list. Optional.
	Ingestion driving.IngestionService

	// UserID owns the documents and sessions shown.
	UserID string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidPorts)
	}
	return nil
}
