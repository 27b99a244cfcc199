// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docrag/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewDocuments lists the user's documents.
	ViewDocuments ViewType = iota
	// ViewChat is the conversation view.
	ViewChat
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewDocuments:
		return "documents"
	case ViewChat:
		return "chat"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the user's documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentDeleted signals a document was deleted.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// DocumentIngested signals an ingestion run finished.
type DocumentIngested struct {
	DocumentID string
	Err        error
}

// ChatRequested asks for a new session scoped to DocumentIDs.
// An empty scope searches every document.
type ChatRequested struct {
	DocumentIDs []string
}

// SessionStarted carries a created or resumed session and its transcript.
type SessionStarted struct {
	Session  *domain.ChatSession
	Messages []domain.ChatMessage
	Err      error
}

// ReplyReceived carries the assistant's answer to a sent message.
type ReplyReceived struct {
	Reply *domain.ChatMessage
	Err   error
}
