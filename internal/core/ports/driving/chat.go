package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// CreateSessionRequest describes a new chat session.
type CreateSessionRequest struct {
	UserID      string
	Title       string
	DocumentIDs []string
}

// ChatService manages chat sessions and runs chat turns.
type ChatService interface {
	// CreateSession starts a new session scoped to DocumentIDs.
	CreateSession(ctx context.Context, req CreateSessionRequest) (*domain.ChatSession, error)

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error)

	// ListSessions returns a user's sessions.
	ListSessions(ctx context.Context, userID string) ([]domain.ChatSession, error)

	// Messages returns a session's full history, oldest first.
	Messages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)

	// Send runs one chat turn and returns the persisted assistant message.
	// Nothing is persisted if the retrieval pipeline fails.
	Send(ctx context.Context, sessionID, content string) (*domain.ChatMessage, error)
}
