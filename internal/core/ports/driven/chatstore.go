package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// ChatStore persists chat sessions and their messages.
type ChatStore interface {
	// CreateSession stores a new session.
	CreateSession(ctx context.Context, session *domain.ChatSession) error

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, id string) (*domain.ChatSession, error)

	// ListSessions returns a user's sessions, most recently updated first.
	ListSessions(ctx context.Context, userID string) ([]domain.ChatSession, error)

	// UpdateSessionTitle sets a session's title and bumps updated_at.
	UpdateSessionTitle(ctx context.Context, id, title string) error

	// SaveMessage appends a message to its session and bumps the session's updated_at.
	SaveMessage(ctx context.Context, msg *domain.ChatMessage) error

	// RecentMessages returns the most recent limit messages, oldest first.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)

	// ListMessages returns every message of a session, oldest first.
	ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)
}
