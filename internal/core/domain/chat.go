package domain

import "time"

// MessageRole is the author of a chat message.
type MessageRole string

// Chat message roles.
const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// IsValid returns true if the role is recognised.
func (r MessageRole) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatSession is a conversation scoped to a set of documents.
type ChatSession struct {
	// ID is the unique identifier for the session.
	ID string

	// UserID is the owning user.
	UserID string

	// Title is optional; set from the first message when nil.
	Title *string

	// DocumentIDs scopes retrieval. Empty means all documents.
	DocumentIDs []string

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	// UpdatedAt is when the session was last modified.
	UpdatedAt time.Time
}

// ChatMessage is one turn of a chat session.
type ChatMessage struct {
	ID        string
	SessionID string
	Role      MessageRole
	Content   string

	// Sources cites the chunks an assistant answer was grounded on.
	Sources []Source

	CreatedAt time.Time
}

// Source is a citation linking part of a generated answer to a chunk.
type Source struct {
	// DocumentID identifies the cited document.
	DocumentID string `json:"documentId"`

	// DocumentTitle is the document's display name, or "Unknown".
	DocumentTitle string `json:"documentTitle"`

	// ChunkIndex is the sequence index of the cited chunk.
	ChunkIndex int `json:"chunkIndex"`

	// Content is a bounded excerpt of the chunk, not the full text.
	Content string `json:"content"`

	// Similarity is the raw vector search score.
	Similarity float64 `json:"similarity"`
}
