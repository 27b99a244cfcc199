package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// titleRunes bounds a session title derived from the first message.
const titleRunes = 50

// ChatService manages sessions and runs chat turns through the RAG pipeline.
type ChatService struct {
	chats driven.ChatStore
	rag   driving.RAGService
}

// NewChatService creates a chat service.
func NewChatService(chats driven.ChatStore, rag driving.RAGService) *ChatService {
	return &ChatService{chats: chats, rag: rag}
}

// CreateSession starts a new session scoped to DocumentIDs.
func (s *ChatService) CreateSession(ctx context.Context, req driving.CreateSessionRequest) (*domain.ChatSession, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}

	now := time.Now().UTC()
	session := &domain.ChatSession{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		DocumentIDs: append([]string{}, req.DocumentIDs...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		session.Title = &title
	}

	if err := s.chats.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID.
func (s *ChatService) GetSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	return s.chats.GetSession(ctx, sessionID)
}

// ListSessions returns a user's sessions.
func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]domain.ChatSession, error) {
	return s.chats.ListSessions(ctx, userID)
}

// Messages returns a session's full history, oldest first.
func (s *ChatService) Messages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	if _, err := s.chats.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.chats.ListMessages(ctx, sessionID)
}

// Send runs one chat turn. The user and assistant messages are stored only
// after the pipeline succeeds; an untitled session is titled from content.
func (s *ChatService) Send(ctx context.Context, sessionID, content string) (*domain.ChatMessage, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: sessionId and content are required", domain.ErrValidation)
	}

	session, err := s.chats.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	result, err := s.rag.Query(ctx, driving.QueryRequest{
		SessionID:   sessionID,
		Message:     content,
		DocumentIDs: session.DocumentIDs,
	})
	if err != nil {
		return nil, err
	}

	userMsg := &domain.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      domain.RoleUser,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chats.SaveMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	assistantMsg := &domain.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      domain.RoleAssistant,
		Content:   result.Content,
		Sources:   result.Sources,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chats.SaveMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}

	if session.Title == nil || *session.Title == "" {
		if err := s.chats.UpdateSessionTitle(ctx, sessionID, sessionTitle(content)); err != nil {
			logger.Warn("Could not title session %s: %v", sessionID, err)
		}
	}

	return assistantMsg, nil
}

// sessionTitle truncates content to titleRunes runes, marking truncation.
func sessionTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleRunes {
		return content
	}
	return string(runes[:titleRunes]) + "..."
}
