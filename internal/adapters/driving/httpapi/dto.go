package httpapi

import (
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// documentResponse is the JSON form of a document.
type documentResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunkCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toDocument(d *domain.Document) documentResponse {
	return documentResponse{
		ID:         d.ID,
		UserID:     d.UserID,
		Name:       d.Name,
		FileName:   d.FileName,
		FileType:   d.FileType.String(),
		FileSize:   d.FileSize,
		Status:     d.Status.String(),
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

type sessionResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       *string   `json:"title"`
	DocumentIDs []string  `json:"documentIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toSession(s *domain.ChatSession) sessionResponse {
	ids := s.DocumentIDs
	if ids == nil {
		ids = []string{}
	}
	return sessionResponse{
		ID:          s.ID,
		UserID:      s.UserID,
		Title:       s.Title,
		DocumentIDs: ids,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

type messageResponse struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Sources   []domain.Source `json:"sources"`
	CreatedAt time.Time       `json:"createdAt"`
}

func toMessage(m *domain.ChatMessage) messageResponse {
	sources := m.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	return messageResponse{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      string(m.Role),
		Content:   m.Content,
		Sources:   sources,
		CreatedAt: m.CreatedAt,
	}
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

type sessionRequest struct {
	UserID      string   `json:"userId"`
	Title       string   `json:"title"`
	DocumentIDs []string `json:"documentIds"`
}

type errorResponse struct {
	Error string `json:"error"`
}
