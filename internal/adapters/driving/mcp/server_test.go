package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil rag service returns error", func(t *testing.T) {
		ports := &Ports{Documents: &mockDocumentService{}}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingRAGService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			RAG:       &mockRAGService{},
			Documents: &mockDocumentService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil rag service returns error", func(t *testing.T) {
		ports := &Ports{Documents: &mockDocumentService{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingRAGService)
	})

	t.Run("nil document service returns error", func(t *testing.T) {
		ports := &Ports{RAG: &mockRAGService{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingDocumentService)
	})

	t.Run("ingestion is optional", func(t *testing.T) {
		ports := &Ports{RAG: &mockRAGService{}, Documents: &mockDocumentService{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			RAG:       &mockRAGService{},
			Documents: &mockDocumentService{},
			Ingestion: &mockIngestionService{},
			UserID:    "u1",
		}
		assert.NoError(t, ports.Validate())
	})
}
