package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		dimensions  int
		wantDims    int
		wantErr     bool
		errContains string
	}{
		{
			name:    "nil settings",
			wantErr: true,
		},
		{
			name:       "gemini uses requested dimensions",
			settings:   &domain.EmbeddingSettings{Provider: domain.AIProviderGemini, APIKey: "k", Model: "gemini-embedding-001"},
			dimensions: 768,
			wantDims:   768,
		},
		{
			name:     "gemini defaults to native size",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderGemini, APIKey: "k", Model: "gemini-embedding-001"},
			wantDims: 3072,
		},
		{
			name:     "gemini without key",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderGemini, Model: "gemini-embedding-001"},
			wantErr:  true,
		},
		{
			name:       "ollama ignores requested dimensions",
			settings:   &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
			dimensions: 3072,
			wantDims:   768,
		},
		{
			name:     "openai",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"},
			wantDims: 1536,
		},
		{
			name:        "anthropic has no embeddings",
			settings:    &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantErr:     true,
			errContains: "anthropic does not support embeddings",
		},
		{
			name:     "unknown provider",
			settings: &domain.EmbeddingSettings{Provider: "unknown", APIKey: "k"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings, tt.dimensions)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			defer svc.Close()
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	for _, p := range []domain.AIProvider{
		domain.AIProviderGemini, domain.AIProviderOpenAI, domain.AIProviderAnthropic, domain.AIProviderOllama,
	} {
		t.Run(p.String(), func(t *testing.T) {
			svc, err := CreateLLMService(&domain.LLMSettings{Provider: p, APIKey: "k", Model: "m"})
			require.NoError(t, err)
			assert.Equal(t, "m", svc.ModelName())
		})
	}

	_, err := CreateLLMService(&domain.LLMSettings{Provider: domain.AIProviderOpenAI})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = CreateLLMService(nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateVectorIndex(t *testing.T) {
	ctx := context.Background()

	idx, err := CreateVectorIndex(ctx, &domain.VectorSettings{Backend: domain.VectorBackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Index{}, idx)

	for _, b := range []domain.VectorBackend{domain.VectorBackendEndee, domain.VectorBackendQdrant} {
		idx, err := CreateVectorIndex(ctx, &domain.VectorSettings{Backend: b, URL: "http://127.0.0.1:1"})
		require.NoError(t, err)
		assert.NotNil(t, idx)
	}

	_, err = CreateVectorIndex(ctx, &domain.VectorSettings{Backend: "pinecone"})
	assert.Error(t, err)
}

func TestInit_MemoryBackend(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Embedding.APIKey = "k"
	settings.LLM.APIKey = "k"
	settings.Vector.Backend = domain.VectorBackendMemory

	result, err := Init(context.Background(), &settings)
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, domain.DefaultVectorDimensions, result.EmbeddingService.Dimensions())
	assert.NotNil(t, result.LLMService)
	assert.NotNil(t, result.VectorIndex)
}

func TestInit_MissingKey(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Vector.Backend = domain.VectorBackendMemory

	_, err := Init(context.Background(), &settings)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
