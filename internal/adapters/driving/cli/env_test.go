package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrag/internal/core/services"
)

// mapStore is an overrider backed by a plain map.
type mapStore map[string]any

func (m mapStore) GetString(key string) string {
	s, _ := m[key].(string)
	return s
}

func (m mapStore) Override(key string, value any) {
	m[key] = value
}

func envFrom(vars map[string]string) func(string) string {
	return func(name string) string { return vars[name] }
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "DOCRAG_VECTOR_URL", envName(services.KeyVectorURL))
	assert.Equal(t, "DOCRAG_INGESTION_MAX_TOKENS", envName(services.KeyIngestMaxTokens))
	assert.Equal(t, "DOCRAG_EMBEDDING_REQUESTS_PER_SECOND", envName(services.KeyEmbedRPS))
}

func TestApplyEnv_SettingKeys(t *testing.T) {
	store := mapStore{}

	err := applyEnv(store, envFrom(map[string]string{
		"DOCRAG_INGESTION_MAX_TOKENS": "400",
		"DOCRAG_VECTOR_BACKEND":       "qdrant",
		"DOCRAG_LOG_VERBOSE":          "true",
	}))

	require.NoError(t, err)
	assert.Equal(t, 400, store[services.KeyIngestMaxTokens])
	assert.Equal(t, "qdrant", store[services.KeyVectorBackend])
	assert.Equal(t, true, store[services.KeyLogVerbose])
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	err := applyEnv(mapStore{}, envFrom(map[string]string{
		"DOCRAG_INGESTION_WORKERS": "many",
	}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCRAG_INGESTION_WORKERS")
}

func TestApplyEnv_ProviderKeys(t *testing.T) {
	t.Run("gemini by default", func(t *testing.T) {
		store := mapStore{}

		require.NoError(t, applyEnv(store, envFrom(map[string]string{"GEMINI_API_KEY": "g-key"})))

		assert.Equal(t, "g-key", store[services.KeyEmbedAPIKey])
		assert.Equal(t, "g-key", store[services.KeyLLMAPIKey])
	})

	t.Run("follows configured provider", func(t *testing.T) {
		store := mapStore{services.KeyLLMProvider: "anthropic"}

		require.NoError(t, applyEnv(store, envFrom(map[string]string{
			"GEMINI_API_KEY":    "g-key",
			"ANTHROPIC_API_KEY": "a-key",
		})))

		assert.Equal(t, "g-key", store[services.KeyEmbedAPIKey])
		assert.Equal(t, "a-key", store[services.KeyLLMAPIKey])
	})

	t.Run("docrag variable wins", func(t *testing.T) {
		store := mapStore{}

		require.NoError(t, applyEnv(store, envFrom(map[string]string{
			"GEMINI_API_KEY":     "g-key",
			"DOCRAG_LLM_API_KEY": "explicit",
		})))

		assert.Equal(t, "explicit", store[services.KeyLLMAPIKey])
	})

	t.Run("local provider has no key variable", func(t *testing.T) {
		store := mapStore{services.KeyEmbedProvider: "ollama"}

		require.NoError(t, applyEnv(store, envFrom(map[string]string{"OPENAI_API_KEY": "o-key"})))

		_, ok := store[services.KeyEmbedAPIKey]
		assert.False(t, ok)
	})
}

func TestApplyEnv_Endee(t *testing.T) {
	vars := map[string]string{
		"ENDEE_API_URL":    "http://endee:8080",
		"ENDEE_AUTH_TOKEN": "tok",
	}

	t.Run("default backend", func(t *testing.T) {
		store := mapStore{}

		require.NoError(t, applyEnv(store, envFrom(vars)))

		assert.Equal(t, "http://endee:8080", store[services.KeyVectorURL])
		assert.Equal(t, "tok", store[services.KeyVectorToken])
	})

	t.Run("other backend ignores endee variables", func(t *testing.T) {
		store := mapStore{services.KeyVectorBackend: "qdrant"}

		require.NoError(t, applyEnv(store, envFrom(vars)))

		_, ok := store[services.KeyVectorURL]
		assert.False(t, ok)
	})
}

func TestApplyEnv_FileStoreOverridesAreNotSaved(t *testing.T) {
	path := t.TempDir() + "/config.toml"
	store, err := file.NewConfigStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(services.KeyVectorIndex, "from-file"))

	require.NoError(t, applyEnv(store, envFrom(map[string]string{"DOCRAG_VECTOR_INDEX": "from-env"})))
	assert.Equal(t, "from-env", store.GetString(services.KeyVectorIndex))

	require.NoError(t, store.Save())
	reloaded, err := file.NewConfigStore(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", reloaded.GetString(services.KeyVectorIndex))
}
