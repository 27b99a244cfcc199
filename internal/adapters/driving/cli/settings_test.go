package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/services"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsSet(t *testing.T) {
	env := setupTestServices(t)

	out, _, err := execute(t, "", "settings", "set", "ingestion.max_tokens", "400")

	require.NoError(t, err)
	assert.Contains(t, out, "Set ingestion.max_tokens = 400")
	assert.Equal(t, 400, env.config.GetInt(services.KeyIngestMaxTokens))
}

func TestSettingsSet_MasksSecrets(t *testing.T) {
	setupTestServices(t)

	out, _, err := execute(t, "", "settings", "set", "llm.api_key", "sk-1234567890abcdef")

	require.NoError(t, err)
	assert.Contains(t, out, "Set llm.api_key = sk-1...cdef")
	assert.NotContains(t, out, "567890")
}

func TestSettingsSet_Invalid(t *testing.T) {
	setupTestServices(t)

	t.Run("unknown key", func(t *testing.T) {
		_, _, err := execute(t, "", "settings", "set", "nope.key", "1")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("bad value", func(t *testing.T) {
		_, _, err := execute(t, "", "settings", "set", "ingestion.workers", "many")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSettingsShow(t *testing.T) {
	setupTestServices(t)

	out, _, err := execute(t, "", "settings")

	require.NoError(t, err)
	for _, section := range []string{"[Embedding]", "[LLM]", "[Vector Index]", "[Ingestion]", "[Server]"} {
		assert.Contains(t, out, section)
	}
}

func TestSettingsVector(t *testing.T) {
	env := setupTestServices(t)

	out, _, err := execute(t, "2\nhttp://qdrant:6333\nsecret-token\n", "settings", "vector")

	require.NoError(t, err)
	assert.Contains(t, out, "Vector backend configured: qdrant")
	assert.Equal(t, "qdrant", env.config.GetString(services.KeyVectorBackend))
	assert.Equal(t, "http://qdrant:6333", env.config.GetString(services.KeyVectorURL))
	assert.Equal(t, "secret-token", env.config.GetString(services.KeyVectorToken))
}

func TestSettingsVector_MemorySkipsURL(t *testing.T) {
	env := setupTestServices(t)

	_, _, err := execute(t, "4\n", "settings", "vector")

	require.NoError(t, err)
	assert.Equal(t, "memory", env.config.GetString(services.KeyVectorBackend))
	assert.Empty(t, env.config.GetString(services.KeyVectorURL))
}

func TestSettingsLLM_RequiresAPIKey(t *testing.T) {
	setupTestServices(t)

	// Gemini, default model, no key.
	_, _, err := execute(t, "1\n\n\n", "settings", "llm")

	assert.EqualError(t, err, "API key is required for this provider")
}
