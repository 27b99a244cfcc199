package cli

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/services"
)

// envPrefix prefixes the environment form of every setting key.
// "ingestion.max_tokens" is read from DOCRAG_INGESTION_MAX_TOKENS.
const envPrefix = "DOCRAG_"

// providerKeyEnv names the conventional API key variable of each cloud provider.
var providerKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderGemini:    "GEMINI_API_KEY",
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
}

// Endee's own variables, honoured when the endee backend is selected.
const (
	envEndeeURL   = "ENDEE_API_URL"
	envEndeeToken = "ENDEE_AUTH_TOKEN"
)

// overrider is a config store that accepts process-only values.
type overrider interface {
	GetString(key string) string
	Override(key string, value any)
}

func envName(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// applyEnv shadows config values with environment variables.
// DOCRAG_* variables win over the provider and endee conventions.
func applyEnv(store overrider, getenv func(string) string) error {
	for _, key := range services.SettingKeys() {
		raw := getenv(envName(key))
		if raw == "" {
			continue
		}
		v, err := services.ParseSetting(key, raw)
		if err != nil {
			return fmt.Errorf("%s: %w", envName(key), err)
		}
		store.Override(key, v)
	}

	for _, section := range []struct{ provider, apiKey string }{
		{services.KeyEmbedProvider, services.KeyEmbedAPIKey},
		{services.KeyLLMProvider, services.KeyLLMAPIKey},
	} {
		if getenv(envName(section.apiKey)) != "" {
			continue
		}
		provider := domain.AIProvider(store.GetString(section.provider))
		if provider == "" {
			provider = domain.AIProviderGemini
		}
		if name, ok := providerKeyEnv[provider]; ok {
			if v := getenv(name); v != "" {
				store.Override(section.apiKey, v)
			}
		}
	}

	backend := domain.VectorBackend(store.GetString(services.KeyVectorBackend))
	if backend != "" && backend != domain.VectorBackendEndee {
		return nil
	}
	if v := getenv(envEndeeURL); v != "" && getenv(envName(services.KeyVectorURL)) == "" {
		store.Override(services.KeyVectorURL, v)
	}
	if v := getenv(envEndeeToken); v != "" && getenv(envName(services.KeyVectorToken)) == "" {
		store.Override(services.KeyVectorToken, v)
	}
	return nil
}
