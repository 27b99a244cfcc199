package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyEmbedProvider   = "embedding.provider"
	KeyEmbedModel      = "embedding.model"
	KeyEmbedBaseURL    = "embedding.base_url"
	KeyEmbedAPIKey     = "embedding.api_key"
	KeyEmbedRPS        = "embedding.requests_per_second"
	KeyLLMProvider     = "llm.provider"
	KeyLLMModel        = "llm.model"
	KeyLLMBaseURL      = "llm.base_url"
	KeyLLMAPIKey       = "llm.api_key"
	KeyVectorBackend   = "vector.backend"
	KeyVectorURL       = "vector.url"
	KeyVectorToken     = "vector.token"
	KeyVectorIndex     = "vector.index"
	KeyVectorDims      = "vector.dimensions"
	KeyStorageDataDir  = "storage.data_dir"
	KeyServerAddr      = "server.addr"
	KeyIngestWorkers   = "ingestion.workers"
	KeyIngestMaxTokens = "ingestion.max_tokens"
	KeyIngestOverlap   = "ingestion.overlap_tokens"
	KeyLogVerbose      = "log.verbose"
	KeyImportInclude   = "import.include"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindBool
)

// settingKinds lists every settable key with its value type.
var settingKinds = map[string]keyKind{
	KeyEmbedProvider:   kindString,
	KeyEmbedModel:      kindString,
	KeyEmbedBaseURL:    kindString,
	KeyEmbedAPIKey:     kindString,
	KeyEmbedRPS:        kindFloat,
	KeyLLMProvider:     kindString,
	KeyLLMModel:        kindString,
	KeyLLMBaseURL:      kindString,
	KeyLLMAPIKey:       kindString,
	KeyVectorBackend:   kindString,
	KeyVectorURL:       kindString,
	KeyVectorToken:     kindString,
	KeyVectorIndex:     kindString,
	KeyVectorDims:      kindInt,
	KeyStorageDataDir:  kindString,
	KeyServerAddr:      kindString,
	KeyIngestWorkers:   kindInt,
	KeyIngestMaxTokens: kindInt,
	KeyIngestOverlap:   kindInt,
	KeyLogVerbose:      kindBool,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(KeyEmbedProvider, defaults.Embedding.Provider)
	llmProvider := s.getProvider(KeyLLMProvider, defaults.LLM.Provider)

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          embedProvider,
			Model:             s.getString(KeyEmbedModel, domain.DefaultEmbeddingModels()[embedProvider]),
			BaseURL:           s.configStore.GetString(KeyEmbedBaseURL), // No default - empty means the provider's endpoint
			APIKey:            s.configStore.GetString(KeyEmbedAPIKey),
			RequestsPerSecond: s.configStore.GetFloat(KeyEmbedRPS),
		},
		LLM: domain.LLMSettings{
			Provider: llmProvider,
			Model:    s.getString(KeyLLMModel, domain.DefaultLLMModels()[llmProvider]),
			BaseURL:  s.configStore.GetString(KeyLLMBaseURL),
			APIKey:   s.configStore.GetString(KeyLLMAPIKey),
		},
		Vector: domain.VectorSettings{
			Backend:    s.getBackend(defaults.Vector.Backend),
			URL:        s.getString(KeyVectorURL, defaults.Vector.URL),
			Token:      s.configStore.GetString(KeyVectorToken),
			Index:      s.getString(KeyVectorIndex, defaults.Vector.Index),
			Dimensions: s.getInt(KeyVectorDims, defaults.Vector.Dimensions),
		},
		Storage: domain.StorageSettings{
			DataDir: s.configStore.GetString(KeyStorageDataDir),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(KeyServerAddr, defaults.Server.Addr),
		},
		Ingestion: domain.IngestionSettings{
			Workers:       s.getInt(KeyIngestWorkers, defaults.Ingestion.Workers),
			MaxTokens:     s.getInt(KeyIngestMaxTokens, defaults.Ingestion.MaxTokens),
			OverlapTokens: s.getOverlap(defaults.Ingestion.OverlapTokens),
			Include:       s.configStore.GetStringSlice(KeyImportInclude),
		},
	}

	// A backend switch without a URL must not inherit the endee default address.
	if settings.Vector.Backend != defaults.Vector.Backend && s.configStore.GetString(KeyVectorURL) == "" {
		settings.Vector.URL = ""
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{KeyEmbedProvider, settings.Embedding.Provider.String()},
		{KeyEmbedModel, settings.Embedding.Model},
		{KeyEmbedBaseURL, settings.Embedding.BaseURL},
		{KeyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{KeyLLMProvider, settings.LLM.Provider.String()},
		{KeyLLMModel, settings.LLM.Model},
		{KeyLLMBaseURL, settings.LLM.BaseURL},
		{KeyVectorBackend, settings.Vector.Backend.String()},
		{KeyVectorURL, settings.Vector.URL},
		{KeyVectorIndex, settings.Vector.Index},
		{KeyVectorDims, settings.Vector.Dimensions},
		{KeyStorageDataDir, settings.Storage.DataDir},
		{KeyServerAddr, settings.Server.Addr},
		{KeyIngestWorkers, settings.Ingestion.Workers},
		{KeyIngestMaxTokens, settings.Ingestion.MaxTokens},
		{KeyIngestOverlap, settings.Ingestion.OverlapTokens},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	if len(settings.Ingestion.Include) > 0 {
		if err := s.configStore.Set(KeyImportInclude, settings.Ingestion.Include); err != nil {
			return fmt.Errorf("save %s: %w", KeyImportInclude, err)
		}
	}

	// Secrets are only written when present so env-provided keys are not persisted as blanks.
	secrets := map[string]string{
		KeyEmbedAPIKey: settings.Embedding.APIKey,
		KeyLLMAPIKey:   settings.LLM.APIKey,
		KeyVectorToken: settings.Vector.Token,
	}
	for key, value := range secrets {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// Set stores a single dotted key. String values are converted to the key's type.
func (s *SettingsService) Set(key string, value any) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	converted, err := convertValue(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	switch key {
	case KeyEmbedProvider:
		p := domain.AIProvider(converted.(string))
		if !p.IsValid() || !p.SupportsEmbeddings() {
			return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, p)
		}
	case KeyLLMProvider:
		if p := domain.AIProvider(converted.(string)); !p.IsValid() {
			return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, p)
		}
	case KeyVectorBackend:
		if b := domain.VectorBackend(converted.(string)); !b.IsValid() {
			return fmt.Errorf("%w: invalid vector backend: %s", domain.ErrInvalidInput, b)
		}
	}

	return s.configStore.Set(key, converted)
}

// Validate checks the settings for configuration errors.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var problems []string
	if !settings.Embedding.IsConfigured() {
		problems = append(problems, fmt.Sprintf("embedding provider %s is not configured", settings.Embedding.Provider))
	}
	if !settings.LLM.IsConfigured() {
		problems = append(problems, fmt.Sprintf("LLM provider %s is not configured", settings.LLM.Provider))
	}
	if !settings.Vector.Backend.IsValid() {
		problems = append(problems, fmt.Sprintf("invalid vector backend: %s", settings.Vector.Backend))
	}
	if settings.Vector.Dimensions <= 0 {
		problems = append(problems, "vector dimensions must be positive")
	}
	if settings.Ingestion.MaxTokens <= 0 {
		problems = append(problems, "ingestion max_tokens must be positive")
	}
	if settings.Ingestion.OverlapTokens < 0 {
		problems = append(problems, "ingestion overlap_tokens must not be negative")
	}
	if settings.Ingestion.Workers <= 0 {
		problems = append(problems, "ingestion workers must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// SettingKeys returns every settable key.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	return keys
}

// ParseSetting converts a raw string, such as an environment value, to the
// type stored for key.
func ParseSetting(key, raw string) (any, error) {
	kind, ok := settingKinds[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	v, err := convertValue(kind, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	return v, nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getOverlap distinguishes an explicit 0 from an unset key.
func (s *SettingsService) getOverlap(defaultVal int) int {
	if _, exists := s.configStore.Get(KeyIngestOverlap); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(KeyIngestOverlap)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	val := s.configStore.GetString(KeyVectorBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.VectorBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func convertValue(kind keyKind, value any) (any, error) {
	str, isString := value.(string)
	switch kind {
	case kindInt:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		}
		if isString {
			return strconv.Atoi(strings.TrimSpace(str))
		}
	case kindFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		}
		if isString {
			return strconv.ParseFloat(strings.TrimSpace(str), 64)
		}
	case kindBool:
		if v, ok := value.(bool); ok {
			return v, nil
		}
		if isString {
			return strconv.ParseBool(strings.TrimSpace(str))
		}
	case kindString:
		if isString {
			return str, nil
		}
	}
	return nil, fmt.Errorf("unexpected value %v (%T)", value, value)
}
