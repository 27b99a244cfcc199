package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsEmbeddings returns true if the provider exposes an embedding model.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderGemini || p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders returns providers that can serve embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderGemini, AIProviderOllama, AIProviderOpenAI}
}

// AllLLMProviders returns every provider that can serve chat completions.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderGemini, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}
}

// AllVectorBackends returns every supported vector backend.
func AllVectorBackends() []VectorBackend {
	return []VectorBackend{VectorBackendEndee, VectorBackendQdrant, VectorBackendMilvus, VectorBackendMemory}
}

// VectorBackend identifies the vector search service behind the index client.
type VectorBackend string

// Available vector backends.
const (
	VectorBackendEndee  VectorBackend = "endee"
	VectorBackendQdrant VectorBackend = "qdrant"
	VectorBackendMilvus VectorBackend = "milvus"
	VectorBackendMemory VectorBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendEndee, VectorBackendQdrant, VectorBackendMilvus, VectorBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// RequestsPerSecond caps embedding requests. Zero means unlimited.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorSettings holds vector backend configuration.
type VectorSettings struct {
	// Backend selects the vector search service.
	Backend VectorBackend

	// URL is the backend address (host:port for Milvus).
	URL string

	// Token authenticates against the backend, if required.
	Token string

	// Index is the shared index (collection) name.
	Index string

	// Dimensions must match the embedding model's output size.
	Dimensions int
}

// StorageSettings holds local persistence configuration.
type StorageSettings struct {
	// DataDir holds the sqlite database and the object store file.
	DataDir string
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string
}

// IngestionSettings holds ingestion pipeline configuration.
type IngestionSettings struct {
	// Workers bounds concurrent ingestion runs.
	Workers int

	// MaxTokens is the chunk size budget.
	MaxTokens int

	// OverlapTokens controls the carry-over between consecutive chunks.
	OverlapTokens int

	// Include holds the default glob patterns for directory imports.
	Include []string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Vector    VectorSettings
	Storage   StorageSettings
	Server    ServerSettings
	Ingestion IngestionSettings
}

// Default values for settings that have a canonical value.
const (
	DefaultIndexName        = "documents"
	DefaultVectorDimensions = 3072
	DefaultServerAddr       = ":3001"
	DefaultIngestionWorkers = 2
	DefaultMaxTokens        = 500
	DefaultOverlapTokens    = 100
)

// DefaultAppSettings returns settings with sensible defaults.
// API keys are left empty and must come from config or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderGemini,
			Model:    DefaultEmbeddingModels()[AIProviderGemini],
		},
		LLM: LLMSettings{
			Provider: AIProviderGemini,
			Model:    DefaultLLMModels()[AIProviderGemini],
		},
		Vector: VectorSettings{
			Backend:    VectorBackendEndee,
			URL:        "http://localhost:8080",
			Index:      DefaultIndexName,
			Dimensions: DefaultVectorDimensions,
		},
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
		Ingestion: IngestionSettings{
			Workers:       DefaultIngestionWorkers,
			MaxTokens:     DefaultMaxTokens,
			OverlapTokens: DefaultOverlapTokens,
		},
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "gemini-embedding-001",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-large",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini:    "gemini-2.5-flash-lite",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Gemini models
		"gemini-embedding-001": 3072,
		"text-embedding-004":   768,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
