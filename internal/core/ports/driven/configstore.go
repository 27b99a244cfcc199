package driven

// ConfigStore holds docrag settings as dotted keys such as "vector.url" or
// "ingestion.max_tokens". The file adapter maps them onto TOML tables; the
// typed getters return the zero value for a missing key or a value of the
// wrong type, so callers supply their own defaults.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string

	// GetInt accepts any integer the decoder produced (TOML yields int64).
	GetInt(key string) int

	// GetFloat widens integers, so "requests_per_second = 2" reads as 2.0.
	GetFloat(key string) float64

	GetBool(key string) bool

	// GetStringSlice drops non-string items, e.g. for "import.include".
	GetStringSlice(key string) []string

	// Set updates a key. The file store writes through on every call.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path names the backing file, logged at startup with --verbose.
	Path() string
}
