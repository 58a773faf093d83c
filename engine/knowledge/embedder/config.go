package embedder

// Provider enumerates the supported embedding backends.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	// ProviderMock produces deterministic hashed vectors for offline runs.
	ProviderMock Provider = "mock"
)

// Config describes how to build an embedding model.
type Config struct {
	ID            string
	Provider      Provider
	Model         string
	APIKey        string
	BaseURL       string
	Dimension     int
	BatchSize     int
	StripNewLines bool
	CacheSize     int
}
