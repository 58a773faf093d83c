package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the complete configuration for the helpdesk service.
// It provides type-safe access to all configuration values with validation.
type Config struct {
	Server     ServerConfig     `koanf:"server"     validate:"required"`
	Runtime    RuntimeConfig    `koanf:"runtime"    validate:"required"`
	OpenAI     OpenAIConfig     `koanf:"openai"     validate:"required"`
	Qdrant     QdrantConfig     `koanf:"qdrant"     validate:"required"`
	Retrieval  RetrievalConfig  `koanf:"retrieval"  validate:"required"`
	Helpdesk   HelpdeskConfig   `koanf:"helpdesk"   validate:"required"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
	Ingest     IngestConfig     `koanf:"ingest"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host    string        `koanf:"host"    validate:"required"        env:"SERVER_HOST"`
	Port    int           `koanf:"port"    validate:"min=1,max=65535" env:"SERVER_PORT"`
	// Timeout bounds each request context. Zero leaves requests unbounded.
	Timeout time.Duration `koanf:"timeout"                            env:"SERVER_TIMEOUT"`
	CORS    CORSConfig    `koanf:"cors"`
}

// FullAddress returns host:port for the HTTP listener.
func (s *ServerConfig) FullAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	Enabled          bool     `koanf:"enabled"           env:"SERVER_CORS_ENABLED"`
	AllowedOrigins   []string `koanf:"allowed_origins"   env:"SERVER_CORS_ALLOWED_ORIGINS"`
	AllowCredentials bool     `koanf:"allow_credentials" env:"SERVER_CORS_ALLOW_CREDENTIALS"`
	MaxAge           int      `koanf:"max_age"           env:"SERVER_CORS_MAX_AGE"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production" env:"RUNTIME_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error"          env:"RUNTIME_LOG_LEVEL"`
}

// OpenAIConfig contains generation and embedding provider configuration.
type OpenAIConfig struct {
	Provider           string          `koanf:"provider"            validate:"oneof=openai mock" env:"LLM_PROVIDER"`
	APIKey             SensitiveString `koanf:"api_key"                                          env:"OPENAI_API_KEY"             sensitive:"true"`
	BaseURL            string          `koanf:"base_url"                                         env:"OPENAI_BASE_URL"`
	ChatModel          string          `koanf:"chat_model"          validate:"required"          env:"OPENAI_CHAT_MODEL"`
	EmbeddingModel     string          `koanf:"embedding_model"     validate:"required"          env:"OPENAI_EMBEDDING_MODEL"`
	EmbeddingDimension int             `koanf:"embedding_dimension" validate:"min=1"             env:"OPENAI_EMBEDDING_DIMENSION"`
	Temperature        float64         `koanf:"temperature"         validate:"min=0,max=2"       env:"OPENAI_TEMPERATURE"`
}

// QdrantConfig contains vector store connection configuration.
type QdrantConfig struct {
	Provider   string          `koanf:"provider"    validate:"oneof=qdrant memory" env:"VECTOR_PROVIDER"`
	URL        string          `koanf:"url"                                        env:"QDRANT_URL"`
	Host       string          `koanf:"host"                                       env:"QDRANT_HOST"`
	Port       int             `koanf:"port"        validate:"min=1,max=65535"     env:"QDRANT_PORT"`
	APIKey     SensitiveString `koanf:"api_key"                                    env:"QDRANT_API_KEY"     sensitive:"true"`
	HTTPS      bool            `koanf:"https"                                      env:"QDRANT_HTTPS"`
	Collection string          `koanf:"collection"  validate:"collection_name"     env:"COLLECTION_NAME"`
	VectorName string          `koanf:"vector_name"                                env:"QDRANT_VECTOR_NAME"`
	Metric     string          `koanf:"metric"                                     env:"QDRANT_METRIC"`
	Timeout    time.Duration   `koanf:"timeout"                                    env:"QDRANT_TIMEOUT"`
	// Path snapshots the memory provider to a JSON file. Ignored by qdrant.
	Path string `koanf:"path" env:"VECTOR_STORE_PATH"`
}

// Endpoint returns the base URL of the Qdrant REST API.
func (q *QdrantConfig) Endpoint() string {
	if q.URL != "" {
		return q.URL
	}
	scheme := "http"
	if q.HTTPS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, q.Host, q.Port)
}

// RetrievalConfig contains retrieval tuning.
type RetrievalConfig struct {
	TopK      int     `koanf:"top_k"      validate:"min=1" env:"RETRIEVAL_TOP_K"`
	MinScore  float64 `koanf:"min_score"                   env:"RETRIEVAL_MIN_SCORE"`
	MaxTokens int     `koanf:"max_tokens" validate:"min=0" env:"RETRIEVAL_MAX_TOKENS"`
	CacheSize int     `koanf:"cache_size" validate:"min=0" env:"RETRIEVAL_CACHE_SIZE"`
}

// HelpdeskConfig contains escalation settings.
type HelpdeskConfig struct {
	ServiceName    string          `koanf:"service_name"     validate:"required"       env:"SERVICE_NAME"`
	Email          string          `koanf:"email"            validate:"omitempty,email" env:"HELPDESK_EMAIL"`
	SendRealEmails bool            `koanf:"send_real_emails"                           env:"SEND_REAL_EMAILS"`
	SenderEmail    string          `koanf:"sender_email"                               env:"SENDER_EMAIL"`
	SenderPassword SensitiveString `koanf:"sender_password"                            env:"GMAIL_PASSWORD"   sensitive:"true"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled       bool            `koanf:"enabled"        env:"RATELIMIT_ENABLED"`
	Limit         int64           `koanf:"limit"          env:"RATELIMIT_LIMIT"          validate:"min=0"`
	Period        time.Duration   `koanf:"period"         env:"RATELIMIT_PERIOD"`
	RedisAddr     string          `koanf:"redis_addr"     env:"RATELIMIT_REDIS_ADDR"`
	RedisPassword SensitiveString `koanf:"redis_password" env:"RATELIMIT_REDIS_PASSWORD" sensitive:"true"`
	RedisDB       int             `koanf:"redis_db"       env:"RATELIMIT_REDIS_DB"`
	Prefix        string          `koanf:"prefix"         env:"RATELIMIT_PREFIX"`
}

// MonitoringConfig contains Prometheus metrics configuration.
type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" env:"MONITORING_ENABLED"`
	Path    string `koanf:"path"    env:"MONITORING_PATH"`
}

// IngestConfig contains document ingestion settings used by the CLI.
type IngestConfig struct {
	Dir          string   `koanf:"dir"           env:"INGEST_DIR"`
	Extensions   []string `koanf:"extensions"    env:"INGEST_EXTENSIONS"`
	ChunkSize    int      `koanf:"chunk_size"    env:"INGEST_CHUNK_SIZE"    validate:"min=1"`
	ChunkOverlap int      `koanf:"chunk_overlap" env:"INGEST_CHUNK_OVERLAP" validate:"min=0"`
	BatchSize    int      `koanf:"batch_size"    env:"INGEST_BATCH_SIZE"    validate:"min=1"`
	Workers      int      `koanf:"workers"       env:"INGEST_WORKERS"       validate:"min=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8000,
			CORS: CORSConfig{
				Enabled:          true,
				AllowedOrigins:   []string{"*"},
				AllowCredentials: true,
				MaxAge:           86400,
			},
		},
		Runtime: RuntimeConfig{
			Environment: "development",
			LogLevel:    "info",
		},
		OpenAI: OpenAIConfig{
			Provider:           "openai",
			ChatModel:          "gpt-4o-mini",
			EmbeddingModel:     "text-embedding-3-small",
			EmbeddingDimension: 1536,
			Temperature:        0,
		},
		Qdrant: QdrantConfig{
			Provider:   "qdrant",
			Host:       "localhost",
			Port:       6333,
			HTTPS:      true,
			Collection: "my_documents",
			VectorName: "embedding",
			Metric:     "cosine",
			Timeout:    10 * time.Second,
		},
		Retrieval: RetrievalConfig{
			TopK:      3,
			MinScore:  0,
			MaxTokens: 0,
			CacheSize: 512,
		},
		Helpdesk: HelpdeskConfig{
			ServiceName: "Helpdesk RAG API",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Limit:   60,
			Period:  time.Minute,
			Prefix:  "helpdesk:ratelimit:",
		},
		Monitoring: MonitoringConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Ingest: IngestConfig{
			Dir:          "data",
			Extensions:   []string{".pdf", ".md", ".txt"},
			ChunkSize:    1000,
			ChunkOverlap: 100,
			BatchSize:    32,
			Workers:      4,
		},
	}
}

// SensitiveString hides its value when printed or serialized.
type SensitiveString string

const redacted = "[REDACTED]"

func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// Value returns the underlying secret.
func (s SensitiveString) Value() string {
	return string(s)
}

func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
