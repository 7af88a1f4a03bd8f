package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

// Config is loaded once at process start and treated as read-only afterwards.
// Changing any of it requires a restart.
type Config struct {
	OllamaBaseURL    string `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
	OllamaEmbedModel string `envconfig:"OLLAMA_EMBED_MODEL" default:"nomic-embed-text"`
	OllamaChatModel  string `envconfig:"OLLAMA_CHAT_MODEL" default:"llama3"`

	PineconeAPIKey    string `envconfig:"PINECONE_API_KEY"`
	PineconeIndex     string `envconfig:"PINECONE_INDEX" default:"rag-index"`
	PineconeDimension int    `envconfig:"PINECONE_DIMENSION" default:"768"`
	PineconeMetric    string `envconfig:"PINECONE_METRIC" default:"cosine"`
	PineconeCloud     string `envconfig:"PINECONE_CLOUD" default:"aws"`
	PineconeRegion    string `envconfig:"PINECONE_REGION" default:"us-east-1"`

	PDFDir  string `envconfig:"PDF_DIR" default:"data/pdfs"`
	TextDir string `envconfig:"TEXT_DIR" default:"data/text"`

	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"500"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"100"`

	ServerPort   int    `envconfig:"SERVER_PORT" default:"8000"`
	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars might be set in the shell instead, so a missing .env is fine.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.PineconeAPIKey == "" {
		return fmt.Errorf("%w: PINECONE_API_KEY", ErrMissingRequired)
	}
	if c.PineconeIndex == "" {
		return fmt.Errorf("%w: PINECONE_INDEX", ErrMissingRequired)
	}
	if c.PineconeDimension <= 0 {
		return fmt.Errorf("%w: PINECONE_DIMENSION must be positive", ErrInvalidValue)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive", ErrInvalidValue)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: CHUNK_OVERLAP must satisfy 0 <= overlap < CHUNK_SIZE", ErrInvalidValue)
	}
	return nil
}
