package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the transcription service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Test mode: the transport adapter is simulated and the in-memory store
	// is used regardless of MONGO_URI. Fixed at process start.
	TestMode bool `envconfig:"TEST_MODE" default:"false"`

	// Deepgram recognition provider credentials. The real recognizer is
	// selected only when both values are present.
	DeepgramAPIKey    string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramProjectID string `envconfig:"DEEPGRAM_PROJECT_ID" default:""`
	DeepgramModel     string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`

	// MongoDB persistence
	MongoURI      string `envconfig:"MONGO_URI" default:""`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"audioflow"`

	// Retry configuration (applies to transport and recognition calls)
	RetryMaxAttempts      int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialBackoffMs int `envconfig:"RETRY_INITIAL_BACKOFF_MS" default:"100"`
	RetryMaxBackoffMs     int `envconfig:"RETRY_MAX_BACKOFF_MS" default:"5000"`

	// Download configuration
	FetchTimeoutMs   int   `envconfig:"FETCH_TIMEOUT_MS" default:"10000"`
	MaxDownloadBytes int64 `envconfig:"MAX_DOWNLOAD_BYTES" default:"26214400"` // 25 MiB

	// Streaming configuration
	StreamPartialIntervalMs int `envconfig:"STREAM_PARTIAL_INTERVAL_MS" default:"500"`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables.
// It first attempts to load from .env file if it exists, then from environment.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.RetryMaxAttempts < 1 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryMaxBackoffMs < cfg.RetryInitialBackoffMs {
		return nil, fmt.Errorf("RETRY_MAX_BACKOFF_MS (%d) must not be below RETRY_INITIAL_BACKOFF_MS (%d)",
			cfg.RetryMaxBackoffMs, cfg.RetryInitialBackoffMs)
	}

	return &cfg, nil
}

// HasProviderCredentials reports whether both Deepgram credentials are set.
func (c *Config) HasProviderCredentials() bool {
	return c.DeepgramAPIKey != "" && c.DeepgramProjectID != ""
}

// RetryInitialBackoff returns the initial retry delay as a duration.
func (c *Config) RetryInitialBackoff() time.Duration {
	return time.Duration(c.RetryInitialBackoffMs) * time.Millisecond
}

// RetryMaxBackoff returns the retry delay ceiling as a duration.
func (c *Config) RetryMaxBackoff() time.Duration {
	return time.Duration(c.RetryMaxBackoffMs) * time.Millisecond
}

// FetchTimeout returns the per-download timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMs) * time.Millisecond
}

// StreamPartialInterval returns the period of the streaming partial-emission loop.
func (c *Config) StreamPartialInterval() time.Duration {
	return time.Duration(c.StreamPartialIntervalMs) * time.Millisecond
}
