package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the translate gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Public base URL for this service (e.g. https://xxx.ngrok-free.dev when
	// behind a tunnel). Used for logging the WebSocket endpoint; the browser
	// connects to wss://<this-host>/sessions.
	// Optional; if unset, logs ws://localhost:PORT/sessions.
	PublicURL string `envconfig:"PUBLIC_URL" default:""`

	// Translation collaborator (OpenAI-compatible chat completions)
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIBaseURL      string `envconfig:"OPENAI_BASE_URL" default:""`           // Empty uses the official endpoint
	TranslationModel   string `envconfig:"TRANSLATION_MODEL" default:"gpt-4o-mini"`
	TranslationTimeout int    `envconfig:"TRANSLATION_TIMEOUT" default:"15"` // seconds

	// Realtime event stream (hosted realtime speech model)
	RealtimeURL   string `envconfig:"REALTIME_URL" default:"wss://api.openai.com/v1/realtime"`
	RealtimeModel string `envconfig:"REALTIME_MODEL" default:"gpt-4o-realtime-preview"`

	// Optional pinned language pair. When both are set the pair is fixed for
	// the session and automatic inference is disabled.
	SourceLanguage string `envconfig:"SOURCE_LANGUAGE" default:""` // Language code (en, zh, etc.)
	TargetLanguage string `envconfig:"TARGET_LANGUAGE" default:""`

	// Dispatcher dedup configuration
	DedupWindowMs      int `envconfig:"DEDUP_WINDOW_MS" default:"5000"`        // Suppression window for identical requests
	HistoryRetentionMs int `envconfig:"HISTORY_RETENTION_MS" default:"300000"` // How long request keys are retained
	DedupPrefixLen     int `envconfig:"DEDUP_PREFIX_LEN" default:"64"`         // Normalized text prefix length for dedup keys

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Maximum retry attempts (initial connect)
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds
	ReconnectMaxAttempts       int `envconfig:"RECONNECT_MAX_ATTEMPTS" default:"5"`         // Maximum reconnection attempts
	ReconnectBackoff           int `envconfig:"RECONNECT_BACKOFF" default:"1000"`           // Reconnection backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables.
// It first attempts to load from a .env file if one exists, then from the
// environment.
func Load() (*Config, error) {
	// Ignore error if .env doesn't exist
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load a .env file (useful for containerized
// deployments).
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and cross-field constraints.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	// A pinned pair must name two different languages; one-sided pinning is
	// meaningless and indicates a configuration mistake.
	if (c.SourceLanguage == "") != (c.TargetLanguage == "") {
		return fmt.Errorf("SOURCE_LANGUAGE and TARGET_LANGUAGE must be set together")
	}
	if c.SourceLanguage != "" && c.SourceLanguage == c.TargetLanguage {
		return fmt.Errorf("SOURCE_LANGUAGE and TARGET_LANGUAGE must differ")
	}
	if c.DedupWindowMs <= 0 {
		return fmt.Errorf("DEDUP_WINDOW_MS must be positive")
	}
	if c.HistoryRetentionMs < c.DedupWindowMs {
		return fmt.Errorf("HISTORY_RETENTION_MS must be at least DEDUP_WINDOW_MS")
	}
	return nil
}

// SessionEndpoint returns the WebSocket URL browsers connect to, preferring
// the public URL when one is configured.
func (c *Config) SessionEndpoint() string {
	if c.PublicURL != "" {
		base := strings.TrimSuffix(c.PublicURL, "/")
		base = strings.Replace(base, "https://", "wss://", 1)
		base = strings.Replace(base, "http://", "ws://", 1)
		return base + "/sessions"
	}
	return fmt.Sprintf("ws://localhost:%s/sessions", c.Port)
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
