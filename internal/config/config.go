package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/counseldesk/counsel/pkg/models"
)

// Config holds all configuration for the Counsel service.
type Config struct {
	Port        int
	Version     string
	Environment string

	LLM        LLMConfig
	Generation models.GenerationConfig
	Storage    StorageConfig
	Telemetry  TelemetryConfig
	Auth       AuthConfig
}

type LLMConfig struct {
	// Provider is one of gemini, vertex, openai, mock.
	Provider      string
	ModelName     string
	GeminiAPIKey  string
	GCPProject    string
	GCPLocation   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Timeout       time.Duration
}

type StorageConfig struct {
	// Backend is one of memory, postgres, firestore.
	Backend        string
	DatabaseURL    string
	MaxConnections int
	DataDir        string
	SeedFile       string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
	Version      string
	Environment  string
}

type AuthConfig struct {
	APIKeys              string
	APIKeyRole           string
	ServiceAccountSecret string
	RequireAuth          bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	version := envStr("COUNSEL_VERSION", "0.1.0")
	environment := strings.ToLower(envStr("COUNSEL_ENV", "production"))
	defaults := models.DefaultGenerationConfig()
	return &Config{
		Port:        envInt("COUNSEL_PORT", 8080),
		Version:     version,
		Environment: environment,
		LLM: LLMConfig{
			Provider:      strings.ToLower(envStr("COUNSEL_LLM_PROVIDER", "gemini")),
			ModelName:     envStr("COUNSEL_MODEL_NAME", ""),
			GeminiAPIKey:  envStr("GEMINI_API_KEY", ""),
			GCPProject:    envStr("COUNSEL_GCP_PROJECT", ""),
			GCPLocation:   envStr("COUNSEL_GCP_LOCATION", ""),
			OpenAIAPIKey:  envStr("OPENAI_API_KEY", ""),
			OpenAIBaseURL: envStr("OPENAI_BASE_URL", ""),
			Timeout:       envDuration("COUNSEL_LLM_TIMEOUT", 120*time.Second),
		},
		Generation: models.GenerationConfig{
			Temperature:     envFloat("COUNSEL_TEMPERATURE", defaults.Temperature),
			TopP:            envFloat("COUNSEL_TOP_P", defaults.TopP),
			TopK:            envInt("COUNSEL_TOP_K", defaults.TopK),
			MaxOutputTokens: envInt("COUNSEL_MAX_OUTPUT_TOKENS", defaults.MaxOutputTokens),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(envStr("COUNSEL_STORAGE_BACKEND", "memory")),
			DatabaseURL:    envStr("DATABASE_URL", ""),
			MaxConnections: envInt("DATABASE_MAX_CONNECTIONS", 25),
			DataDir:        envStr("COUNSEL_DATA_DIR", ""),
			SeedFile:       envStr("COUNSEL_SEED_FILE", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "counsel"),
			Version:      version,
			Environment:  environment,
		},
		Auth: AuthConfig{
			APIKeys:              envStr("COUNSEL_API_KEYS", ""),
			APIKeyRole:           envStr("COUNSEL_API_KEY_ROLE", "attorney"),
			ServiceAccountSecret: envStr("COUNSEL_SA_SECRET", ""),
			RequireAuth:          envBool("COUNSEL_REQUIRE_AUTH", false),
		},
	}
}

// IsDevelopment reports whether error details may be returned to callers.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Validate checks value ranges and backend names.
func (c *Config) Validate() error {
	g := c.Generation
	if g.Temperature < 0 || g.Temperature > 2 {
		return fmt.Errorf("COUNSEL_TEMPERATURE must be in [0, 2], got %v", g.Temperature)
	}
	if g.TopP < 0 || g.TopP > 1 {
		return fmt.Errorf("COUNSEL_TOP_P must be in [0, 1], got %v", g.TopP)
	}
	if g.TopK < 0 {
		return fmt.Errorf("COUNSEL_TOP_K must be >= 0, got %d", g.TopK)
	}
	if g.MaxOutputTokens <= 0 {
		return fmt.Errorf("COUNSEL_MAX_OUTPUT_TOKENS must be > 0, got %d", g.MaxOutputTokens)
	}

	switch c.LLM.Provider {
	case "gemini", "vertex", "openai", "mock":
	default:
		return fmt.Errorf("unknown COUNSEL_LLM_PROVIDER %q", c.LLM.Provider)
	}
	switch c.Storage.Backend {
	case "memory", "firestore":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown COUNSEL_STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("COUNSEL_LLM_TIMEOUT must be positive")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
