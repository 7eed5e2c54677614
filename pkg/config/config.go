// Package config assembles runtime settings from the environment. Every
// knob has a BAITLINE_* variable and a sensible default, so a bare
// binary runs a deterministic honeypot with no external services.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ModelProvider selects the reply generation backend.
type ModelProvider string

const (
	// ProviderNone runs fully deterministic on persona templates.
	ProviderNone ModelProvider = "none"
	// ProviderOllama generates replies through a local Ollama server.
	ProviderOllama ModelProvider = "ollama"
)

// StoreBackend selects where session intelligence is kept.
type StoreBackend string

const (
	StoreMemory StoreBackend = "memory"
	StoreRedis  StoreBackend = "redis"
)

// Config holds every runtime setting for the service.
type Config struct {
	// Server
	ListenAddr string // host:port for the HTTP API
	APIKey     string // x-api-key value; empty disables auth (dev only)

	// Model
	ModelProvider    ModelProvider
	ModelBaseURL     string
	ModelName        string
	ModelTemperature float64
	ModelMaxTokens   int

	// Persona
	PersonaPath string // optional YAML template pack override

	// Sessions
	SessionTTL    time.Duration
	SweepInterval time.Duration
	MaxSessions   int

	// Intel store
	StoreBackend  StoreBackend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RecordTTL     time.Duration

	// Archive
	PostgresDSN string // empty disables the archive

	// Enrichment
	OSINTEnabled     bool
	VirusTotalAPIKey string
	ShodanAPIKey     string
	OSINTConcurrency int

	// OCR
	OCRServiceURL string

	// Logging
	LogLevel string // debug, info, warn, error
	DevLog   bool   // console encoder with colors
}

// NewDefaultConfig reads the full configuration from the environment.
func NewDefaultConfig() *Config {
	return &Config{
		ListenAddr: GetEnv("BAITLINE_LISTEN_ADDR", ":8080"),
		APIKey:     os.Getenv("BAITLINE_API_KEY"),

		ModelProvider:    detectModelProvider(),
		ModelBaseURL:     GetEnv("BAITLINE_MODEL_BASE_URL", "http://localhost:11434"),
		ModelName:        GetEnv("BAITLINE_MODEL", "llama3"),
		ModelTemperature: GetEnvFloat("BAITLINE_MODEL_TEMPERATURE", 0.0),
		ModelMaxTokens:   GetEnvInt("BAITLINE_MODEL_MAX_TOKENS", 120),

		PersonaPath: GetEnv("BAITLINE_PERSONA_PATH", ""),

		SessionTTL:    GetEnvDuration("BAITLINE_SESSION_TTL", 30*time.Minute),
		SweepInterval: GetEnvDuration("BAITLINE_SWEEP_INTERVAL", 5*time.Minute),
		MaxSessions:   clampInt(GetEnvInt("BAITLINE_MAX_SESSIONS", 10000), 1, 1000000),

		StoreBackend:  StoreBackend(GetEnv("BAITLINE_STORE", "memory")),
		RedisAddr:     GetEnv("BAITLINE_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("BAITLINE_REDIS_PASSWORD"),
		RedisDB:       GetEnvInt("BAITLINE_REDIS_DB", 0),
		RecordTTL:     GetEnvDuration("BAITLINE_RECORD_TTL", 0),

		PostgresDSN: os.Getenv("BAITLINE_POSTGRES_DSN"),

		OSINTEnabled:     GetEnvBool("BAITLINE_OSINT_ENABLED", false),
		VirusTotalAPIKey: os.Getenv("VT_API_KEY"),
		ShodanAPIKey:     os.Getenv("SHODAN_API_KEY"),
		OSINTConcurrency: clampInt(GetEnvInt("BAITLINE_OSINT_CONCURRENCY", 8), 1, 128),

		OCRServiceURL: GetEnv("BAITLINE_OCR_URL", ""),

		LogLevel: GetEnv("BAITLINE_LOG_LEVEL", "info"),
		DevLog:   GetEnvBool("BAITLINE_DEBUG", false),
	}
}

// NewLocalConfig is tuned for development: deterministic replies, no
// auth, memory store, verbose logs.
func NewLocalConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.ModelProvider = ProviderNone
	cfg.StoreBackend = StoreMemory
	cfg.OSINTEnabled = false
	cfg.LogLevel = "debug"
	cfg.DevLog = true
	return cfg
}

// NewHardenedConfig is tuned for exposed deployments: auth mandatory,
// no outbound enrichment unless explicitly re-enabled.
func NewHardenedConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.OSINTEnabled = false
	cfg.DevLog = false
	return cfg
}

func detectModelProvider() ModelProvider {
	if p := os.Getenv("BAITLINE_MODEL_PROVIDER"); p != "" {
		return ModelProvider(p)
	}
	if os.Getenv("BAITLINE_MODEL_BASE_URL") != "" {
		return ProviderOllama
	}
	return ProviderNone
}

func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// GetEnv returns the value of an environment variable or a default.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a
// default.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a
// default.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvDuration returns the duration value ("30m", "90s") of an
// environment variable or a default.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a
// default.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment
// variable or a default.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func isProduction() bool {
	env := strings.ToLower(os.Getenv("BAITLINE_ENV"))
	return env == "production" || env == "prod"
}

// Validate checks the configuration for values that cannot work. In
// production mode a missing API key is fatal; in development it only
// warns, so a bare binary still runs locally.
func (c *Config) Validate() error {
	var problems []string

	switch c.ModelProvider {
	case ProviderNone, ProviderOllama:
	default:
		problems = append(problems, fmt.Sprintf("unknown model provider %q", c.ModelProvider))
	}

	switch c.StoreBackend {
	case StoreMemory, StoreRedis:
	default:
		problems = append(problems, fmt.Sprintf("unknown store backend %q", c.StoreBackend))
	}

	if c.StoreBackend == StoreRedis && c.RedisAddr == "" {
		problems = append(problems, "BAITLINE_REDIS_ADDR required for the redis store")
	}
	if c.ModelProvider == ProviderOllama && c.ModelBaseURL == "" {
		problems = append(problems, "BAITLINE_MODEL_BASE_URL required for the ollama provider")
	}

	if c.APIKey == "" {
		if isProduction() {
			problems = append(problems, "BAITLINE_API_KEY must be set in production")
		} else {
			log.Printf("[STARTUP] Warning: BAITLINE_API_KEY not set, API auth disabled")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MustValidate calls Validate and exits on failure. Call at startup.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: %v", err)
	}
}
