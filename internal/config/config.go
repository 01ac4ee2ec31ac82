package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/smart-worklog/internal/fuzzy"
	"github.com/benvon/smart-worklog/internal/selection"
	"github.com/benvon/smart-worklog/internal/validation"
)

// Config holds application configuration
type Config struct {
	ServerPort string `validate:"required,numeric"`
	// ReferenceTZ is the zone relative times are read in
	ReferenceTZ string `validate:"required,timezone"`
	// StorageTZ is the zone resolved timestamps are returned in
	StorageTZ string `validate:"required,timezone"`

	InteractiveSelection bool
	PendingTTL           time.Duration `validate:"gt=0"`
	PendingSweepInterval time.Duration `validate:"gt=0"`
	PendingStore         string        `validate:"oneof=memory redis"`
	MaxCandidates        int           `validate:"gte=2,lte=10"`
	RedisURL             string        `validate:"required_if=PendingStore redis"`

	LowConfidenceThreshold float64 `validate:"gt=0,lte=1"`
	MinConfidenceGap       float64 `validate:"gte=0,lt=1"`
	NoMatchThreshold       float64 `validate:"gt=0,lte=1"`

	OpenAIKey    string
	AIModel      string
	AIBaseURL    string `validate:"omitempty,url"`
	AITimeout    time.Duration
	AIMaxRetries int

	CatalogPath     string
	RateLimit       string `validate:"required"`
	AllowedOrigins  []string
	MaxRequestBytes int64 `validate:"gt=0"`

	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		ReferenceTZ:            getEnv("REFERENCE_TZ", "Europe/Moscow"),
		StorageTZ:              getEnv("STORAGE_TZ", "UTC"),
		InteractiveSelection:   getEnvBool("INTERACTIVE_SELECTION", true),
		PendingTTL:             getEnvDuration("PENDING_TTL", 15*time.Minute),
		PendingSweepInterval:   getEnvDuration("PENDING_SWEEP_INTERVAL", time.Minute),
		PendingStore:           getEnv("PENDING_STORE", "memory"),
		MaxCandidates:          getEnvInt("MAX_CANDIDATES", 3),
		RedisURL:               getEnv("REDIS_URL", ""),
		LowConfidenceThreshold: getEnvFloat("LOW_CONFIDENCE_THRESHOLD", fuzzy.DefaultThresholds.LowConfidence),
		MinConfidenceGap:       getEnvFloat("MIN_CONFIDENCE_GAP", fuzzy.DefaultThresholds.MinGap),
		NoMatchThreshold:       getEnvFloat("NO_MATCH_THRESHOLD", fuzzy.DefaultThresholds.NoMatch),
		OpenAIKey:              getEnv("OPENAI_API_KEY", ""),
		AIModel:                getEnv("AI_MODEL", ""),
		AIBaseURL:              getEnv("AI_BASE_URL", ""),
		AITimeout:              getEnvDuration("AI_TIMEOUT", 20*time.Second),
		AIMaxRetries:           getEnvInt("AI_MAX_RETRIES", 2),
		CatalogPath:            getEnv("CATALOG_PATH", ""),
		RateLimit:              getEnv("RATE_LIMIT", "5-S"),
		AllowedOrigins:         getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		MaxRequestBytes:        int64(getEnvInt("MAX_REQUEST_BYTES", 64*1024)),
		ServerDebugMode:        getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:            getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:           getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the ordering of the thresholds
func (c *Config) Validate() error {
	if err := validation.Validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Locations loads the reference and storage time zones
func (c *Config) Locations() (reference, storage *time.Location, err error) {
	reference, err = time.LoadLocation(c.ReferenceTZ)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load REFERENCE_TZ %q: %w", c.ReferenceTZ, err)
	}
	storage, err = time.LoadLocation(c.StorageTZ)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load STORAGE_TZ %q: %w", c.StorageTZ, err)
	}
	return reference, storage, nil
}

// Thresholds returns the ranking thresholds
func (c *Config) Thresholds() fuzzy.Thresholds {
	return fuzzy.Thresholds{
		LowConfidence: c.LowConfidenceThreshold,
		MinGap:        c.MinConfidenceGap,
		NoMatch:       c.NoMatchThreshold,
	}
}

// SelectionOptions returns the pending selection settings
func (c *Config) SelectionOptions() selection.Options {
	return selection.Options{
		TTL:           c.PendingTTL,
		Interactive:   c.InteractiveSelection,
		MaxCandidates: c.MaxCandidates,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("15m") and plain milliseconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
