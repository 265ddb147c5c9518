package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/EddyGiusepe/llama3.2-OCR/internal/logger"
)

// ErrMissingAPIKey is returned when the required Groq credential is absent.
// This is a fatal configuration error; no remote call is attempted without it.
var ErrMissingAPIKey = errors.New("GROQ_API_KEY is required")

type Config struct {
	// Groq API Configuration
	GroqAPIKey  string
	GroqBaseURL string

	// Model Configuration
	VisionModel string
	TextModel   string

	// Pipeline Configuration
	StripeCount int
	Overlap     float64
	MaxRetries  int
	Parallelism int

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		GroqAPIKey:    getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:   getEnv("GROQ_BASE_URL", ""),
		VisionModel:   getEnv("GROQ_VISION_MODEL", "llama-3.2-90b-vision-preview"),
		TextModel:     getEnv("GROQ_TEXT_MODEL", "llama-3.3-70b-versatile"),
		StripeCount:   getIntEnv("OCR_STRIPE_COUNT", 5),
		Overlap:       getFloatEnv("OCR_OVERLAP", 0.1),
		MaxRetries:    getIntEnv("OCR_MAX_RETRIES", 3),
		Parallelism:   getIntEnv("OCR_PARALLELISM", 1),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:     getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.GroqAPIKey == "" {
		return ErrMissingAPIKey
	}
	if c.StripeCount < 1 {
		return fmt.Errorf("OCR_STRIPE_COUNT must be at least 1, got %d", c.StripeCount)
	}
	if c.Overlap < 0 || c.Overlap > 1 {
		return fmt.Errorf("OCR_OVERLAP must be between 0 and 1, got %g", c.Overlap)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("OCR_MAX_RETRIES must be at least 1, got %d", c.MaxRetries)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
