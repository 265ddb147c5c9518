package config

import (
	"errors"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GROQ_API_KEY", "gsk_test")
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("got error %v, want %v", err, ErrMissingAPIKey)
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GROQ_VISION_MODEL", "")
	t.Setenv("GROQ_TEXT_MODEL", "")
	t.Setenv("OCR_STRIPE_COUNT", "")
	t.Setenv("OCR_OVERLAP", "")
	t.Setenv("OCR_MAX_RETRIES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.VisionModel != "llama-3.2-90b-vision-preview" {
		t.Errorf("VisionModel = %q", cfg.VisionModel)
	}
	if cfg.TextModel != "llama-3.3-70b-versatile" {
		t.Errorf("TextModel = %q", cfg.TextModel)
	}
	if cfg.StripeCount != 5 {
		t.Errorf("StripeCount = %d, want 5", cfg.StripeCount)
	}
	if cfg.Overlap != 0.1 {
		t.Errorf("Overlap = %g, want 0.1", cfg.Overlap)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GROQ_VISION_MODEL", "custom-vision")
	t.Setenv("GROQ_TEXT_MODEL", "custom-text")
	t.Setenv("GROQ_BASE_URL", "http://localhost:1234/v1")
	t.Setenv("OCR_STRIPE_COUNT", "8")
	t.Setenv("OCR_OVERLAP", "0.25")
	t.Setenv("OCR_MAX_RETRIES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.VisionModel != "custom-vision" {
		t.Errorf("VisionModel = %q", cfg.VisionModel)
	}
	if cfg.TextModel != "custom-text" {
		t.Errorf("TextModel = %q", cfg.TextModel)
	}
	if cfg.GroqBaseURL != "http://localhost:1234/v1" {
		t.Errorf("GroqBaseURL = %q", cfg.GroqBaseURL)
	}
	if cfg.StripeCount != 8 {
		t.Errorf("StripeCount = %d, want 8", cfg.StripeCount)
	}
	if cfg.Overlap != 0.25 {
		t.Errorf("Overlap = %g, want 0.25", cfg.Overlap)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
}

func TestLoadRejectsInvalidPipelineValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero stripes", "OCR_STRIPE_COUNT", "0"},
		{"negative stripes", "OCR_STRIPE_COUNT", "-2"},
		{"negative overlap", "OCR_OVERLAP", "-0.1"},
		{"overlap above one", "OCR_OVERLAP", "1.5"},
		{"zero retries", "OCR_MAX_RETRIES", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
