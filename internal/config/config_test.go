package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	orig := GetEnv
	GetEnv = func(key string) string { return env[key] }
	t.Cleanup(func() { GetEnv = orig })
}

func TestDefaultsNeedAPIKey(t *testing.T) {
	withEnv(t, map[string]string{"HOME": "/home/zen"})
	cfg := NewConfig()

	if cfg.DataDir != "/home/zen/.zenith" {
		t.Fatalf("unexpected data dir %s", cfg.DataDir)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "API key") {
		t.Fatalf("expected missing API key error, got %v", err)
	}
	cfg.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults with key should validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	withEnv(t, map[string]string{
		"HOME":                     "/home/zen",
		"API_KEY":                  "fallback",
		"ZENITH_CHAT_BACKEND":      "sdk",
		"ZENITH_STORE":             "sqlite",
		"ZENITH_DATA_DIR":          "~/data",
		"ZENITH_TIMEOUT":           "30s",
		"ZENITH_MAX_HISTORY":       "5",
		"ZENITH_BACKGROUND_VOLUME": "0.5",
		"ZENITH_VERBOSE":           "true",
	})

	cfg := NewConfig()
	cfg.loadFromEnv()

	if cfg.APIKey != "fallback" || cfg.ChatBackend != "sdk" || cfg.StoreBackend != "sqlite" {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.RequestTimeout != 30*time.Second || cfg.MaxHistorySize != 5 || cfg.BackgroundVolume != 0.5 || !cfg.Verbose {
		t.Fatalf("unexpected parsed overrides %+v", cfg)
	}
	if cfg.StorePath() != filepath.Join("/home/zen/data", "zenith.db") {
		t.Fatalf("unexpected store path %s", cfg.StorePath())
	}
}

func TestGeminiKeyWinsOverFallback(t *testing.T) {
	withEnv(t, map[string]string{"GEMINI_API_KEY": "primary", "API_KEY": "fallback"})
	cfg := NewConfig()
	cfg.loadFromEnv()
	if cfg.APIKey != "primary" {
		t.Fatalf("expected GEMINI_API_KEY to win, got %s", cfg.APIKey)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.ChatBackend = "grpc" }},
		{"store", func(c *Config) { c.StoreBackend = "redis" }},
		{"history", func(c *Config) { c.MaxHistorySize = 0 }},
		{"volume", func(c *Config) { c.BackgroundVolume = 1.5 }},
		{"model", func(c *Config) { c.ImageModel = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.APIKey = "k"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
