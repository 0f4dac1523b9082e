package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Gemini settings
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	ScriptModel    string
	ChatModel      string
	FocusModel     string
	ImageModel     string
	SpeechModel    string
	AspectRatio    string
	ImageWorkers   int
	ChatBackend    string // "rest" or "sdk"

	// Storage settings
	DataDir        string
	StoreBackend   string // "file", "sqlite" or "memory"
	MaxHistorySize int

	// Playback settings
	PlayerCommand    string
	BackgroundVolume float64
	TrackTimeout     time.Duration
	MaxTrackSize     int64
	UserAgent        string

	// Feature flags
	Verbose bool
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		// Gemini defaults
		BaseURL:        "https://generativelanguage.googleapis.com",
		RequestTimeout: 120 * time.Second,
		ScriptModel:    "gemini-3-pro-preview",
		ChatModel:      "gemini-3-flash-preview",
		FocusModel:     "gemini-3-flash-preview",
		ImageModel:     "gemini-2.5-flash-image",
		SpeechModel:    "gemini-2.5-flash-preview-tts",
		AspectRatio:    "16:9",
		ImageWorkers:   3,
		ChatBackend:    "rest",

		// Storage defaults
		DataDir:        expandHome("~/.zenith"),
		StoreBackend:   "file",
		MaxHistorySize: 10,

		// Playback defaults
		PlayerCommand:    "",
		BackgroundVolume: 0.3,
		TrackTimeout:     60 * time.Second,
		MaxTrackSize:     32 * 1024 * 1024, // 32 MB
		UserAgent:        "zenith/1.0",

		Verbose: false,
	}
}

// Load returns the defaults overridden by .env and the environment
func Load() *Config {
	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := NewConfig()
	cfg.loadFromEnv()
	return cfg
}

func (c *Config) loadFromEnv() {
	if val := GetEnv("GEMINI_API_KEY"); val != "" {
		c.APIKey = val
	} else if val := GetEnv("API_KEY"); val != "" {
		c.APIKey = val
	}
	if val := GetEnv("ZENITH_BASE_URL"); val != "" {
		c.BaseURL = val
	}
	if val := GetEnv("ZENITH_SCRIPT_MODEL"); val != "" {
		c.ScriptModel = val
	}
	if val := GetEnv("ZENITH_CHAT_MODEL"); val != "" {
		c.ChatModel = val
	}
	if val := GetEnv("ZENITH_FOCUS_MODEL"); val != "" {
		c.FocusModel = val
	}
	if val := GetEnv("ZENITH_IMAGE_MODEL"); val != "" {
		c.ImageModel = val
	}
	if val := GetEnv("ZENITH_SPEECH_MODEL"); val != "" {
		c.SpeechModel = val
	}
	if val := GetEnv("ZENITH_CHAT_BACKEND"); val != "" {
		c.ChatBackend = val
	}
	if val := GetEnv("ZENITH_DATA_DIR"); val != "" {
		c.DataDir = expandHome(val)
	}
	if val := GetEnv("ZENITH_STORE"); val != "" {
		c.StoreBackend = val
	}
	if val := GetEnv("ZENITH_PLAYER"); val != "" {
		c.PlayerCommand = val
	}

	if val := GetEnv("ZENITH_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.RequestTimeout = d
		}
	}
	if val := GetEnv("ZENITH_MAX_HISTORY"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxHistorySize = v
		}
	}
	if val := GetEnv("ZENITH_BACKGROUND_VOLUME"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			c.BackgroundVolume = v
		}
	}
	if val := GetEnv("ZENITH_VERBOSE"); val != "" {
		if v, err := strconv.ParseBool(val); err == nil {
			c.Verbose = v
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key cannot be empty (set GEMINI_API_KEY)")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if c.ScriptModel == "" || c.ChatModel == "" || c.FocusModel == "" || c.ImageModel == "" || c.SpeechModel == "" {
		return fmt.Errorf("model names cannot be empty")
	}
	if c.ChatBackend != "rest" && c.ChatBackend != "sdk" {
		return fmt.Errorf("chat backend must be rest or sdk, got %q", c.ChatBackend)
	}
	if c.ImageWorkers < 1 {
		return fmt.Errorf("image workers must be at least 1")
	}
	if c.BackgroundVolume < 0 || c.BackgroundVolume > 1 {
		return fmt.Errorf("background volume must be between 0 and 1")
	}
	return c.ValidateStorage()
}

// ValidateStorage checks only the settings needed to open local data
func (c *Config) ValidateStorage() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	switch c.StoreBackend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("store backend must be file, sqlite or memory, got %q", c.StoreBackend)
	}
	if c.MaxHistorySize < 1 {
		return fmt.Errorf("max history size must be at least 1")
	}
	return nil
}

// StorePath returns the file the key-value store lives in
func (c *Config) StorePath() string {
	if c.StoreBackend == "sqlite" {
		return filepath.Join(c.DataDir, "zenith.db")
	}
	return filepath.Join(c.DataDir, "store.json")
}

// AudioDir holds the playable resources of live sessions
func (c *Config) AudioDir() string {
	return filepath.Join(c.DataDir, "audio")
}

// TrackDir caches downloaded background tracks
func (c *Config) TrackDir() string {
	return filepath.Join(c.DataDir, "tracks")
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		return getHomeDir() + path[1:]
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = os.Getenv
