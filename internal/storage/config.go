package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/nikbrunner/linkshelf/internal/preview"
)

// Storage backends.
const (
	BackendAuto   = "auto"
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Environment variables that override the config file.
const (
	EnvPreviewKey    = "LINKPREVIEW_API_KEY"
	EnvScreenshotKey = "SCREENSHOTMACHINE_API_KEY"
	EnvLogLevel      = "LINKSHELF_LOG_LEVEL"
	EnvBackend       = "LINKSHELF_BACKEND"
)

// Config holds application configuration.
type Config struct {
	Backend    string `json:"backend"`
	JSONPath   string `json:"jsonPath"`
	SQLitePath string `json:"sqlitePath"`
	LogLevel   string `json:"logLevel"`

	// DefaultCollection is the collection name new links go to when none
	// is given. Empty means Recent.
	DefaultCollection string `json:"defaultCollection"`

	PreviewEndpoint       string `json:"previewEndpoint"`
	PreviewAPIKey         string `json:"previewApiKey"`
	PreviewTimeoutSeconds int    `json:"previewTimeoutSeconds"`
	ScreenshotEndpoint    string `json:"screenshotEndpoint"`
	ScreenshotAPIKey      string `json:"screenshotApiKey"`
	ScreenshotDimension   string `json:"screenshotDimension"`
	ScreenshotDelay       int    `json:"screenshotDelay"`

	CullExcludeDomains []string `json:"cullExcludeDomains"`
	CullConcurrency    int      `json:"cullConcurrency"`
}

// DefaultConfig returns the default configuration rooted at dataDir.
func DefaultConfig(dataDir string) Config {
	return Config{
		Backend:               BackendAuto,
		JSONPath:              filepath.Join(dataDir, StoreKey+".json"),
		SQLitePath:            filepath.Join(dataDir, StoreKey+".db"),
		LogLevel:              "info",
		PreviewEndpoint:       preview.DefaultEndpoint,
		PreviewTimeoutSeconds: int(preview.DefaultTimeout / time.Second),
		ScreenshotEndpoint:    preview.DefaultScreenshotEndpoint,
		ScreenshotDimension:   preview.DefaultScreenshotDimension,
		ScreenshotDelay:       preview.DefaultScreenshotDelay,
		CullExcludeDomains:    []string{"github.com", "gitlab.com"},
		CullConcurrency:       10,
	}
}

// LoadConfig reads config from the JSON file at path.
// Creates the file with defaults if it doesn't exist.
func LoadConfig(path string) (*Config, error) {
	defaults := DefaultConfig(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			config := defaults
			// Non-fatal: return defaults even if save fails
			_ = SaveConfig(path, &config)
			return &config, nil
		}
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	// Apply defaults for missing fields
	if config.Backend == "" {
		config.Backend = defaults.Backend
	}
	if config.JSONPath == "" {
		config.JSONPath = defaults.JSONPath
	}
	if config.SQLitePath == "" {
		config.SQLitePath = defaults.SQLitePath
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.PreviewEndpoint == "" {
		config.PreviewEndpoint = defaults.PreviewEndpoint
	}
	if config.PreviewTimeoutSeconds <= 0 {
		config.PreviewTimeoutSeconds = defaults.PreviewTimeoutSeconds
	}
	if config.ScreenshotEndpoint == "" {
		config.ScreenshotEndpoint = defaults.ScreenshotEndpoint
	}
	if config.ScreenshotDimension == "" {
		config.ScreenshotDimension = defaults.ScreenshotDimension
	}
	if config.ScreenshotDelay <= 0 {
		config.ScreenshotDelay = defaults.ScreenshotDelay
	}
	if config.CullExcludeDomains == nil {
		config.CullExcludeDomains = defaults.CullExcludeDomains
	}
	if config.CullConcurrency <= 0 {
		config.CullConcurrency = defaults.CullConcurrency
	}

	return &config, nil
}

// SaveConfig writes config to the JSON file.
// Creates the directory if it doesn't exist.
func SaveConfig(path string, config *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// ApplyEnv loads .env files (if present) and lets environment variables
// override the config file. Variables already set in the environment win
// over .env entries.
func (c *Config) ApplyEnv(envFiles ...string) {
	for _, f := range envFiles {
		_ = godotenv.Load(f) // missing .env is fine
	}

	if v := os.Getenv(EnvPreviewKey); v != "" {
		c.PreviewAPIKey = v
	}
	if v := os.Getenv(EnvScreenshotKey); v != "" {
		c.ScreenshotAPIKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		c.Backend = v
	}
}

// PreviewOptions maps the config onto preview client options.
func (c *Config) PreviewOptions() preview.Options {
	return preview.Options{
		APIKey:              c.PreviewAPIKey,
		Endpoint:            c.PreviewEndpoint,
		ScreenshotKey:       c.ScreenshotAPIKey,
		ScreenshotEndpoint:  c.ScreenshotEndpoint,
		ScreenshotDimension: c.ScreenshotDimension,
		ScreenshotDelay:     c.ScreenshotDelay,
		Timeout:             time.Duration(c.PreviewTimeoutSeconds) * time.Second,
	}
}

// String is used in debug logs; secrets are masked.
func (c Config) String() string {
	masked := c
	if masked.PreviewAPIKey != "" {
		masked.PreviewAPIKey = "***"
	}
	if masked.ScreenshotAPIKey != "" {
		masked.ScreenshotAPIKey = "***"
	}
	data, _ := json.Marshal(masked)
	return string(data)
}

// DefaultConfigFilePath returns the default config path: ~/.config/linkshelf/config.json
func DefaultConfigFilePath() (string, error) {
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}
