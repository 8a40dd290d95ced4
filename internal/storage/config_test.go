package storage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/linkshelf/internal/storage"
)

func TestLoadConfig_CreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg, err := storage.LoadConfig(path)
	assert.NilError(t, err)
	assert.DeepEqual(t, *cfg, storage.DefaultConfig(dir))

	_, err = os.Stat(path)
	assert.NilError(t, err)
}

func TestLoadConfig_FillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	assert.NilError(t, os.WriteFile(path, []byte(`{"backend":"sqlite","defaultCollection":"Reading"}`), 0644))

	cfg, err := storage.LoadConfig(path)
	assert.NilError(t, err)
	assert.Equal(t, cfg.Backend, storage.BackendSQLite)
	assert.Equal(t, cfg.DefaultCollection, "Reading")
	assert.Equal(t, cfg.JSONPath, filepath.Join(dir, "link-collection-store.json"))
	assert.Equal(t, cfg.ScreenshotDimension, "1024x768")
	assert.Equal(t, cfg.ScreenshotDelay, 200)
	assert.Equal(t, cfg.LogLevel, "info")
	assert.DeepEqual(t, cfg.CullExcludeDomains, []string{"github.com", "gitlab.com"})
	assert.Equal(t, cfg.CullConcurrency, 10)
}

func TestConfig_ApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	assert.NilError(t, os.WriteFile(envFile, []byte("SCREENSHOTMACHINE_API_KEY=from-dotenv\nLINKPREVIEW_API_KEY=dotenv-preview\n"), 0600))

	t.Setenv(storage.EnvPreviewKey, "from-env")
	t.Setenv(storage.EnvLogLevel, "debug")
	// The .env value must only be visible through the file
	t.Setenv(storage.EnvScreenshotKey, "")
	os.Unsetenv(storage.EnvScreenshotKey)

	cfg := storage.DefaultConfig(dir)
	cfg.ApplyEnv(envFile, filepath.Join(dir, "missing.env"))

	assert.Equal(t, cfg.PreviewAPIKey, "from-env") // real env wins over .env
	assert.Equal(t, cfg.ScreenshotAPIKey, "from-dotenv")
	assert.Equal(t, cfg.LogLevel, "debug")
}

func TestConfig_PreviewOptions(t *testing.T) {
	cfg := storage.DefaultConfig(t.TempDir())
	cfg.PreviewAPIKey = "k"
	cfg.PreviewTimeoutSeconds = 5

	opts := cfg.PreviewOptions()
	assert.Equal(t, opts.APIKey, "k")
	assert.Equal(t, opts.Timeout, 5*time.Second)
	assert.Equal(t, opts.ScreenshotDelay, 200)
}

func TestConfig_StringMasksSecrets(t *testing.T) {
	cfg := storage.DefaultConfig(t.TempDir())
	cfg.PreviewAPIKey = "super-secret"

	assert.Assert(t, !strings.Contains(cfg.String(), "super-secret"))
	assert.Equal(t, cfg.PreviewAPIKey, "super-secret")
}
