package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Pixabay.Key)
	assert.Equal(t, "https://pixabay.com/api/", cfg.Pixabay.BaseURL)
	assert.Equal(t, 10, cfg.Pixabay.TimeoutSecs)
	assert.Equal(t, 15, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, int64(10<<20), cfg.Fetch.MaxBytes)
	assert.Equal(t, "kinderslides/1.0", cfg.Fetch.UserAgent)
	assert.Equal(t, "auto", cfg.Vision.Provider)
	assert.Equal(t, 10, cfg.Vision.TimeoutSecs)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.VisionModel)
	assert.Equal(t, int64(256), cfg.Anthropic.MaxTokens)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "kinderslides.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Empty(t, cfg.Monitoring.WebhookURL)
	assert.Equal(t, 300, cfg.Monitoring.CheckIntervalSecs)
	assert.Equal(t, 24, cfg.Monitoring.LookbackWindowHours)
	assert.InDelta(t, 0.25, cfg.Monitoring.UnavailableRateThreshold, 1e-9)
	assert.InDelta(t, 0.5, cfg.Monitoring.DegradedRateThreshold, 1e-9)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
pixabay:
  key: file-key
vision:
  provider: gemini
store:
  driver: postgres
  database_url: postgres://localhost/kinderslides
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Pixabay.Key)
	assert.Equal(t, "gemini", cfg.Vision.Provider)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 15, cfg.Fetch.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("KINDERSLIDES_STORE_DRIVER", "none")
	t.Setenv("KINDERSLIDES_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("KINDERSLIDES_PIXABAY_KEY=dotenv-key\nKINDERSLIDES_SERVER_PORT=3000\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("KINDERSLIDES_PIXABAY_KEY") //nolint:errcheck
		os.Unsetenv("KINDERSLIDES_SERVER_PORT") //nolint:errcheck
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.Pixabay.Key)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadDotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KINDERSLIDES_GEMINI_KEY=from-file\n"), 0644))
	t.Setenv("KINDERSLIDES_GEMINI_KEY", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Gemini.Key)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("pixabay: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config that passes every validation mode.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Pixabay.Key = "12345-abcdef"
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "kinderslides.db"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateResolve_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("resolve"))
}

func TestValidateResolve_MissingKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Pixabay.Key = "  "

	err := cfg.Validate("resolve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pixabay.key is required")
}

func TestValidateResolve_PlaceholderKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Pixabay.Key = PlaceholderPixabayKey

	err := cfg.Validate("resolve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder")
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Pixabay.Key = ""
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.NotContains(t, err.Error(), "pixabay")

	cfg.Store.Driver = "none"
	assert.NoError(t, cfg.Validate("store"))

	cfg.Store.Driver = "mysql"
	assert.Error(t, cfg.Validate("store"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pixabay.key")
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
