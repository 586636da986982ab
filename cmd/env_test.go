package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderslides/kinderslides/internal/config"
)

// setTestConfig installs a config that needs no network and restores the
// previous one after the test.
func setTestConfig(t *testing.T, mutate func(*config.Config)) {
	t.Helper()
	prev := cfg
	c := &config.Config{
		Pixabay: config.PixabayConfig{Key: "test-key", BaseURL: "http://127.0.0.1:0/api/", TimeoutSecs: 1},
		Fetch:   config.FetchConfig{TimeoutSecs: 1, MaxBytes: 1 << 20, UserAgent: "test"},
		Vision:  config.VisionConfig{Provider: "off", TimeoutSecs: 1},
		Anthropic: config.AnthropicConfig{
			VisionModel: "claude-haiku-4-5-20251001",
			MaxTokens:   256,
		},
		Store:  config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "test.db")},
		Server: config.ServerConfig{Port: 8080},
	}
	if mutate != nil {
		mutate(c)
	}
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestInitStore_Disabled(t *testing.T) {
	setTestConfig(t, func(c *config.Config) { c.Store.Driver = "none" })

	st, err := initStore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestInitStore_SQLite(t *testing.T) {
	setTestConfig(t, nil)

	st, err := initStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.NoError(t, st.Close())
}

func TestInitStore_UnknownDriver(t *testing.T) {
	setTestConfig(t, func(c *config.Config) { c.Store.Driver = "mongo" })

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open store")
}

func TestInitVisionBackend(t *testing.T) {
	t.Run("off", func(t *testing.T) {
		setTestConfig(t, nil)
		b, closeFn, err := initVisionBackend(context.Background())
		require.NoError(t, err)
		assert.Nil(t, b)
		assert.Nil(t, closeFn)
	})

	t.Run("auto without keys", func(t *testing.T) {
		setTestConfig(t, func(c *config.Config) { c.Vision.Provider = "auto" })
		b, _, err := initVisionBackend(context.Background())
		require.NoError(t, err)
		assert.Nil(t, b)
	})

	t.Run("auto prefers anthropic", func(t *testing.T) {
		setTestConfig(t, func(c *config.Config) {
			c.Vision.Provider = "auto"
			c.Anthropic.Key = "sk-test"
			c.Gemini.Key = "g-test"
		})
		b, closeFn, err := initVisionBackend(context.Background())
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, "anthropic", b.Name())
		assert.Nil(t, closeFn)
	})

	t.Run("gemini without key", func(t *testing.T) {
		setTestConfig(t, func(c *config.Config) { c.Vision.Provider = "gemini" })
		_, _, err := initVisionBackend(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires gemini.key")
	})

	t.Run("unknown provider", func(t *testing.T) {
		setTestConfig(t, func(c *config.Config) { c.Vision.Provider = "llava" })
		_, _, err := initVisionBackend(context.Background())
		require.Error(t, err)
	})
}

func TestInitResolver(t *testing.T) {
	setTestConfig(t, nil)

	env, err := initResolver(context.Background(), "resolve")
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Resolver)
	assert.NotNil(t, env.Session)
	assert.NotNil(t, env.Store)
	assert.Empty(t, env.Backend)
	assert.False(t, env.Session.Disabled())
}

func TestInitResolver_WithAnthropic(t *testing.T) {
	setTestConfig(t, func(c *config.Config) {
		c.Vision.Provider = "anthropic"
		c.Anthropic.Key = "sk-test"
		c.Store.Driver = "none"
	})

	env, err := initResolver(context.Background(), "resolve")
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, "anthropic", env.Backend)
	assert.Nil(t, env.Store)
}

func TestInitResolver_InvalidConfig(t *testing.T) {
	setTestConfig(t, func(c *config.Config) { c.Pixabay.Key = "" })

	_, err := initResolver(context.Background(), "resolve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pixabay.key is required")
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, "3s", seconds(3).String())
}
