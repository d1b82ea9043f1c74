package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/turnstile/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		// Clear environment
		os.Clearenv()

		cfg := config.Load()

		require.NotNil(t, cfg)

		// Verify defaults
		require.Equal(t, 8080, cfg.Server.Port)
		require.Equal(t, 30, cfg.Server.ReadTimeout)
		require.Equal(t, 30, cfg.Server.WriteTimeout)
		require.Equal(t, "localhost:6379", cfg.Redis.Addr)
		require.Equal(t, 0, cfg.Redis.DB)
		require.Equal(t, "https://oauth2.googleapis.com/tokeninfo", cfg.Identity.TokenInfoURL)
		require.Equal(t, 10, cfg.Identity.Timeout)
		require.Empty(t, cfg.Identity.ClientID)
		require.Equal(t, "https://api.openai.com/v1", cfg.Upstream.BaseURL)
		require.Equal(t, 60, cfg.Upstream.Timeout)
		require.Empty(t, cfg.Upstream.APIKey)
	})

	t.Run("should load config from environment variables", func(t *testing.T) {
		// Set environment variables using t.Setenv for automatic cleanup
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("SERVER_READ_TIMEOUT", "60")
		t.Setenv("SERVER_WRITE_TIMEOUT", "60")
		t.Setenv("CLIENT_ID", "my-client-id")
		t.Setenv("TOKENINFO_URL", "https://idp.test/tokeninfo")
		t.Setenv("TOKENINFO_TIMEOUT", "3")
		t.Setenv("OPENAI_KEY", "sk-test-key")
		t.Setenv("UPSTREAM_BASE_URL", "https://upstream.test/v1")
		t.Setenv("UPSTREAM_TIMEOUT", "120")
		t.Setenv("REDIS_ADDR", "redis.test:6380")
		t.Setenv("REDIS_PASSWORD", "hunter2")
		t.Setenv("REDIS_DB", "2")

		cfg := config.Load()

		require.NotNil(t, cfg)

		// Verify loaded values
		require.Equal(t, 9000, cfg.Server.Port)
		require.Equal(t, 60, cfg.Server.ReadTimeout)
		require.Equal(t, 60, cfg.Server.WriteTimeout)
		require.Equal(t, "my-client-id", cfg.Identity.ClientID)
		require.Equal(t, "https://idp.test/tokeninfo", cfg.Identity.TokenInfoURL)
		require.Equal(t, 3, cfg.Identity.Timeout)
		require.Equal(t, "sk-test-key", cfg.Upstream.APIKey)
		require.Equal(t, "https://upstream.test/v1", cfg.Upstream.BaseURL)
		require.Equal(t, 120, cfg.Upstream.Timeout)
		require.Equal(t, "redis.test:6380", cfg.Redis.Addr)
		require.Equal(t, "hunter2", cfg.Redis.Password)
		require.Equal(t, 2, cfg.Redis.DB)
	})
}
