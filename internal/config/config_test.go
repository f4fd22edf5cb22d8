package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, "anthropic", cfg.Assistant.Provider)
	assert.Len(t, cfg.Assistant.Endpoints, 2)
	assert.Len(t, cfg.Assistant.Models, 2)
	assert.Empty(t, cfg.Redis.URL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("JWT_TTL", "168h")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("ASSISTANT_MODELS", "model-a,model-b,model-c")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "redis://cache:6379/0", cfg.Redis.URL)
	assert.Equal(t, []string{"model-a", "model-b", "model-c"}, cfg.Assistant.Models)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: "7000"
assistant:
  provider: openai
  endpoints:
    - https://llm.internal/v1
  timeout: 5s
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "openai", cfg.Assistant.Provider)
	assert.Equal(t, []string{"https://llm.internal/v1"}, cfg.Assistant.Endpoints)
	assert.Equal(t, 5*time.Second, cfg.Assistant.Timeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Env: "development"},
			Database:  DatabaseConfig{URL: "postgres://localhost/db"},
			JWT:       JWTConfig{Secret: "s", TTL: time.Hour},
			Assistant: AssistantConfig{Provider: "anthropic", Timeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing database url", mutate: func(c *Config) { c.Database.URL = "" }, wantErr: "database.url"},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: "jwt.secret"},
		{
			name: "dev secret in production",
			mutate: func(c *Config) {
				c.Server.Env = "production"
				c.JWT.Secret = devJWTSecret
			},
			wantErr: "must be changed",
		},
		{name: "zero ttl", mutate: func(c *Config) { c.JWT.TTL = 0 }, wantErr: "jwt.ttl"},
		{name: "unknown provider", mutate: func(c *Config) { c.Assistant.Provider = "gemini" }, wantErr: "assistant.provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
