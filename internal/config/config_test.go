package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "SESSION_SECRET", "SESSION_STORE", "BCRYPT_COST", "RESTRICTED_PREFIX", "STORE_DRIVER"} {
		t.Setenv(key, "")
	}
	t.Setenv("GIN_MODE", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DefaultBcryptCost, cfg.BcryptCost)
	assert.Equal(t, "/api/restricted", cfg.RestrictedPrefix)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, SessionStoreMemory, cfg.SessionStore)
	assert.Equal(t, devSessionSecret, cfg.SessionSecret)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("RESTRICTED_PREFIX", "/internal")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "/internal", cfg.RestrictedPrefix)
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins())
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
}

func validConfig() *Config {
	return &Config{
		GinMode:          "debug",
		SessionSecret:    "secret",
		SessionStore:     SessionStoreMemory,
		BcryptCost:       DefaultBcryptCost,
		RestrictedPrefix: "/api/restricted",
		StoreDriver:      StoreDriverMemory,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "release requires secret",
			mutate:  func(c *Config) { c.GinMode = "release"; c.SessionSecret = "" },
			wantErr: "SESSION_SECRET",
		},
		{
			name:    "cost too low",
			mutate:  func(c *Config) { c.BcryptCost = 1 },
			wantErr: "BCRYPT_COST",
		},
		{
			name:    "cost too high",
			mutate:  func(c *Config) { c.BcryptCost = 40 },
			wantErr: "BCRYPT_COST",
		},
		{
			name:    "prefix without slash",
			mutate:  func(c *Config) { c.RestrictedPrefix = "api" },
			wantErr: "RESTRICTED_PREFIX",
		},
		{
			name:    "prefix covers public api",
			mutate:  func(c *Config) { c.RestrictedPrefix = "/api/" },
			wantErr: "RESTRICTED_PREFIX",
		},
		{
			name:    "prefix is root",
			mutate:  func(c *Config) { c.RestrictedPrefix = "/" },
			wantErr: "RESTRICTED_PREFIX",
		},
		{
			name:    "prefix is api",
			mutate:  func(c *Config) { c.RestrictedPrefix = "/api" },
			wantErr: "RESTRICTED_PREFIX",
		},
		{
			name:    "prefix shorter than a segment",
			mutate:  func(c *Config) { c.RestrictedPrefix = "/a" },
			wantErr: "RESTRICTED_PREFIX",
		},
		{
			name:    "prefix covers login",
			mutate:  func(c *Config) { c.RestrictedPrefix = "/api/l" },
			wantErr: "RESTRICTED_PREFIX",
		},
		{
			name:    "prefix equals public route",
			mutate:  func(c *Config) { c.RestrictedPrefix = "/api/register" },
			wantErr: "RESTRICTED_PREFIX",
		},
		{
			name:    "prefix covers health",
			mutate:  func(c *Config) { c.RestrictedPrefix = "/he" },
			wantErr: "RESTRICTED_PREFIX",
		},
		{
			name:   "prefix beside public routes",
			mutate: func(c *Config) { c.RestrictedPrefix = "/api/admin" },
		},
		{
			name:    "unknown session store",
			mutate:  func(c *Config) { c.SessionStore = "file" },
			wantErr: "SESSION_STORE",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.StoreDriver = "mongo" },
			wantErr: "STORE_DRIVER",
		},
		{
			name:    "postgres without url",
			mutate:  func(c *Config) { c.StoreDriver = StoreDriverPostgres },
			wantErr: "DATABASE_URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
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

func TestShutdownTimeoutDefault(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "10s", cfg.ShutdownTimeout().String())
}
