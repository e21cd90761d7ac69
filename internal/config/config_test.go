package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 5000\n"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "cinelog", cfg.Auth.Issuer)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.Catalog.BaseURL)
	assert.Equal(t, 10*time.Minute, cfg.Catalog.CacheTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Contains(t, cfg.CORS.AllowedOrigins, "http://localhost:5173")
	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr())
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  driver: mongo
  mongo_uri: mongodb://db:27017
  database: movies
auth:
  jwt_secret: 0123456789abcdef0123456789abcdef
  token_ttl: 2h
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mongo", cfg.Database.Driver)
	assert.Equal(t, "mongodb://db:27017", cfg.Database.MongoURI)
	assert.Equal(t, "movies", cfg.Database.Database)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	t.Setenv("CINELOG_SERVER_PORT", "9999")
	t.Setenv("CINELOG_DATABASE_DRIVER", "memory")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [broken"))
	require.Error(t, err)
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 5000},
		Database: DatabaseConfig{Driver: "memory"},
		Catalog:  CatalogConfig{BaseURL: "http://catalog"},
		Auth:     AuthConfig{TokenTTL: time.Hour, BcryptCost: 10},
		Logging:  LoggingConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "database.driver"},
		{"sqlite without path", func(c *Config) { c.Database.Driver = "sqlite" }, "database.path"},
		{"postgres without host", func(c *Config) { c.Database.Driver = "postgres" }, "database.host"},
		{"mongo without uri", func(c *Config) { c.Database.Driver = "mongo" }, "database.mongo_uri"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "auth.jwt_secret"},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL = 0 }, "auth.token_ttl"},
		{"bcrypt cost", func(c *Config) { c.Auth.BcryptCost = 2 }, "auth.bcrypt_cost"},
		{"rate limit", func(c *Config) { c.RateLimit.Enabled = true }, "rate_limit"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
