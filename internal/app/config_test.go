package app

import (
	"flag"
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoad(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
	return loadConfig(aconfig.Config{
		EnvPrefix: "BOTICA",
		SkipFlags: true,
		SkipFiles: true,
	}, func(key string) string { return env[key] })
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := testLoad(t, map[string]string{"BOTICA_AUTH_JWT_SECRET": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, "db.json", cfg.Store.Path)
	assert.Equal(t, "default", cfg.Store.DocumentID)
	assert.Equal(t, "botica:document", cfg.Store.RedisKey)
	assert.Equal(t, "us-east-1", cfg.Store.S3.Region)
	assert.Equal(t, 6*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_PlatformFallbacks(t *testing.T) {
	cfg, err := testLoad(t, map[string]string{
		"JWT_SECRET":          "from-platform",
		"DATABASE_URL":        "postgres://localhost/botica",
		"PORT":                "8081",
		"BOTICA_STORE_DRIVER": "Postgres",
	})
	require.NoError(t, err)

	assert.Equal(t, "from-platform", cfg.Auth.JWTSecret)
	assert.Equal(t, "postgres://localhost/botica", cfg.Store.DatabaseURL)
	assert.Equal(t, "0.0.0.0:8081", cfg.Addr)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
}

func TestLoadConfig_ExplicitAddrWinsOverPort(t *testing.T) {
	cfg, err := testLoad(t, map[string]string{
		"JWT_SECRET":  "x",
		"PORT":        "8081",
		"BOTICA_ADDR": "127.0.0.1:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store: StoreConfig{Driver: DriverFile, Path: "db.json", DocumentID: "default"},
			Auth:  AuthConfig{JWTSecret: "x", TokenTTL: time.Hour, BcryptCost: 10},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"memory driver", func(c *Config) { c.Store.Driver = "memory" }, ""},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT secret is required"},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL = 0 }, "token TTL must be positive"},
		{"cost too low", func(c *Config) { c.Auth.BcryptCost = 2 }, "bcrypt cost 2"},
		{"cost too high", func(c *Config) { c.Auth.BcryptCost = 40 }, "bcrypt cost 40"},
		{"postgres without url", func(c *Config) { c.Store.Driver = "postgres" }, "database URL is required"},
		{"file without path", func(c *Config) { c.Store.Path = "" }, "store path is required"},
		{"redis without url", func(c *Config) { c.Store.Driver = "redis" }, "redis URL is required"},
		{"redis", func(c *Config) {
			c.Store.Driver = "redis"
			c.Store.RedisURL = "redis://localhost:6379/0"
			c.Store.RedisKey = "botica:document"
		}, ""},
		{"s3 without bucket", func(c *Config) { c.Store.Driver = "s3" }, "bucket and key are required"},
		{"s3", func(c *Config) {
			c.Store.Driver = "S3"
			c.Store.S3 = S3Config{Bucket: "shop", Key: "db.json"}
		}, ""},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, `unknown store driver "mongo"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestStoreConfig_BindFlags(t *testing.T) {
	env := map[string]string{
		"BOTICA_STORE_PATH": "/var/lib/botica/db.json.gz",
		"DATABASE_URL":      "postgres://db/botica",
	}
	var s StoreConfig
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	s.BindFlags(fs, func(k string) string { return env[k] })

	require.NoError(t, fs.Parse([]string{"-driver", "POSTGRES"}))
	require.NoError(t, s.Validate())
	assert.Equal(t, DriverPostgres, s.Driver)
	assert.Equal(t, "/var/lib/botica/db.json.gz", s.Path)
	assert.Equal(t, "postgres://db/botica", s.DatabaseURL)
	assert.Equal(t, "default", s.DocumentID)
	assert.Equal(t, "botica:document", s.RedisKey)
}

func TestStoreConfig_BindFlagsS3(t *testing.T) {
	env := map[string]string{
		"BOTICA_STORE_S3_ACCESS_KEY": "minio",
		"BOTICA_STORE_S3_SECRET_KEY": "minio123",
	}
	var s StoreConfig
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	s.BindFlags(fs, func(k string) string { return env[k] })

	require.NoError(t, fs.Parse([]string{
		"-driver", "s3",
		"-s3-bucket", "shop",
		"-s3-endpoint", "http://localhost:9000",
	}))
	require.NoError(t, s.Validate())
	assert.Equal(t, S3Config{
		Bucket:    "shop",
		Key:       "botica/db.json",
		Region:    "us-east-1",
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
	}, s.S3)
}
